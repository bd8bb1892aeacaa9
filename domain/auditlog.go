package domain

import "time"

// AuditLog is one append-only row per intercepted mutating call, failed
// calls included. BeforeValue snapshots the call input, AfterValue the
// result or the error description.
type AuditLog struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	Username    string    `json:"username,omitempty"`
	TargetType  string    `json:"target_type,omitempty"`
	TargetID    string    `json:"target_id,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	BeforeValue string    `json:"before_value,omitempty"`
	AfterValue  string    `json:"after_value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
