// Package audit records before/after snapshots of every mutating operation.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

// ActorFunc resolves the acting username from the request context. It is
// injected so the recorder never reaches into transport-level state itself.
type ActorFunc func(ctx context.Context) (string, bool)

// Spool is the fallback queue used when the primary sink is unreachable.
type Spool interface {
	Enqueue(entry domain.AuditLog) error
}

// Recorder wraps mutating operations. Unlike the operations it observes, the
// recorder's own write must survive a business rollback: Persist runs on a
// connection of its own, detached from the caller's cancellation, and a
// failed write is spooled locally instead of being lost.
type Recorder struct {
	sink   repository.AuditLogRepository
	spool  Spool
	actor  ActorFunc
	logger *zap.Logger
}

// NewRecorder builds a Recorder. spool may be nil.
func NewRecorder(sink repository.AuditLogRepository, spool Spool, actor ActorFunc, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if actor == nil {
		actor = func(context.Context) (string, bool) { return "", false }
	}
	return &Recorder{
		sink:   sink,
		spool:  spool,
		actor:  actor,
		logger: logger,
	}
}

// Record executes op between two snapshots and persists one audit row for
// the call, whether op succeeded or not. The operation's result and error
// pass through untouched.
func (r *Recorder) Record(ctx context.Context, action, targetType, targetID string, input any, op func(context.Context) (any, error)) (any, error) {
	entry := &domain.AuditLog{
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		BeforeValue: r.serialize(input),
		CreatedAt:   time.Now(),
	}
	if username, ok := r.actor(ctx); ok {
		entry.Username = username
	}

	result, err := op(ctx)
	if err != nil {
		entry.AfterValue = "ERROR: " + err.Error()
	} else {
		entry.AfterValue = r.serialize(result)
	}

	r.persist(ctx, entry)
	return result, err
}

// Event persists a standalone audit row without wrapping an operation, used
// for aggregate actions such as bulk deletes.
func (r *Recorder) Event(ctx context.Context, action, detail string) {
	entry := &domain.AuditLog{
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if username, ok := r.actor(ctx); ok {
		entry.Username = username
	}
	r.persist(ctx, entry)
}

func (r *Recorder) persist(ctx context.Context, entry *domain.AuditLog) {
	// The audit row must outlive the wrapped call: detach from its
	// cancellation and give the write its own deadline.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.sink.Persist(writeCtx, entry); err != nil {
		r.logger.Error("audit persist failed, spooling entry",
			zap.String("action", entry.Action),
			zap.Error(err))
		if r.spool == nil {
			return
		}
		if spoolErr := r.spool.Enqueue(*entry); spoolErr != nil {
			r.logger.Error("audit spool failed, entry dropped",
				zap.String("action", entry.Action),
				zap.Error(spoolErr))
		}
		return
	}

	r.logger.Info("audit",
		zap.String("action", entry.Action),
		zap.String("username", entry.Username),
		zap.String("target_id", entry.TargetID))
}

// serialize never fails the audited operation: a value json cannot handle
// degrades to its fmt representation.
func (r *Recorder) serialize(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("audit serialize failed", zap.Error(err))
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
