package transport

type TodoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date"`
	Priority    string   `json:"priority"`
	CategoryID  *int64   `json:"category_id"`
	GroupIDs    []int64  `json:"group_ids"`
	Status      string   `json:"status"`
	Attachments []string `json:"attachments"`
	Version     int64    `json:"version"`
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

type ExportRequest struct {
	IDs []int64 `json:"ids"`
}

type GroupRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id"`
	Color    string `json:"color"`
}

type CategoryRequest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

type RoleChangeRequest struct {
	Roles   []string `json:"roles"`
	Enabled bool     `json:"enabled"`
}

type AttachmentRequest struct {
	OriginalFilename string `json:"original_filename"`
	StoredFilename   string `json:"stored_filename"`
	ContentType      string `json:"content_type"`
	SizeBytes        int64  `json:"size_bytes"`
}
