package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
)

// LogNotifier announces created todos through the structured log. It stands
// in for a mail or chat integration; swapping it out only touches main.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) TodoCreated(ctx context.Context, owner *domain.User, todo *domain.Todo) {
	n.logger.Info("todo created",
		zap.Int64("todo_id", todo.ID),
		zap.String("owner", owner.Username),
		zap.Int64s("group_ids", todo.GroupIDs()))
}
