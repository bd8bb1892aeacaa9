package todo

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/internal/dedup"
	"github.com/teamdo/backend/repository"
)

// Notifier is told about created todos. Delivery mechanics live outside
// this service.
type Notifier interface {
	TodoCreated(ctx context.Context, owner *domain.User, todo *domain.Todo)
}

// Service orchestrates todo mutations and queries: duplicate-submission
// guarding, access checks, group resolution, optimistic updates and audit
// interception.
type Service struct {
	todos       repository.TodoRepository
	groups      repository.GroupRepository
	users       repository.UserRepository
	categories  repository.CategoryRepository
	attachments repository.AttachmentRepository
	guard       *dedup.Guard
	recorder    *audit.Recorder
	notifier    Notifier
	logger      *zap.Logger
}

func New(
	todos repository.TodoRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	attachments repository.AttachmentRepository,
	guard *dedup.Guard,
	recorder *audit.Recorder,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = dedup.New(dedup.DefaultWindow)
	}
	return &Service{
		todos:       todos,
		groups:      groups,
		users:       users,
		categories:  categories,
		attachments: attachments,
		guard:       guard,
		recorder:    recorder,
		notifier:    notifier,
		logger:      logger,
	}
}

// Create builds and persists a new todo owned by actorID. The duplicate
// check runs before anything touches storage, so a rejected double-submit
// never leaves partial state.
func (s *Service) Create(ctx context.Context, actorID int64, form Form) (*domain.Todo, error) {
	form.normalize()
	if s.guard.IsDuplicate(actorID, form.submission().Fingerprint()) {
		return nil, domain.ErrDuplicateSubmission
	}
	if err := form.validate(); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	result, err := s.recorder.Record(ctx, "TODO_CREATE", "Todo", "", form,
		func(ctx context.Context) (any, error) {
			groups, err := s.resolveShareGroups(ctx, form.GroupIDs, owner)
			if err != nil {
				return nil, err
			}
			t := &domain.Todo{
				OwnerID:     owner.ID,
				Author:      owner.Username,
				Title:       form.Title,
				Description: form.Detail,
				DueDate:     form.DueDate,
				Priority:    form.Priority,
				CategoryID:  s.resolveCategoryID(ctx, form.CategoryID),
				Groups:      groups,
				Status:      form.Status,
				Completed:   form.Status == domain.StatusDone,
			}
			return s.todos.Create(ctx, t)
		})
	if err != nil {
		return nil, err
	}

	created := result.(*domain.Todo)
	if s.notifier != nil {
		s.notifier.TodoCreated(ctx, owner, created)
	}
	return created, nil
}

// Update overwrites a todo's fields if the actor may access it and the
// supplied version is still current.
func (s *Service) Update(ctx context.Context, actorID, id int64, form Form) (*domain.Todo, error) {
	form.normalize()
	if err := form.validate(); err != nil {
		return nil, err
	}

	existing, _, err := s.fetchAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	result, err := s.recorder.Record(ctx, "TODO_UPDATE", "Todo", strconv.FormatInt(id, 10), form,
		func(ctx context.Context) (any, error) {
			groups, err := s.groups.GetByIDs(ctx, form.GroupIDs)
			if err != nil {
				return nil, err
			}
			updated := *existing
			updated.Title = form.Title
			updated.Description = form.Detail
			updated.DueDate = form.DueDate
			updated.Priority = form.Priority
			updated.CategoryID = s.resolveCategoryID(ctx, form.CategoryID)
			updated.Status = form.Status
			updated.Completed = form.Status == domain.StatusDone
			updated.Groups = groups
			updated.Version = form.Version
			if err := s.todos.Update(ctx, &updated); err != nil {
				return nil, err
			}
			return &updated, nil
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Todo), nil
}

// Toggle flips the completed flag.
func (s *Service) Toggle(ctx context.Context, actorID, id int64) (bool, error) {
	if _, _, err := s.fetchAccessible(ctx, actorID, id); err != nil {
		return false, err
	}
	result, err := s.recorder.Record(ctx, "TODO_TOGGLE", "Todo", strconv.FormatInt(id, 10), nil,
		func(ctx context.Context) (any, error) {
			return s.todos.ToggleCompleted(ctx, id)
		})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Delete soft-deletes a todo; the row stays recoverable until purged.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	existing, _, err := s.fetchAccessible(ctx, actorID, id)
	if err != nil {
		return err
	}
	_, err = s.recorder.Record(ctx, "TODO_DELETE", "Todo", strconv.FormatInt(id, 10), existing,
		func(ctx context.Context) (any, error) {
			return nil, s.todos.SoftDelete(ctx, id)
		})
	return err
}

// Restore clears a todo's soft-delete marker. Restoring a live row is a
// no-op.
func (s *Service) Restore(ctx context.Context, id int64) error {
	existing, err := s.todos.GetByIDIncludeDeleted(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsDeleted() {
		return nil
	}
	_, err = s.recorder.Record(ctx, "TODO_RESTORE", "Todo", strconv.FormatInt(id, 10), existing,
		func(ctx context.Context) (any, error) {
			return nil, s.todos.Restore(ctx, id)
		})
	return err
}

// HardDelete irreversibly purges a todo and its attachments.
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	existing, err := s.todos.GetByIDIncludeDeleted(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.recorder.Record(ctx, "TODO_DELETE_HARD", "Todo", strconv.FormatInt(id, 10), existing,
		func(ctx context.Context) (any, error) {
			return nil, s.todos.HardDelete(ctx, id)
		})
	return err
}

// BulkDelete soft-deletes the actor's own todos among ids and reports how
// many rows were affected.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.todos.SoftDeleteByIDs(ctx, ids, actorID)
	if err != nil {
		return 0, err
	}
	s.recorder.Event(ctx, "TODO_BULK_DELETE", fmt.Sprintf("count=%d, userId=%d", deleted, actorID))
	return deleted, nil
}

// Get returns a single todo the actor may access. Forbidden is distinct
// from NotFound; transport may mask the difference to avoid leaking
// existence, the core does not.
func (s *Service) Get(ctx context.Context, actorID, id int64) (*domain.Todo, error) {
	existing, _, err := s.fetchAccessible(ctx, actorID, id)
	return existing, err
}

// ListDeleted returns soft-deleted todos for administrative recovery.
func (s *Service) ListDeleted(ctx context.Context) ([]domain.Todo, error) {
	return s.todos.ListDeleted(ctx)
}

// Attachments

func (s *Service) ListAttachments(ctx context.Context, actorID, todoID int64) ([]domain.Attachment, error) {
	if _, _, err := s.fetchAccessible(ctx, actorID, todoID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTodoID(ctx, todoID)
}

func (s *Service) AddAttachment(ctx context.Context, actorID int64, attachment *domain.Attachment) (*domain.Attachment, error) {
	if attachment == nil {
		return nil, domain.ErrInvalidPayload
	}
	if _, _, err := s.fetchAccessible(ctx, actorID, attachment.TodoID); err != nil {
		return nil, err
	}
	result, err := s.recorder.Record(ctx, "ATTACHMENT_ADD", "Attachment", "", attachment,
		func(ctx context.Context) (any, error) {
			return s.attachments.Create(ctx, attachment)
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Attachment), nil
}

func (s *Service) DeleteAttachment(ctx context.Context, actorID, todoID, attachmentID int64) error {
	if _, _, err := s.fetchAccessible(ctx, actorID, todoID); err != nil {
		return err
	}
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.TodoID != todoID {
		return domain.ErrAttachmentNotFound
	}
	_, err = s.recorder.Record(ctx, "ATTACHMENT_DELETE", "Attachment", strconv.FormatInt(attachmentID, 10), attachment,
		func(ctx context.Context) (any, error) {
			return nil, s.attachments.Delete(ctx, attachmentID)
		})
	return err
}

// fetchAccessible loads a live todo and verifies the actor may touch it.
func (s *Service) fetchAccessible(ctx context.Context, actorID, id int64) (*domain.Todo, *domain.User, error) {
	existing, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !existing.AccessibleBy(actor) {
		return nil, nil, domain.ErrForbidden
	}
	return existing, actor, nil
}

// resolveShareGroups picks the share targets for a new todo: the explicit
// selection when present, otherwise the owner's default groups.
func (s *Service) resolveShareGroups(ctx context.Context, groupIDs []int64, owner *domain.User) ([]domain.Group, error) {
	if len(groupIDs) == 0 {
		return owner.DefaultGroups, nil
	}
	return s.groups.GetByIDs(ctx, groupIDs)
}

// resolveCategoryID drops a dangling category reference instead of failing
// the whole mutation.
func (s *Service) resolveCategoryID(ctx context.Context, categoryID *int64) *int64 {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
		s.logger.Warn("ignoring unknown category", zap.Int64("category_id", *categoryID))
		return nil
	}
	return categoryID
}
