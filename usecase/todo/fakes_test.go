package todo

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/internal/dedup"
	"github.com/teamdo/backend/repository"
)

type fakeTodoRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Todo

	lastQuery    repository.SearchQuery
	searchResult []domain.Todo
	total        int64
	searchCalls  int
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{rows: map[int64]*domain.Todo{}}
}

func (f *fakeTodoRepo) put(t domain.Todo) *domain.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		f.nextID++
		t.ID = f.nextID
	} else if t.ID > f.nextID {
		f.nextID = t.ID
	}
	if t.Version == 0 {
		t.Version = 1
	}
	f.rows[t.ID] = &t
	return &t
}

func (f *fakeTodoRepo) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.DeletedAt != nil {
		return nil, domain.ErrTodoNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeTodoRepo) GetByIDIncludeDeleted(ctx context.Context, id int64) (*domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeTodoRepo) ListDeleted(ctx context.Context) ([]domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Todo
	for _, row := range f.rows {
		if row.DeletedAt != nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeTodoRepo) Search(ctx context.Context, q repository.SearchQuery) ([]domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	f.searchCalls++
	return append([]domain.Todo(nil), f.searchResult...), nil
}

func (f *fakeTodoRepo) Count(ctx context.Context, q repository.SearchQuery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return f.total, nil
}

func (f *fakeTodoRepo) SearchWithTotal(ctx context.Context, q repository.SearchQuery) ([]domain.Todo, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.total == 0 {
		return nil, 0, nil
	}
	if q.Limit <= 0 {
		q.Limit = int(f.total)
		q.Offset = 0
		f.lastQuery = q
	}
	f.searchCalls++
	return append([]domain.Todo(nil), f.searchResult...), f.total, nil
}

func (f *fakeTodoRepo) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	created := *todo
	created.ID = 0
	created.Version = 1
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return f.put(created), nil
}

func (f *fakeTodoRepo) Update(ctx context.Context, todo *domain.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[todo.ID]
	if !ok || row.DeletedAt != nil {
		return domain.ErrTodoNotFound
	}
	if row.Version != todo.Version {
		return domain.ErrVersionConflict
	}
	updated := *todo
	updated.Version = row.Version + 1
	updated.UpdatedAt = time.Now()
	f.rows[todo.ID] = &updated
	todo.Version = updated.Version
	return nil
}

func (f *fakeTodoRepo) ToggleCompleted(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.DeletedAt != nil {
		return false, domain.ErrTodoNotFound
	}
	row.Completed = !row.Completed
	if row.Completed {
		row.Status = domain.StatusDone
	} else {
		row.Status = domain.StatusOpen
	}
	row.Version++
	return row.Completed, nil
}

func (f *fakeTodoRepo) SoftDelete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.DeletedAt != nil {
		return domain.ErrTodoNotFound
	}
	now := time.Now()
	row.DeletedAt = &now
	return nil
}

func (f *fakeTodoRepo) Restore(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return domain.ErrTodoNotFound
	}
	row.DeletedAt = nil
	return nil
}

func (f *fakeTodoRepo) HardDelete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return domain.ErrTodoNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTodoRepo) SoftDeleteByIDs(ctx context.Context, ids []int64, ownerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var deleted int64
	for _, id := range ids {
		row, ok := f.rows[id]
		if !ok || row.DeletedAt != nil || row.OwnerID != ownerID {
			continue
		}
		row.DeletedAt = &now
		deleted++
	}
	return deleted, nil
}

type fakeGroupRepo struct {
	groups []domain.Group
}

func (f *fakeGroupRepo) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	for i := range f.groups {
		if f.groups[i].ID == id {
			copied := f.groups[i]
			return &copied, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (f *fakeGroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	return append([]domain.Group(nil), f.groups...), nil
}

func (f *fakeGroupRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Group, error) {
	var out []domain.Group
	for _, id := range ids {
		for i := range f.groups {
			if f.groups[i].ID == id {
				out = append(out, f.groups[i])
			}
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) Save(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	f.groups = append(f.groups, *group)
	return group, nil
}

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserRepo) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateRoles(ctx context.Context, id int64, roles []string, enabled bool) error {
	user, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Roles = roles
	user.Enabled = enabled
	return nil
}

type fakeCategoryRepo struct {
	categories map[int64]*domain.Category
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (f *fakeCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, category := range f.categories {
		out = append(out, *category)
	}
	return out, nil
}

func (f *fakeCategoryRepo) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	f.categories[category.ID] = category
	return category, nil
}

type fakeAttachmentRepo struct {
	nextID      int64
	attachments map[int64]*domain.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: map[int64]*domain.Attachment{}}
}

func (f *fakeAttachmentRepo) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	attachment, ok := f.attachments[id]
	if !ok {
		return nil, domain.ErrAttachmentNotFound
	}
	copied := *attachment
	return &copied, nil
}

func (f *fakeAttachmentRepo) ListByTodoID(ctx context.Context, todoID int64) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, attachment := range f.attachments {
		if attachment.TodoID == todoID {
			out = append(out, *attachment)
		}
	}
	return out, nil
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) (*domain.Attachment, error) {
	f.nextID++
	created := *attachment
	created.ID = f.nextID
	f.attachments[created.ID] = &created
	return &created, nil
}

func (f *fakeAttachmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.attachments[id]; !ok {
		return domain.ErrAttachmentNotFound
	}
	delete(f.attachments, id)
	return nil
}

func (f *fakeAttachmentRepo) DeleteByTodoID(ctx context.Context, todoID int64) (int64, error) {
	var deleted int64
	for id, attachment := range f.attachments {
		if attachment.TodoID == todoID {
			delete(f.attachments, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeAuditSink struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (f *fakeAuditSink) Persist(ctx context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditSink) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AuditLog(nil), f.entries...), nil
}

func (f *fakeAuditSink) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeAuditSink) byAction(action string) []domain.AuditLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditLog
	for _, entry := range f.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type fakeNotifier struct {
	created []int64
}

func (f *fakeNotifier) TodoCreated(ctx context.Context, owner *domain.User, todo *domain.Todo) {
	f.created = append(f.created, todo.ID)
}

type serviceEnv struct {
	service     *Service
	todos       *fakeTodoRepo
	groups      *fakeGroupRepo
	users       *fakeUserRepo
	categories  *fakeCategoryRepo
	attachments *fakeAttachmentRepo
	sink        *fakeAuditSink
	notifier    *fakeNotifier
}

func newServiceEnv() *serviceEnv {
	env := &serviceEnv{
		todos:       newFakeTodoRepo(),
		groups:      &fakeGroupRepo{},
		users:       &fakeUserRepo{users: map[int64]*domain.User{}},
		categories:  &fakeCategoryRepo{categories: map[int64]*domain.Category{}},
		attachments: newFakeAttachmentRepo(),
		sink:        &fakeAuditSink{},
		notifier:    &fakeNotifier{},
	}
	recorder := audit.NewRecorder(env.sink, nil, nil, zap.NewNop())
	env.service = New(
		env.todos,
		env.groups,
		env.users,
		env.categories,
		env.attachments,
		dedup.New(dedup.DefaultWindow),
		recorder,
		env.notifier,
		zap.NewNop(),
	)
	return env
}

func (e *serviceEnv) addUser(id int64, username string, groups ...domain.Group) *domain.User {
	user := &domain.User{
		ID:            id,
		Username:      username,
		Roles:         []string{domain.RoleUser},
		Enabled:       true,
		DefaultGroups: groups,
	}
	e.users.users[id] = user
	return user
}
