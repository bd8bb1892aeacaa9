package group

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
)

type fakeGroupRepo struct {
	nextID int64
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
	if group.ID == 0 {
		f.nextID++
		group.ID = f.nextID
		f.groups = append(f.groups, *group)
		return group, nil
	}
	for i := range f.groups {
		if f.groups[i].ID == group.ID {
			f.groups[i] = *group
			return group, nil
		}
	}
	f.groups = append(f.groups, *group)
	return group, nil
}

type nopSink struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (s *nopSink) Persist(ctx context.Context, entry *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *nopSink) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	return nil, nil
}

func (s *nopSink) Count(ctx context.Context) (int64, error) { return 0, nil }

func newTestService(repo *fakeGroupRepo) *Service {
	recorder := audit.NewRecorder(&nopSink{}, nil, nil, zap.NewNop())
	return New(repo, recorder, zap.NewNop())
}

func seedTree(repo *fakeGroupRepo) (company, dept, project domain.Group) {
	company = domain.Group{ID: 1, Name: "acme", Type: domain.GroupTypeCompany}
	dept = domain.Group{ID: 2, Name: "eng", Type: domain.GroupTypeDepartment, ParentID: &company.ID}
	project = domain.Group{ID: 3, Name: "rocket", Type: domain.GroupTypeProject, ParentID: &dept.ID}
	repo.groups = []domain.Group{company, dept, project}
	repo.nextID = 3
	return
}

func TestCreateEnforcesParentTypes(t *testing.T) {
	repo := &fakeGroupRepo{}
	svc := newTestService(repo)
	company, dept, project := seedTree(repo)

	tests := []struct {
		name    string
		form    Form
		wantErr bool
	}{
		{"company is a root", Form{Name: "other", Type: "COMPANY"}, false},
		{"company must not have a parent", Form{Name: "bad", Type: "COMPANY", ParentID: &company.ID}, true},
		{"department under company", Form{Name: "sales", Type: "DEPARTMENT", ParentID: &company.ID}, false},
		{"department under department", Form{Name: "bad", Type: "DEPARTMENT", ParentID: &dept.ID}, true},
		{"project under department", Form{Name: "laser", Type: "PROJECT", ParentID: &dept.ID}, false},
		{"project under project", Form{Name: "bad", Type: "PROJECT", ParentID: &project.ID}, true},
		{"project without parent", Form{Name: "bad", Type: "PROJECT"}, true},
		{"unknown type", Form{Name: "bad", Type: "TRIBE"}, true},
		{"blank name", Form{Name: "  ", Type: "COMPANY"}, true},
		{"missing parent row", Form{Name: "bad", Type: "DEPARTMENT", ParentID: ptr(int64(99))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.form)
			if tt.wantErr {
				if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
					t.Fatalf("expected INVALID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
		})
	}
}

func TestUpdateRejectsCycle(t *testing.T) {
	repo := &fakeGroupRepo{}
	svc := newTestService(repo)
	company, dept, _ := seedTree(repo)

	// Retyping a department to a root is a legal reshape.
	if _, err := svc.Update(context.Background(), dept.ID, Form{Name: "eng", Type: "COMPANY"}); err != nil {
		t.Fatalf("root update should pass: %v", err)
	}

	// Making a group its own parent closes the shortest possible loop.
	_, err := svc.Update(context.Background(), company.ID, Form{Name: "acme", Type: "DEPARTMENT", ParentID: &company.ID})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("self-parent: expected INVALID, got %v", err)
	}

	// Moving a group under its own descendant is caught by the ancestor walk.
	if _, err := svc.Create(context.Background(), Form{Name: "sub", Type: "DEPARTMENT", ParentID: &company.ID}); err != nil {
		t.Fatalf("seed sub-department: %v", err)
	}
	sub, err := svc.Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("load sub-department: %v", err)
	}
	_, err = svc.Update(context.Background(), company.ID, Form{Name: "acme", Type: "PROJECT", ParentID: &sub.ID})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("descendant parent: expected INVALID, got %v", err)
	}
}

func TestUpdateMissingGroup(t *testing.T) {
	repo := &fakeGroupRepo{}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), 42, Form{Name: "ghost", Type: "COMPANY"})
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
