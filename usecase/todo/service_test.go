package todo

import (
	"context"
	"strings"
	"testing"

	"github.com/teamdo/backend/domain"
)

func projectGroup(id int64, name string) domain.Group {
	return domain.Group{ID: id, Name: name, Type: domain.GroupTypeProject}
}

func TestCreateUsesOwnerDefaultGroups(t *testing.T) {
	env := newServiceEnv()
	alpha := projectGroup(10, "alpha")
	env.groups.groups = []domain.Group{alpha}
	env.addUser(1, "alice", alpha)

	created, err := env.service.Create(context.Background(), 1, Form{Title: "write report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || created.Version != 1 {
		t.Fatalf("unexpected created row: %+v", created)
	}
	if created.OwnerID != 1 || created.Author != "alice" {
		t.Errorf("owner not stamped: %+v", created)
	}
	if len(created.Groups) != 1 || created.Groups[0].ID != alpha.ID {
		t.Errorf("expected owner's default groups as share targets, got %+v", created.Groups)
	}
	if created.Priority != domain.PriorityMedium || created.Status != domain.StatusOpen {
		t.Errorf("defaults not applied: %+v", created)
	}

	entries := env.sink.byAction("TODO_CREATE")
	if len(entries) != 1 {
		t.Fatalf("expected one TODO_CREATE audit entry, got %d", len(entries))
	}
	if entries[0].AfterValue == "" || strings.HasPrefix(entries[0].AfterValue, "ERROR") {
		t.Errorf("unexpected after snapshot: %q", entries[0].AfterValue)
	}
	if len(env.notifier.created) != 1 || env.notifier.created[0] != created.ID {
		t.Errorf("notifier not told about %d: %v", created.ID, env.notifier.created)
	}
}

func TestCreateExplicitGroupsWinOverDefaults(t *testing.T) {
	env := newServiceEnv()
	alpha := projectGroup(10, "alpha")
	beta := projectGroup(11, "beta")
	env.groups.groups = []domain.Group{alpha, beta}
	env.addUser(1, "alice", alpha)

	created, err := env.service.Create(context.Background(), 1, Form{Title: "plan", GroupIDs: []int64{beta.ID}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created.Groups) != 1 || created.Groups[0].ID != beta.ID {
		t.Errorf("explicit selection ignored: %+v", created.Groups)
	}
}

func TestCreateRejectsDuplicateSubmission(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	form := Form{Title: "pay invoice", Detail: "invoice 42"}

	if _, err := env.service.Create(context.Background(), 1, form); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := env.service.Create(context.Background(), 1, form)
	if !domain.IsDomainError(err, domain.ErrCodeDuplicate) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if len(env.todos.rows) != 1 {
		t.Errorf("duplicate reached storage, %d rows", len(env.todos.rows))
	}

	// A different actor submitting the same content is not a duplicate.
	env.addUser(2, "bob")
	if _, err := env.service.Create(context.Background(), 2, form); err != nil {
		t.Errorf("other actor rejected: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")

	tests := []struct {
		name string
		form Form
	}{
		{"blank title", Form{Title: "   "}},
		{"title too long", Form{Title: strings.Repeat("x", 101)}},
		{"detail too long", Form{Title: "ok", Detail: strings.Repeat("y", 1001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Create(context.Background(), 1, tt.form)
			if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("expected INVALID, got %v", err)
			}
		})
	}
}

func TestCreateDropsUnknownCategory(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	missing := int64(99)

	created, err := env.service.Create(context.Background(), 1, Form{Title: "sort mail", CategoryID: &missing})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CategoryID != nil {
		t.Errorf("dangling category kept: %v", *created.CategoryID)
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "draft", Version: 3})

	_, err := env.service.Update(context.Background(), 1, existing.ID, Form{Title: "draft v2", Version: 2})
	if !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT for stale version, got %v", err)
	}

	entries := env.sink.byAction("TODO_UPDATE")
	if len(entries) != 1 {
		t.Fatalf("failed update not audited, %d entries", len(entries))
	}
	if !strings.HasPrefix(entries[0].AfterValue, "ERROR:") {
		t.Errorf("after snapshot should carry the error, got %q", entries[0].AfterValue)
	}
}

func TestUpdateCurrentVersionSucceeds(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "draft", Version: 3})

	updated, err := env.service.Update(context.Background(), 1, existing.ID, Form{
		Title:   "draft v2",
		Status:  domain.StatusDone,
		Version: 3,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 4 {
		t.Errorf("version not bumped: %d", updated.Version)
	}
	if updated.Title != "draft v2" || !updated.Completed {
		t.Errorf("fields not applied: %+v", updated)
	}
}

func TestAccessDistinguishesForbiddenFromNotFound(t *testing.T) {
	env := newServiceEnv()
	alpha := projectGroup(10, "alpha")
	env.addUser(1, "alice", alpha)
	env.addUser(2, "bob")
	env.addUser(3, "carol", alpha)
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "shared", Groups: []domain.Group{alpha}})

	if _, err := env.service.Get(context.Background(), 2, existing.ID); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Errorf("outsider: expected FORBIDDEN, got %v", err)
	}
	if _, err := env.service.Get(context.Background(), 2, 999); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("missing row: expected NOT_FOUND, got %v", err)
	}
	if _, err := env.service.Get(context.Background(), 3, existing.ID); err != nil {
		t.Errorf("group member denied: %v", err)
	}
}

func TestToggle(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "task", Status: domain.StatusOpen})

	completed, err := env.service.Toggle(context.Background(), 1, existing.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !completed {
		t.Error("expected completed after first toggle")
	}
	completed, err = env.service.Toggle(context.Background(), 1, existing.ID)
	if err != nil {
		t.Fatalf("second Toggle: %v", err)
	}
	if completed {
		t.Error("expected reopened after second toggle")
	}
}

func TestToggleBumpsVersion(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "task", Status: domain.StatusOpen})

	if _, err := env.service.Toggle(context.Background(), 1, existing.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	// An update carrying the pre-toggle version must conflict, not revert
	// the toggle.
	_, err := env.service.Update(context.Background(), 1, existing.ID, Form{Title: "task", Version: existing.Version})
	if !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("stale update after toggle: expected CONFLICT, got %v", err)
	}
	row, err := env.todos.GetByID(context.Background(), existing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !row.Completed {
		t.Error("stale update reverted the toggle")
	}

	// Re-reading yields the post-toggle version, which succeeds.
	if _, err := env.service.Update(context.Background(), 1, existing.ID, Form{Title: "task", Version: row.Version}); err != nil {
		t.Fatalf("update with fresh version: %v", err)
	}
}

func TestDeleteHidesAndRestoreRecovers(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "temp"})

	if err := env.service.Delete(context.Background(), 1, existing.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.service.Get(context.Background(), 1, existing.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("soft-deleted row still visible, err=%v", err)
	}

	deleted, err := env.service.ListDeleted(context.Background())
	if err != nil || len(deleted) != 1 {
		t.Fatalf("ListDeleted: %v (%d rows)", err, len(deleted))
	}

	if err := env.service.Restore(context.Background(), existing.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := env.service.Get(context.Background(), 1, existing.ID); err != nil {
		t.Fatalf("restored row not visible: %v", err)
	}

	// Restoring a live row is a no-op and leaves no extra audit entry.
	before := len(env.sink.byAction("TODO_RESTORE"))
	if err := env.service.Restore(context.Background(), existing.ID); err != nil {
		t.Fatalf("Restore live row: %v", err)
	}
	if after := len(env.sink.byAction("TODO_RESTORE")); after != before {
		t.Errorf("no-op restore audited: %d -> %d", before, after)
	}
}

func TestHardDeletePurges(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "gone"})

	if err := env.service.HardDelete(context.Background(), existing.ID); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if _, err := env.todos.GetByIDIncludeDeleted(context.Background(), existing.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("row survived hard delete, err=%v", err)
	}
}

func TestBulkDeleteSkipsOtherOwners(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	mine := env.todos.put(domain.Todo{OwnerID: 1, Title: "mine"})
	theirs := env.todos.put(domain.Todo{OwnerID: 2, Title: "theirs"})

	deleted, err := env.service.BulkDelete(context.Background(), 1, []int64{mine.ID, theirs.ID, 999})
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := env.todos.GetByID(context.Background(), theirs.ID); err != nil {
		t.Errorf("foreign row deleted: %v", err)
	}
	if entries := env.sink.byAction("TODO_BULK_DELETE"); len(entries) != 1 {
		t.Errorf("bulk delete not audited, %d entries", len(entries))
	}
}

func TestAttachmentOpsAreAccessGated(t *testing.T) {
	env := newServiceEnv()
	env.addUser(1, "alice")
	env.addUser(2, "bob")
	existing := env.todos.put(domain.Todo{OwnerID: 1, Title: "with files"})

	attachment := &domain.Attachment{TodoID: existing.ID, OriginalFilename: "report.pdf", StoredFilename: "a1b2.pdf"}
	if _, err := env.service.AddAttachment(context.Background(), 2, attachment); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("outsider attach: expected FORBIDDEN, got %v", err)
	}

	created, err := env.service.AddAttachment(context.Background(), 1, attachment)
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}

	listed, err := env.service.ListAttachments(context.Background(), 1, existing.ID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListAttachments: %v (%d rows)", err, len(listed))
	}

	// Deleting through the wrong todo id must not succeed.
	other := env.todos.put(domain.Todo{OwnerID: 1, Title: "other"})
	if err := env.service.DeleteAttachment(context.Background(), 1, other.ID, created.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("cross-todo delete: expected NOT_FOUND, got %v", err)
	}
	if err := env.service.DeleteAttachment(context.Background(), 1, existing.ID, created.ID); err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}
}
