package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

func TestUsersRepo_CreateAndConflicts(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo(nil)

	u, err := r.Create(ctx, "marcos", "marcos@teste.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != 1 || u.CreatedAt.IsZero() || !u.CreatedAt.Equal(u.UpdatedAt) {
		t.Fatalf("unexpected user: %+v", u)
	}

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{name: "same username and email", username: "marcos", email: "marcos@teste.com", wantErr: user.ErrUsernameTaken},
		{name: "same email", username: "marcos2", email: "marcos@teste.com", wantErr: user.ErrEmailTaken},
		{name: "fresh", username: "ana", email: "ana@teste.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(ctx, tt.username, tt.email, "hash")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUsersRepo_UpdateDeleteList(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo(nil)

	a, _ := r.Create(ctx, "a", "a@x.com", "h")
	b, _ := r.Create(ctx, "b", "b@x.com", "h")
	_, _ = r.Create(ctx, "c", "c@x.com", "h")

	if _, err := r.Update(ctx, a.ID, user.Changes{Username: "b", Email: "a@x.com"}); !errors.Is(err, user.ErrUsernameTaken) {
		t.Fatalf("got %v, want ErrUsernameTaken", err)
	}

	// keeping your own username is not a conflict
	got, err := r.Update(ctx, a.ID, user.Changes{Username: "a", Email: "new@x.com", PasswordHash: "h2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Email != "new@x.com" || got.PasswordHash != "h2" || got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("unexpected update result: %+v", got)
	}

	if _, err := r.Update(ctx, 99, user.Changes{Username: "z", Email: "z@x.com"}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	list, _ := r.List(ctx, user.ListFilter{Limit: 2, Offset: 1})
	if len(list) != 2 || list[0].ID != b.ID {
		t.Fatalf("unexpected page: %+v", list)
	}

	if err := r.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetByUsername(ctx, "b"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := r.Delete(ctx, b.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestUsersRepo_DeleteCascadesTasks(t *testing.T) {
	ctx := context.Background()
	tasks := NewTasksRepo()
	users := NewUsersRepo(tasks.DeleteByUser)

	owner, _ := users.Create(ctx, "owner", "o@x.com", "h")
	other, _ := users.Create(ctx, "other", "p@x.com", "h")

	mine, _ := tasks.Create(ctx, owner.ID, task.CreateTaskRequest{Title: "mine", State: task.StateTodo})
	theirs, _ := tasks.Create(ctx, other.ID, task.CreateTaskRequest{Title: "theirs", State: task.StateTodo})

	if err := users.Delete(ctx, owner.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := tasks.GetByID(ctx, mine.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("owner's task should be gone, got %v", err)
	}
	if _, err := tasks.GetByID(ctx, theirs.ID); err != nil {
		t.Fatalf("other user's task should survive: %v", err)
	}
}

func TestTasksRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()

	seed := []task.CreateTaskRequest{
		{Title: "Buy milk", Description: "semi-skimmed", State: task.StateTodo},
		{Title: "Write report", Description: "quarterly numbers", State: task.StateDoing},
		{Title: "Call mom", Description: "sunday", State: task.StateDone},
		{Title: "Buy bread", Description: "whole grain", State: task.StateTodo},
		{Title: "Old idea", Description: "", State: task.StateTrash},
	}
	for _, req := range seed {
		if _, err := r.Create(ctx, 1, req); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	_, _ = r.Create(ctx, 2, task.CreateTaskRequest{Title: "Buy car", State: task.StateTodo})

	tests := []struct {
		name    string
		filter  task.ListFilter
		wantIDs []int64
	}{
		{name: "all of mine", filter: task.ListFilter{UserID: 1, Limit: 100}, wantIDs: []int64{1, 2, 3, 4, 5}},
		{name: "title contains", filter: task.ListFilter{UserID: 1, Title: "buy", Limit: 100}, wantIDs: []int64{1, 4}},
		{name: "description contains", filter: task.ListFilter{UserID: 1, Description: "GRAIN", Limit: 100}, wantIDs: []int64{4}},
		{name: "state exact", filter: task.ListFilter{UserID: 1, State: task.StateTodo, Limit: 100}, wantIDs: []int64{1, 4}},
		{name: "limit", filter: task.ListFilter{UserID: 1, Limit: 2}, wantIDs: []int64{1, 2}},
		{name: "limit and offset", filter: task.ListFilter{UserID: 1, Limit: 2, Offset: 2}, wantIDs: []int64{3, 4}},
		{name: "offset past end", filter: task.ListFilter{UserID: 1, Limit: 2, Offset: 10}, wantIDs: []int64{}},
		{name: "other owner", filter: task.ListFilter{UserID: 2, Limit: 100}, wantIDs: []int64{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d tasks, want %d: %+v", len(got), len(tt.wantIDs), got)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("position %d: got id %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestTasksRepo_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	r := NewTasksRepo()

	created, _ := r.Create(ctx, 1, task.CreateTaskRequest{Title: "t", Description: "d", State: task.StateDraft})

	changed := created
	changed.State = task.StateDone
	changed.UserID = 99 // ownership is not writable through Update

	got, err := r.Update(ctx, changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.State != task.StateDone || got.UserID != 1 {
		t.Fatalf("unexpected update result: %+v", got)
	}

	if err := r.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Delete(ctx, created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := r.Update(ctx, created); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
