package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	mu     sync.RWMutex
	items  map[int64]task.Task
	nextID int64
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[int64]task.Task),
	}
}

func (r *TasksRepo) Create(_ context.Context, userID int64, req task.CreateTaskRequest) (task.Task, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++

	t := task.Task{
		ID:          r.nextID,
		Title:       req.Title,
		Description: req.Description,
		State:       req.State,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.items[t.ID] = t

	return t, nil
}

func (r *TasksRepo) GetByID(_ context.Context, id int64) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) List(_ context.Context, f task.ListFilter) ([]task.Task, error) {
	title := strings.ToLower(f.Title)
	desc := strings.ToLower(f.Description)

	r.mu.RLock()
	out := make([]task.Task, 0)
	for _, t := range r.items {
		if t.UserID != f.UserID {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(t.Title), title) {
			continue
		}
		if desc != "" && !strings.Contains(strings.ToLower(t.Description), desc) {
			continue
		}
		if f.State != "" && t.State != f.State {
			continue
		}
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return page(out, f.Offset, f.Limit), nil
}

func (r *TasksRepo) Update(_ context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[t.ID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	cur.Title = t.Title
	cur.Description = t.Description
	cur.State = t.State
	cur.UpdatedAt = time.Now().UTC()
	r.items[t.ID] = cur

	return cur, nil
}

func (r *TasksRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteByUser mirrors ON DELETE CASCADE on tasks.user_id.
func (r *TasksRepo) DeleteByUser(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.items {
		if t.UserID == userID {
			delete(r.items, id)
		}
	}
}
