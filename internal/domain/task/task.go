package task

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("task not found")

type State string

const (
	StateDraft State = "draft"
	StateTodo  State = "todo"
	StateDoing State = "doing"
	StateDone  State = "done"
	StateTrash State = "trash"
)

func (s State) Valid() bool {
	switch s {
	case StateDraft, StateTodo, StateDoing, StateDone, StateTrash:
		return true
	}
	return false
}

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	State       State     `json:"state"`
	UserID      int64     `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=4000"`
	State       State  `json:"state" binding:"required,oneof=draft todo doing done trash"`
}

// UpdateTaskRequest is a partial update, nil fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=4000"`
	State       *State  `json:"state" binding:"omitempty,oneof=draft todo doing done trash"`
}

func (r UpdateTaskRequest) Apply(t Task) Task {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.State != nil {
		t.State = *r.State
	}
	return t
}

// ListFilter scopes a listing to one owner. Title and Description are
// substring matches, State is exact.
type ListFilter struct {
	UserID      int64  `form:"-"`
	Title       string `form:"title"`
	Description string `form:"description"`
	State       State  `form:"state" binding:"omitempty,oneof=draft todo doing done trash"`
	Offset      int    `form:"offset,default=0" binding:"min=0"`
	Limit       int    `form:"limit,default=100" binding:"min=0,max=100"`
}
