package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

// UserDeleteHook runs after a user is removed, e.g. to drop their tasks.
type UserDeleteHook func(userID int64)

type UsersRepo struct {
	mu       sync.RWMutex
	items    map[int64]user.User
	nextID   int64
	onDelete UserDeleteHook
}

func NewUsersRepo(onDelete UserDeleteHook) *UsersRepo {
	return &UsersRepo{
		items:    make(map[int64]user.User),
		onDelete: onDelete,
	}
}

func (r *UsersRepo) Create(_ context.Context, username, email, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniqueLocked(0, username, email); err != nil {
		return user.User{}, err
	}

	r.nextID++
	now := time.Now().UTC()

	u := user.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, f user.ListFilter) ([]user.User, error) {
	r.mu.RLock()
	all := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		all = append(all, u)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return page(all, f.Offset, f.Limit), nil
}

func (r *UsersRepo) Update(_ context.Context, id int64, c user.Changes) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if err := r.checkUniqueLocked(id, c.Username, c.Email); err != nil {
		return user.User{}, err
	}

	u.Username = c.Username
	u.Email = c.Email
	u.PasswordHash = c.PasswordHash
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	_, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()

	if !ok {
		return user.ErrNotFound
	}

	if r.onDelete != nil {
		r.onDelete(id)
	}
	return nil
}

// username wins over email when both collide, same as the postgres store
func (r *UsersRepo) checkUniqueLocked(selfID int64, username, email string) error {
	emailTaken := false

	for id, u := range r.items {
		if id == selfID {
			continue
		}
		if u.Username == username {
			return user.ErrUsernameTaken
		}
		if u.Email == email {
			emailTaken = true
		}
	}

	if emailTaken {
		return user.ErrEmailTaken
	}
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}

	end := len(items)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
