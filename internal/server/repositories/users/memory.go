package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// MemoryRepository keeps users in process memory. A single mutex makes each
// method atomic, which gives the same compare-and-set guarantees as the
// postgres row updates. Returned users are copies.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[int64]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.LastName = cloneString(u.LastName)
	c.Patronymic = cloneString(u.Patronymic)
	c.EmailVerificationCode = cloneString(u.EmailVerificationCode)
	c.RefreshToken = cloneString(u.RefreshToken)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *MemoryRepository) find(match func(*models.User) bool) *models.User {
	for _, u := range r.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := r.find(func(u *models.User) bool { return u.Login == user.Login || u.Email == user.Email })
	if taken != nil {
		return nil, common.ErrorAlreadyExists
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = clone(user)
	return user, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *MemoryRepository) getOne(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(match)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(func(u *models.User) bool { return u.ID == id })
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.getOne(func(u *models.User) bool { return u.Login == login })
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(func(u *models.User) bool { return u.Email == email })
}

func (r *MemoryRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(func(u *models.User) bool { return u.HasRefreshToken(token) })
}

func (r *MemoryRepository) ExistsByEmailOrLogin(ctx context.Context, email, login string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *models.User) bool { return u.Email == email || u.Login == login }) != nil, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, clone(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *MemoryRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsEmailVerified = true
	u.EmailVerificationCode = nil
	return nil
}

func (r *MemoryRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken = &token
	return nil
}

func (r *MemoryRepository) RotateRefreshToken(ctx context.Context, id int64, oldToken, newToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || !u.HasRefreshToken(oldToken) {
		return false, nil
	}
	u.RefreshToken = &newToken
	return true, nil
}

func (r *MemoryRepository) ClearRefreshToken(ctx context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, u := range r.users {
		if u.HasRefreshToken(token) {
			u.RefreshToken = nil
			n++
		}
	}
	return n, nil
}
