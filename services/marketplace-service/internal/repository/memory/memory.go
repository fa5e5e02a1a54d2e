// Package memory implements the repositories in process memory. It is meant for
// local development and tests; data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
)

// Store holds users and products behind a single mutex.
type Store struct {
	mu        sync.Mutex
	users     map[string]model.User // keyed by email
	usernames map[string]string     // username -> email
	products  map[string]model.Product
	now       func() time.Time
}

var (
	_ repository.UserRepository    = (*Store)(nil)
	_ repository.ProductRepository = (*Store)(nil)
	_ repository.Pinger            = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		users:     make(map[string]model.User),
		usernames: make(map[string]string),
		products:  make(map[string]model.Product),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return nil, repository.ErrDuplicateKey
	}
	if _, exists := s.usernames[user.Username]; exists {
		return nil, repository.ErrDuplicateKey
	}

	now := s.now()
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.Email] = u
	s.usernames[u.Username] = u.Email

	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUser(_ context.Context, email string, params repository.UpdateUserParams) (*model.User, error) {
	if params.IsEmpty() {
		return nil, repository.ErrNoFieldsToUpdate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if params.PasswordHash != nil {
		u.PasswordHash = *params.PasswordHash
	}
	if params.Confirmed != nil {
		u.Confirmed = *params.Confirmed
	}
	u.UpdatedAt = s.now()
	s.users[email] = u

	return &u, nil
}

func (s *Store) CreateProduct(_ context.Context, product *model.Product) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *product
	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	s.products[p.ID] = p

	return &p, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context, params repository.ListProductsParams) ([]*model.Product, error) {
	s.mu.Lock()
	all := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	out := make([]*model.Product, 0)
	if params.Offset >= uint64(len(all)) {
		return out, nil
	}

	end := params.Offset + params.EffectiveLimit()
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	for i := params.Offset; i < end; i++ {
		p := all[i]
		out = append(out, &p)
	}

	return out, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}
