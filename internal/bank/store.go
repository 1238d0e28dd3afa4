package bank

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the account store. Implementations return copies so callers
// never alias stored state.
type Repository interface {
	Find(ctx context.Context, username string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Append(ctx context.Context, acc Account) error
	RemoveByKey(ctx context.Context, username string) error
	// Post books all entries or none of them.
	Post(ctx context.Context, entries ...Entry) error
}

// InMemory keeps accounts in insertion order for the lifetime of the process.
type InMemory struct {
	mu    sync.RWMutex
	order []string
	accts map[string]*Account
}

var _ Repository = (*InMemory)(nil)

// NewInMemory creates a store holding the given accounts in order.
func NewInMemory(accounts ...Account) (*InMemory, error) {
	s := &InMemory{accts: make(map[string]*Account, len(accounts))}
	for _, acc := range accounts {
		if err := s.Append(context.Background(), acc); err != nil {
			return nil, fmt.Errorf("seed %q: %w", acc.Username, err)
		}
	}
	return s, nil
}

func (s *InMemory) Find(ctx context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accts[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc.clone(), nil
}

func (s *InMemory) List(ctx context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0, len(s.order))
	for _, username := range s.order {
		out = append(out, s.accts[username].clone())
	}
	return out, nil
}

func (s *InMemory) Append(ctx context.Context, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts[acc.Username]; ok {
		return ErrDuplicateUsername
	}
	stored := acc.clone()
	s.accts[acc.Username] = &stored
	s.order = append(s.order, acc.Username)
	return nil
}

func (s *InMemory) RemoveByKey(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts[username]; !ok {
		return ErrNotFound
	}
	delete(s.accts, username)
	for i, u := range s.order {
		if u == username {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemory) Post(ctx context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// validate everything before touching anything
	for _, e := range entries {
		if _, ok := s.accts[e.Username]; !ok {
			return fmt.Errorf("post to %q: %w", e.Username, ErrNotFound)
		}
	}
	for _, e := range entries {
		acc := s.accts[e.Username]
		acc.Movements = append(acc.Movements, e.Movement)
	}
	return nil
}

// Len reports how many accounts the store holds.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
