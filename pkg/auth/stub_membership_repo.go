package auth

import (
	"context"
	"sync"
)

// StubMembershipRepository is an in-memory membership store for tests.
// Blocking, when set, delays every lookup until Release is called, which lets
// tests control the ordering of concurrent admin resolutions.
type StubMembershipRepository struct {
	mu       sync.Mutex
	admins   map[string]bool
	err      error
	blocking chan struct{}
}

func NewStubMembershipRepo(admins ...string) *StubMembershipRepository {
	m := make(map[string]bool, len(admins))
	for _, a := range admins {
		m[a] = true
	}
	return &StubMembershipRepository{admins: m}
}

func (s *StubMembershipRepository) IsAdmin(ctx context.Context, identity string) (bool, error) {
	s.mu.Lock()
	blocking := s.blocking
	s.mu.Unlock()
	if blocking != nil {
		<-blocking
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.admins[identity], nil
}

func (s *StubMembershipRepository) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *StubMembershipRepository) Block() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocking = make(chan struct{})
}

func (s *StubMembershipRepository) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blocking != nil {
		close(s.blocking)
		s.blocking = nil
	}
}
