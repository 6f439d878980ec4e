package app

import (
	"sync"
	"time"

	"github.com/router-for-me/proxyseed/internal/bootstrap"
)

// BootstrapState records the latest bootstrap result for the status endpoints.
type BootstrapState struct {
	mu         sync.RWMutex
	result     bootstrap.Result
	recorded   bool
	finishedAt time.Time
}

// NewBootstrapState returns an empty state.
func NewBootstrapState() *BootstrapState {
	return &BootstrapState{}
}

// Record stores result as the latest outcome.
func (s *BootstrapState) Record(result bootstrap.Result) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.result = result
	s.recorded = true
	s.finishedAt = time.Now().UTC()
	s.mu.Unlock()
}

// Result returns the latest outcome.
func (s *BootstrapState) Result() bootstrap.Result {
	if s == nil {
		return bootstrap.Result{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// FinishedAt returns when the latest outcome was recorded.
func (s *BootstrapState) FinishedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finishedAt
}

// Healthy reports whether a bootstrap has run and did not fail.
func (s *BootstrapState) Healthy() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recorded && s.result.Healthy()
}
