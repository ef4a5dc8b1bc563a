package service

import (
	"sync"

	"teambridge/internal/models"
)

// Settings is the live configuration snapshot shared by the handlers and the
// dispatcher. Admin reload swaps the whole snapshot; readers always see a
// consistent config.
type Settings struct {
	mu  sync.RWMutex
	cfg *models.Config
}

// NewSettings wraps the initial configuration.
func NewSettings(cfg *models.Config) *Settings {
	return &Settings{cfg: cfg}
}

// Get returns the current snapshot. Callers must not mutate it.
func (s *Settings) Get() *models.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace swaps in a new snapshot.
func (s *Settings) Replace(cfg *models.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}
