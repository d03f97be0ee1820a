package store

import (
	"sync"

	"butler_bot/internal/config"
)

// ConfigStore is the owned state object for the configuration document.
// All access to the mutable waiting_for_disable flag goes through it; the
// rest of the document is immutable after load.
type ConfigStore struct {
	mu   sync.Mutex
	path string
	cfg  *config.Config
}

// OpenConfig loads and validates the configuration document. A malformed
// or incomplete document is a fatal startup error for the caller.
func OpenConfig(path string) (*ConfigStore, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &ConfigStore{path: path, cfg: cfg}, nil
}

// Config returns the loaded document. Callers must not touch
// WaitingForDisable directly; use AwaitingAck/SetAwaitingAck.
func (s *ConfigStore) Config() *config.Config {
	return s.cfg
}

// AwaitingAck reports whether a trash cycle is open.
func (s *ConfigStore) AwaitingAck() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.WaitingForDisable
}

// SetAwaitingAck updates the flag and persists the document before
// returning. On a save error the in-memory flag keeps its new value; the
// next successful save flushes it.
func (s *ConfigStore) SetAwaitingAck(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.WaitingForDisable = v
	return saveYAML(s.path, s.cfg)
}
