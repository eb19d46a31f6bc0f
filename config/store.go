package config

import (
	"sync"
	"sync/atomic"
)

// Store holds the current transport configuration with atomic read/swap
// semantics. Swapping does not touch live channels: an established
// transport is never re-bootstrapped, only future rendezvous see the new
// settings.
type Store struct {
	value atomic.Pointer[Config]

	mu        sync.RWMutex
	listeners []func(old, new_ *Config)
}

// NewStore creates a config store with the given initial value.
func NewStore(initial *Config) *Store {
	s := &Store{}
	s.value.Store(initial)
	return s
}

// Get returns the current config (zero-lock read).
func (s *Store) Get() *Config {
	return s.value.Load()
}

// Swap atomically replaces the config and notifies all listeners.
func (s *Store) Swap(new_ *Config) *Config {
	old := s.value.Swap(new_)

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(old, new_)
	}
	return old
}

// OnChange registers a listener invoked after every swap.
func (s *Store) OnChange(fn func(old, new_ *Config)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reload reads path and swaps the result in; invalid files leave the
// current config in place and return the error.
func (s *Store) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	s.Swap(cfg)
	return nil
}
