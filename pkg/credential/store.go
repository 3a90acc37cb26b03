// Package credential holds per-session provider credentials in memory.
// Nothing in this package writes credentials anywhere.
package credential

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// MaxFileSize caps how much of a credential file is read.
const MaxFileSize = 64 << 10

// ErrFileTooLarge is returned by LoadFile when the file exceeds MaxFileSize.
var ErrFileTooLarge = fmt.Errorf("credential file exceeds %d bytes", MaxFileSize)

const (
	maskPrefixLen = 15
	unsetLabel    = "미설정"
)

// Store holds one credential per provider plus the open/closed state of each
// provider's manual-input box. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	keys   map[provider.ID]string
	manual map[provider.ID]bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		keys:   make(map[provider.ID]string),
		manual: make(map[provider.ID]bool),
	}
}

// Set stores a pasted credential and closes the manual-input box. An empty
// paste is ignored and reported as false.
func (s *Store) Set(id provider.ID, key string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = key
	s.manual[id] = false
	return true
}

// LoadFile stores the whitespace-trimmed contents of r as the credential for
// id and closes the manual-input box.
func (s *Store) LoadFile(id provider.ID, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return fmt.Errorf("reading credential file: %w", err)
	}
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}

	key := strings.TrimSpace(string(data))

	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		delete(s.keys, id)
	} else {
		s.keys[id] = key
	}
	s.manual[id] = false
	return nil
}

// Get returns the credential for id and whether one is set.
func (s *Store) Get(id provider.ID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[id]
	return key, ok && key != ""
}

// ToggleManual flips the manual-input box for id and returns the new state.
func (s *Store) ToggleManual(id provider.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual[id] = !s.manual[id]
	return s.manual[id]
}

// ManualOpen reports whether the manual-input box for id is open.
func (s *Store) ManualOpen(id provider.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manual[id]
}

// Masked returns a display form of the credential: its first 15 characters
// followed by "...", or "미설정" when unset.
func (s *Store) Masked(id provider.ID) string {
	key, ok := s.Get(id)
	if !ok {
		return unsetLabel
	}
	return mask(key)
}

// Status describes one provider's credential for display.
type Status struct {
	Provider   provider.ID `json:"provider"`
	Label      string      `json:"label"`
	Set        bool        `json:"set"`
	Masked     string      `json:"masked"`
	ManualOpen bool        `json:"manual_open"`
}

// Statuses returns the display status of every provider in display order.
func (s *Store) Statuses() []Status {
	out := make([]Status, 0, len(provider.IDs()))
	for _, id := range provider.IDs() {
		_, set := s.Get(id)
		out = append(out, Status{
			Provider:   id,
			Label:      id.Label(),
			Set:        set,
			Masked:     s.Masked(id),
			ManualOpen: s.ManualOpen(id),
		})
	}
	return out
}

func mask(key string) string {
	if utf8.RuneCountInString(key) <= maskPrefixLen {
		return key + "..."
	}
	runes := []rune(key)
	return string(runes[:maskPrefixLen]) + "..."
}
