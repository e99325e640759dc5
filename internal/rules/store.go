package rules

import "sync"

// Store holds the active catalog. Analyses take a snapshot with Current and
// keep using it even if a reload swaps the catalog mid-run.
type Store struct {
	mu      sync.RWMutex
	path    string
	current *Catalog
}

// NewStore creates a store serving c. path is re-read by Reload.
func NewStore(c *Catalog, path string) *Store {
	return &Store{current: c, path: path}
}

// OpenStore loads the catalog at path (embedded default when empty)
func OpenStore(path string) (*Store, error) {
	c, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	return NewStore(c, path), nil
}

// Current returns the active catalog
func (s *Store) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the configured catalog. On error the active catalog is kept.
func (s *Store) Reload() (*Catalog, error) {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()

	c, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	s.Swap(c)
	return c, nil
}

// Swap replaces the active catalog
func (s *Store) Swap(c *Catalog) {
	s.mu.Lock()
	s.current = c
	s.mu.Unlock()
}
