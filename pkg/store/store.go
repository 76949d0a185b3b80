// Package store provides thread-safe in-memory storage for named search
// spaces.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parametric-labs/searchspace/pkg/space"
)

// Entry is a stored search space: its source, the loaded space, and
// bookkeeping metadata.
type Entry struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RevisionID  string    `json:"revisionId"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
	Source      string    `json:"sourceContents"`

	Space *space.Space `json:"-"`
}

// Store is a thread-safe in-memory collection of search spaces keyed by
// name.
type Store struct {
	mu         sync.RWMutex
	spaces     map[string]*Entry
	revCounter int64
}

// New creates an empty store.
func New() *Store {
	return &Store{spaces: make(map[string]*Entry)}
}

// Create parses source and stores it under name. Fails if the name is taken
// or the source does not load.
func (s *Store) Create(name, source, description string) (*Entry, error) {
	sp, err := space.Load([]byte(source))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.spaces[name]; exists {
		return nil, fmt.Errorf("space '%s' already exists", name)
	}
	s.revCounter++
	now := time.Now()
	entry := &Entry{
		Name:        name,
		Description: description,
		RevisionID:  fmt.Sprintf("%06d", s.revCounter),
		CreateTime:  now,
		UpdateTime:  now,
		Source:      source,
		Space:       sp,
	}
	s.spaces[name] = entry
	return entry, nil
}

// Get retrieves a space by name.
func (s *Store) Get(name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.spaces[name]
	if !ok {
		return nil, fmt.Errorf("space '%s' not found", name)
	}
	return entry, nil
}

// List returns all stored spaces sorted by name.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*Entry, 0, len(s.spaces))
	for _, entry := range s.spaces {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Update replaces the source of an existing space, reloading it and bumping
// the revision.
func (s *Store) Update(name, source, description string) (*Entry, error) {
	sp, err := space.Load([]byte(source))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.spaces[name]
	if !ok {
		return nil, fmt.Errorf("space '%s' not found", name)
	}
	s.revCounter++
	entry.RevisionID = fmt.Sprintf("%06d", s.revCounter)
	entry.UpdateTime = time.Now()
	entry.Source = source
	if description != "" {
		entry.Description = description
	}
	entry.Space = sp
	return entry, nil
}

// Delete removes a space by name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[name]; !ok {
		return fmt.Errorf("space '%s' not found", name)
	}
	delete(s.spaces, name)
	return nil
}
