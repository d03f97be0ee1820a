package store

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"butler_bot/internal/model"
)

// WatchlistStore is the owned state object for the film watchlist.
type WatchlistStore struct {
	// The mutex also serializes saves, matching the single-writer model.
	mu   sync.Mutex
	path string
	list model.Watchlist
}

// OpenWatchlist loads the watchlist document. A missing file yields an
// empty list; a malformed file is an error.
func OpenWatchlist(path string) (*WatchlistStore, error) {
	s := &WatchlistStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.list); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	return s, nil
}

// Films returns a copy of the titles in insertion order.
func (s *WatchlistStore) Films() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	films := make([]string, len(s.list.Films))
	copy(films, s.list.Films)
	return films
}

// Add appends a title and persists. Duplicates are rejected with
// ErrDuplicateFilm and leave the list untouched.
func (s *WatchlistStore) Add(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.list.Add(title) {
		return ErrDuplicateFilm
	}
	return saveYAML(s.path, &s.list)
}

// Remove deletes a title and persists. An absent title is rejected with
// ErrFilmNotFound; the match is exact (case and whitespace sensitive).
func (s *WatchlistStore) Remove(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.list.Remove(title) {
		return ErrFilmNotFound
	}
	return saveYAML(s.path, &s.list)
}
