// Package store owns the two persisted YAML documents. Each store guards
// its document with a single mutex and writes the whole file back after
// every mutation, so two handlers firing close together cannot race on
// load-mutate-save.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for watchlist data errors. Handlers map these to
// user-facing messages; no mutation happens when they are returned.
var (
	ErrDuplicateFilm = errors.New("film already in watchlist")
	ErrFilmNotFound  = errors.New("film not in watchlist")
)

// saveYAML serializes v and atomically replaces the file at path.
func saveYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
