package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File is a Backend persisted as a YAML document on disk.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a backend reading and writing path. The file is created
// on the first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Get implements Backend.
func (f *File) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		v, ok := doc[k]
		if !ok {
			continue
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("store: encode %q: %w", k, err)
		}

		out[k] = raw
	}

	return out, nil
}

// Set implements Backend.
func (f *File) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}

	for k, raw := range values {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("store: decode %q: %w", k, err)
		}

		doc[k] = v
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode settings: %w", err)
	}

	return f.write(data)
}

func (f *File) read() (map[string]any, error) {
	doc := map[string]any{}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}

	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", f.path, err)
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", f.path, err)
	}

	if doc == nil {
		doc = map[string]any{}
	}

	return doc, nil
}

func (f *File) write(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("store: write %s: %w", f.path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("store: write %s: %w", f.path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", f.path, err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}

	return nil
}
