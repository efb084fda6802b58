package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects on the local filesystem under a root directory.
// Metadata (content type, cache headers) is stored next to each object in a
// small .meta sidecar file so Get can replay it.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns the store.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

type localMeta struct {
	ContentType        string `json:"content_type"`
	CacheControl       string `json:"cache_control"`
	ContentDisposition string `json:"content_disposition"`
}

// path maps an object key to a filesystem path, refusing traversal escapes.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes the object and its metadata sidecar.
func (s *LocalStore) Put(key string, data []byte, opts PutOptions) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	meta, err := json.Marshal(localMeta{
		ContentType:        opts.ContentType,
		CacheControl:       opts.CacheControl,
		ContentDisposition: opts.ContentDisposition,
	})
	if err != nil {
		return fmt.Errorf("failed to encode object metadata: %w", err)
	}
	if err := os.WriteFile(p+".meta", meta, 0o644); err != nil {
		return fmt.Errorf("failed to write object metadata %s: %w", key, err)
	}
	return nil
}

// Get reads the object back along with its stored content type.
func (s *LocalStore) Get(key string) ([]byte, ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	info := ObjectInfo{Key: key, Size: int64(len(data))}
	if raw, err := os.ReadFile(p + ".meta"); err == nil {
		var meta localMeta
		if json.Unmarshal(raw, &meta) == nil {
			info.ContentType = meta.ContentType
		}
	}
	return data, info, nil
}

// Delete removes the object and its sidecar. Deleting a missing key is not
// an error.
func (s *LocalStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	if err := os.Remove(p + ".meta"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object metadata %s: %w", key, err)
	}
	return nil
}

// List walks the root and returns every object key under the prefix,
// skipping metadata sidecars.
func (s *LocalStore) List(prefix string) ([]string, error) {
	var keys []string
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(p, ".meta") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}
	return keys, nil
}
