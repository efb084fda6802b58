// Package storage abstracts the blob store holding screenshot uploads.
package storage

import "errors"

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object returned by Get and List.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// PutOptions carries the HTTP metadata persisted alongside an object.
type PutOptions struct {
	ContentType        string
	CacheControl       string
	ContentDisposition string
}

// ObjectStore is the put/get/delete contract the comment pipeline consumes.
// Implementations: local disk for development and tests, Alibaba Cloud OSS
// for production.
type ObjectStore interface {
	Put(key string, data []byte, opts PutOptions) error
	Get(key string) ([]byte, ObjectInfo, error)
	Delete(key string) error
	// List returns the keys under a prefix; used by the orphan sweep.
	List(prefix string) ([]string, error)
}
