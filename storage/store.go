// Package storage holds the object store used for original uploads and
// rehosted try-on results. Stores are append-only: a key is written once.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrExists is returned by Put when the key already holds an object.
var ErrExists = errors.New("object already exists")

// ObjectStore is content storage with path-based public URL retrieval.
type ObjectStore interface {
	// Put writes data under key. It never overwrites an existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns the URL callers use to retrieve the object at key.
	URL(ctx context.Context, key string) (string, error)
}

// ValidateKey rejects keys that are empty, absolute or escape their namespace.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid object key %q", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("invalid object key %q", key)
		}
	}
	return nil
}

// objectURL joins base and key, escaping each key segment.
func objectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
