// Package storage persists uploaded attachments and resolves the opaque
// references stored on resources back to files.
package storage

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ErrUnknownReference is returned when a reference was not issued by this storage.
var ErrUnknownReference = errors.New("storage: reference not managed by this store")

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file under key and returns the reference clients embed in resources.
	Save(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)

	// Delete removes the file behind a reference. Missing files are not an error.
	Delete(ctx context.Context, ref string) error

	// Exists checks if the file behind a reference is present
	Exists(ctx context.Context, ref string) (bool, error)

	// Key resolves a reference to its storage key, or ErrUnknownReference.
	Key(ref string) (string, error)
}

// UserKey names an upload stored for a user: <userID>/<name>.
func UserKey(userID uint, name string) string {
	return strconv.FormatUint(uint64(userID), 10) + "/" + name
}

// KeyOwner returns the user a key was stored for. Keys outside the
// <userID>/ layout have no owner.
func KeyOwner(key string) (uint, bool) {
	prefix, _, ok := strings.Cut(key, "/")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Config holds storage configuration
type Config struct {
	BasePath string
	BaseURL  string
}
