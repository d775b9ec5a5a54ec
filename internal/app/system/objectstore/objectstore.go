// Package objectstore holds avatar images. Keys are slash-separated paths
// such as "profile-photos/<identity id>"; Put overwrites.
package objectstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey rejects keys that are empty, absolute or climb out of the
// store root.
var ErrInvalidKey = errors.New("invalid object key")

// Store is the file capability used by the profile editor.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// cleanKey normalises key and rejects unsafe values.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	c := path.Clean(key)
	if c == "." {
		return "", ErrInvalidKey
	}
	return c, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
