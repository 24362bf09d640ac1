// Package storage keeps item photos in an object store and hands out
// short-lived download links.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultPresignTTL is how long a download link stays valid.
const DefaultPresignTTL = time.Hour

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the subset of object storage the app needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PhotoKey returns a fresh key for a photo of itemID.
func PhotoKey(itemID int64, ext string) string {
	return fmt.Sprintf("inventory/%d/%s%s", itemID, uuid.NewString(), ext)
}
