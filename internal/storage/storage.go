/*-------------------------------------------------------------------------
 *
 * storage.go
 *    File storage capability shared by the upload routes
 *
 * Providers are selected at startup by the injector; handlers only see
 * the FileStorage interface.
 *
 *-------------------------------------------------------------------------
 */

package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

/* ErrNotFound is returned when a key does not exist */
var ErrNotFound = errors.New("file not found")

/* FileInfo describes a stored object */
type FileInfo struct {
	Key         string    `json:"Key"`
	Name        string    `json:"Name,omitempty"`
	Size        int64     `json:"Size"`
	ContentType string    `json:"ContentType"`
	ModifiedAt  time.Time `json:"ModifiedAt"`
}

/* FileStorage is implemented by every file storage provider */
type FileStorage interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*FileInfo, error)
	Download(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Provider() string
}
