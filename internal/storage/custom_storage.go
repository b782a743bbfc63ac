/*-------------------------------------------------------------------------
 *
 * custom_storage.go
 *    Filesystem file storage provider
 *
 * Stores each object under a root directory with a JSON metadata sidecar
 * (<key>.meta.json) holding its content type and size.
 *
 *-------------------------------------------------------------------------
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

const metaSuffix = validation.ReservedKeySuffix

/* CustomStorage implements FileStorage on the local filesystem */
type CustomStorage struct {
	root string
}

/* NewCustomStorage creates the root directory if needed */
func NewCustomStorage(root string) (*CustomStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("custom storage requires a root directory")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", abs, err)
	}
	return &CustomStorage{root: abs}, nil
}

/* Provider returns the provider name */
func (c *CustomStorage) Provider() string { return config.StorageProviderCustom }

/* Root returns the storage directory */
func (c *CustomStorage) Root() string { return c.root }

func (c *CustomStorage) path(key string) (string, error) {
	p := filepath.Join(c.root, filepath.FromSlash(key))
	if p != c.root && !strings.HasPrefix(p, c.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	if strings.HasSuffix(p, metaSuffix) {
		return "", fmt.Errorf("key %q uses a reserved suffix", key)
	}
	return p, nil
}

/* Upload writes r to key, replacing any existing object */
func (c *CustomStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file for %s: %w", key, err)
	}
	written, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write %s: %w", key, errors.Join(copyErr, closeErr))
	}
	if size >= 0 && written != size {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("short write for %s: got %d of %d bytes", key, written, size)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store %s: %w", key, err)
	}

	info := &FileInfo{
		Key:         key,
		Size:        written,
		ContentType: contentType,
		ModifiedAt:  time.Now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(p+metaSuffix, meta, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write metadata for %s: %w", key, err)
	}
	return info, nil
}

/* Download opens key for reading; callers close the reader */
func (c *CustomStorage) Download(ctx context.Context, key string) (io.ReadCloser, *FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	p, err := c.path(key)
	if err != nil {
		return nil, nil, err
	}
	info, err := c.stat(key, p)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, info, nil
}

/* Delete removes key and its metadata */
func (c *CustomStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	_ = os.Remove(p + metaSuffix)
	return nil
}

/* Exists checks whether key is present */
func (c *CustomStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := c.path(key)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !st.IsDir(), nil
}

func (c *CustomStorage) stat(key, p string) (*FileInfo, error) {
	st, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if st.IsDir() {
		return nil, ErrNotFound
	}

	info := &FileInfo{Key: key, Size: st.Size(), ModifiedAt: st.ModTime().UTC()}
	if b, err := os.ReadFile(p + metaSuffix); err == nil {
		var meta FileInfo
		if json.Unmarshal(b, &meta) == nil {
			info.ContentType = meta.ContentType
		}
	}
	if info.ContentType == "" {
		info.ContentType = "application/octet-stream"
	}
	return info, nil
}
