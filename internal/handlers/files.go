package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronFlow/internal/injector"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/response"
	"github.com/neurondb/NeuronFlow/internal/storage"
	"github.com/neurondb/NeuronFlow/internal/validation"
)

/* UploadTempPattern names spooled uploads inside the temp folder */
const UploadTempPattern = "neuronflow-upload-*"

// FileHandlers handles file endpoints backed by the FileStorage capability
type FileHandlers struct {
	container *injector.Container
	tempDir   string
	maxBytes  int64
	logger    *logging.Logger
}

// NewFileHandlers creates new file handlers
func NewFileHandlers(container *injector.Container, tempDir string, maxBytes int64, logger *logging.Logger) *FileHandlers {
	return &FileHandlers{container: container, tempDir: tempDir, maxBytes: maxBytes, logger: logger}
}

type fileData struct {
	File *storage.FileInfo `json:"File"`
}

func (h *FileHandlers) fileStorage() (storage.FileStorage, error) {
	fs, err := injector.ResolveAs[storage.FileStorage](h.container, injector.CapabilityFileStorage)
	if err != nil {
		return nil, capabilityUnavailable(injector.CapabilityFileStorage, err)
	}
	return fs, nil
}

/*
 * Upload handles POST /files. The "file" part of a multipart body is
 * spooled to the temp folder so the provider receives an exact size.
 * The object key comes from ?key= or defaults to <uuid>/<filename>.
 */
func (h *FileHandlers) Upload(w http.ResponseWriter, r *http.Request) error {
	fs, err := h.fileStorage()
	if err != nil {
		return err
	}

	key := r.URL.Query().Get("key")
	if key != "" {
		if err := validation.ValidateStorageKey(key, "key"); err != nil {
			return err
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		return validation.NewValidationError("body", "must be multipart/form-data")
	}

	part, err := nextFilePart(reader)
	if err != nil {
		return err
	}
	defer part.Close()

	if key == "" {
		name := path.Base(part.FileName())
		if name == "." || name == "/" {
			name = "upload"
		}
		key = uuid.New().String() + "/" + name
		if err := validation.ValidateStorageKey(key, "file"); err != nil {
			return err
		}
	}
	key = validation.CleanStorageKey(key)

	spool, err := os.CreateTemp(h.tempDir, UploadTempPattern)
	if err != nil {
		return fmt.Errorf("failed to create upload spool: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, part)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload spool: %w", err)
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := fs.Upload(r.Context(), key, spool, size, contentType)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	info.Name = part.FileName()

	h.logger.Info("File uploaded", map[string]interface{}{
		"key":      key,
		"size":     size,
		"provider": fs.Provider(),
	})
	response.WriteSuccess(w, r, http.StatusCreated, "File uploaded", fileData{File: info})
	return nil
}

func nextFilePart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, validation.NewValidationError("file", "is required")
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return nil, err
			}
			return nil, validation.NewValidationError("body", "malformed multipart body")
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

func fileKey(r *http.Request) (string, error) {
	key := mux.Vars(r)["key"]
	if err := validation.ValidateStorageKey(key, "key"); err != nil {
		return "", err
	}
	return validation.CleanStorageKey(key), nil
}

// Download handles GET /files/{key}
func (h *FileHandlers) Download(w http.ResponseWriter, r *http.Request) error {
	fs, err := h.fileStorage()
	if err != nil {
		return err
	}
	key, err := fileKey(r)
	if err != nil {
		return err
	}

	body, info, err := fs.Download(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return &NotFoundError{Entity: "file", ID: key}
	}
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer body.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("File download interrupted", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return nil
}

// Delete handles DELETE /files/{key}
func (h *FileHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	fs, err := h.fileStorage()
	if err != nil {
		return err
	}
	key, err := fileKey(r)
	if err != nil {
		return err
	}

	exists, err := fs.Exists(r.Context(), key)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists {
		if err := fs.Delete(r.Context(), key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}

	message := "File deleted"
	if !exists {
		message = "File did not exist"
	}
	response.WriteSuccess(w, r, http.StatusOK, message, deletedData{Deleted: exists})
	return nil
}
