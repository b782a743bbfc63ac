package validation

import (
	"path"
	"strings"
)

// ReservedKeySuffix marks metadata sidecars written by the local file storage
const ReservedKeySuffix = ".meta.json"

/* ValidateStorageKey validates an object key used by the file storage providers */
func ValidateStorageKey(key, fieldName string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return NewValidationError(fieldName, "is required")
	}

	/* Check for null bytes */
	if strings.Contains(key, "\x00") {
		return NewValidationError(fieldName, "contains null byte")
	}

	/* Keys are always relative */
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return NewValidationError(fieldName, "must be relative")
	}

	/* Check for path traversal attempts */
	for _, part := range strings.Split(strings.ReplaceAll(key, "\\", "/"), "/") {
		if part == ".." {
			return NewValidationError(fieldName, "contains path traversal")
		}
	}

	if len(key) > 1024 {
		return NewValidationError(fieldName, "must be at most 1024 characters")
	}

	if strings.HasSuffix(CleanStorageKey(key), ReservedKeySuffix) {
		return NewValidationError(fieldName, "uses a reserved suffix")
	}
	return nil
}

/* CleanStorageKey normalizes a validated key */
func CleanStorageKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
}
