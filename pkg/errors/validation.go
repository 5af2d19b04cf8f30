package errors

import (
	"strings"
	"unicode"
)

// maxNameLength caps folder names well above every real filesystem limit.
const maxNameLength = 255

// ValidateFolderName validates a folder name before it touches the filesystem.
// It rejects names that could escape the parent directory or that no
// filesystem would accept.
//
// The validation rules are intentionally conservative:
//   - No empty names (after trimming whitespace)
//   - No path separators (forward or backward slash)
//   - No path traversal sequences ("." and "..")
//   - No control characters or null bytes
//   - Maximum length of 255 bytes
func ValidateFolderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "folder name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "folder name too long (max %d bytes)", maxNameLength)
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidName, "folder name cannot be %q", name)
	}

	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidName, "folder name cannot contain path separators")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "folder name contains invalid control characters")
		}
	}

	return nil
}
