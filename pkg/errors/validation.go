package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePageID validates a page identifier taken from a content file or a
// request. Page ids become path components, so the rules reject anything that
// could escape the document directory:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidatePageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPageID, "page id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidPageID, "page id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPageID, "page id contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidPageID, "page id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateDocumentID validates a document identifier. It follows the page id
// rules since both end up in file names.
func ValidateDocumentID(id string) error {
	if err := ValidatePageID(id); err != nil {
		return New(ErrCodeInvalidInput, "invalid document id: %s", UserMessage(err))
	}
	return nil
}

// templateNameRegex matches template names as written by the device,
// e.g. "P Lines medium" or "LS Grid margin large".
var templateNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.,()&+-]*$`)

// ValidateTemplateName validates a template name before it is turned into a
// file name inside the template directory.
func ValidateTemplateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "template name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "template name too long (max 128 characters)")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "template name cannot contain path traversal sequences (..)")
	}

	if !templateNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid template name: %q", name)
	}

	return nil
}

// ValidatePath validates a relative path inside a document source.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
