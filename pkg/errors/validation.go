package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxSlugLength bounds template ids so they stay usable as file names and keys.
const maxSlugLength = 128

// slugRegex matches lowercase identifiers such as "modern-blue" or "exec_2024".
var slugRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9_-]*[a-z0-9])?$`)

// ValidateSlug validates a template identifier.
// Slugs double as file and cache key components, so the rules are conservative:
//   - No empty ids
//   - Maximum length of 128 characters
//   - No control characters or path separators
//   - Lowercase letters, digits, '-' and '_' only, starting and ending alphanumeric
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidSlug, "id cannot be empty")
	}

	if len(slug) > maxSlugLength {
		return New(ErrCodeInvalidSlug, "id too long (max %d characters)", maxSlugLength)
	}

	for _, r := range slug {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSlug, "id contains invalid control characters")
		}
	}

	if strings.ContainsAny(slug, `/\`) || strings.Contains(slug, "..") {
		return New(ErrCodeInvalidSlug, "id cannot contain path separators or traversal sequences")
	}

	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidSlug, "invalid id %q (lowercase letters, digits, '-' and '_' only)", slug)
	}

	return nil
}

// ValidatePath validates a local input path given on the command line or in config.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
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

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a scheme the backing drivers understand.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
