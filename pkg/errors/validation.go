package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateIdentifier validates a topology identifier (node, link or TP id).
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "%s id too long (max 256 characters)", kind)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}

	return nil
}

// networkNameRegex matches names usable as store keys and file names.
var networkNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateNetworkName validates a topology network name such as
// "openroadm-topology". Network names become file names and database keys,
// so path separators and traversal sequences are rejected.
func ValidateNetworkName(name string) error {
	if err := ValidateIdentifier("network", name); err != nil {
		return err
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "network name cannot contain path traversal sequences (..)")
	}

	if !networkNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid network name: %q", name)
	}

	return nil
}
