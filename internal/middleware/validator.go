package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}

	// Allow alphanumeric, dash, underscore (max 64 chars)
	pattern := `^[a-zA-Z0-9_-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, tenant)
	if !matched {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}

	return nil
}

// ValidateFileHash validates a SHA-256 content hash in hex form
func ValidateFileHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("file hash cannot be empty")
	}

	pattern := `^[a-f0-9]{64}$`
	matched, _ := regexp.MatchString(pattern, strings.ToLower(hash))
	if !matched {
		return fmt.Errorf("invalid file hash format (expected 64 hex characters)")
	}

	return nil
}

// ValidateFileName rejects names with traversal or control characters
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("file name too long (max 255 characters)")
	}

	dangerous := []string{"../", "..\\", "\x00", "\n", "\r"}
	for _, d := range dangerous {
		if strings.Contains(name, d) {
			return fmt.Errorf("invalid characters in file name")
		}
	}

	return nil
}

// ValidateVersion validates a version path parameter
func ValidateVersion(version int) error {
	if version < 1 {
		return fmt.Errorf("version must be a positive integer")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50 // default
	}
	if limit > 200 {
		return 200 // max limit
	}
	return limit
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
