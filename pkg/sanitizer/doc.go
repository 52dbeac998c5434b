// Package sanitizer normalizes free-text input before it reaches
// validation, persistence, or query construction. Keyword sanitization
// exists because user-supplied search terms end up inside MongoDB regex
// filters and must never be interpreted as patterns.
package sanitizer
