package models

// NewNullString is a helper for string pointers, returning nil if the string
// is empty. Useful for optional fields that should be NULL in the database.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
