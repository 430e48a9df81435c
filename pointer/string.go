package pointer

// FromAny returns a pointer to the given value. Useful for filling
// optional struct fields from literals.
func FromAny[T any](v T) *T {
	return &v
}

// ToString dereferences p, treating nil as the empty string.
func ToString(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}
