package spec

import "fmt"

// Limit caps the number of rows returned.
type Limit struct {
	N int
}

// Offset skips the first N rows.
type Offset struct {
	N int
}

func (Limit) specification()  {}
func (Offset) specification() {}

// NewLimit creates a Limit. n must be non-negative.
func NewLimit(n int) (Limit, error) {
	if n < 0 {
		return Limit{}, fmt.Errorf("limit must be non-negative, got %d", n)
	}
	return Limit{N: n}, nil
}

// NewOffset creates an Offset. n must be non-negative.
func NewOffset(n int) (Offset, error) {
	if n < 0 {
		return Offset{}, fmt.Errorf("offset must be non-negative, got %d", n)
	}
	return Offset{N: n}, nil
}
