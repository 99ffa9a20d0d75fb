package value

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/datagrid/internal/ir"
)

// Mask selects which UUIDs a UUID validator accepts.
type Mask string

const (
	MaskValid Mask = "valid" // any 8-4-4-4-12 hex string
	MaskNil   Mask = "nil"   // only the all-zero UUID
	MaskV1    Mask = "v1"
	MaskV2    Mask = "v2"
	MaskV3    Mask = "v3"
	MaskV4    Mask = "v4"
	MaskV5    Mask = "v5"
)

// NilUUID is the RFC 4122 nil UUID (all 128 bits zero).
const NilUUID = "00000000-0000-0000-0000-000000000000"

var (
	canonicalUUID = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	maskVersions = map[Mask]uuid.Version{
		MaskV1: 1,
		MaskV2: 2,
		MaskV3: 3,
		MaskV4: 4,
		MaskV5: 5,
	}
)

// UUID accepts UUID strings matching a mask. The prefixes "urn:" and "uuid:"
// and curly braces are stripped before the shape check.
type UUID struct {
	mask Mask
}

// NewUUID creates a UUID validator. The mask is case-insensitive; anything
// other than valid, nil or v1..v5 fails with ErrInvalidArgument.
func NewUUID(mask string) (UUID, error) {
	m := Mask(strings.ToLower(mask))
	if m != MaskValid && m != MaskNil {
		if _, ok := maskVersions[m]; !ok {
			return UUID{}, fmt.Errorf("%w: unknown UUID mask %q (want valid, nil or v1..v5)", ErrInvalidArgument, mask)
		}
	}
	return UUID{mask: m}, nil
}

// MustUUID is like NewUUID but panics on an unknown mask.
// Intended for package-level validator declarations.
func MustUUID(mask string) UUID {
	v, err := NewUUID(mask)
	if err != nil {
		panic(err)
	}
	return v
}

// Mask returns the configured mask.
func (u UUID) Mask() Mask { return u.mask }

func (u UUID) Accepts(raw ir.IRValue) bool {
	str, ok := raw.(ir.IRString)
	if !ok {
		return false
	}
	id := stripUUID(string(str))

	switch u.mask {
	case MaskNil:
		return id == NilUUID
	case MaskValid:
		return canonicalUUID.MatchString(id)
	}

	want, ok := maskVersions[u.mask]
	if !ok || !canonicalUUID.MatchString(id) {
		return false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Version() == want && parsed.Variant() == uuid.RFC4122
}

func (UUID) Convert(raw ir.IRValue) ir.IRValue {
	str, _ := raw.(ir.IRString)
	return str
}

// stripUUID removes URN prefixes and braces, applied in sequence.
func stripUUID(s string) string {
	for _, token := range []string{"urn:", "uuid:", "{", "}"} {
		s = strings.ReplaceAll(s, token, "")
	}
	return s
}
