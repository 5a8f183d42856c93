// Preview filters: identifiers, shader sources and color matrices
package filters

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFilter is returned when a name or ID does not match a filter
var ErrUnknownFilter = errors.New("unknown filter")

// ID identifies a preview filter. The numeric value is the filter's
// position in Ordered.
type ID int

const (
	Identity ID = iota
	Grayscale
	ColorInvert
	Sepia
)

// Variant is one selectable filter
type Variant struct {
	ID             ID
	Name           string
	FragmentShader string
	Matrix         ColorMatrix
}

var ordered = []Variant{
	{ID: Identity, Name: "identity", FragmentShader: identityFragmentShader, Matrix: identityMatrix},
	{ID: Grayscale, Name: "grayscale", FragmentShader: grayscaleFragmentShader, Matrix: grayscaleMatrix},
	{ID: ColorInvert, Name: "invert", FragmentShader: invertFragmentShader, Matrix: invertMatrix},
	{ID: Sepia, Name: "sepia", FragmentShader: sepiaFragmentShader, Matrix: sepiaMatrix},
}

// older names accepted by ParseID
var legacyNames = map[string]ID{
	"none":     Identity,
	"bw":       Grayscale,
	"negative": ColorInvert,
}

// Ordered returns the filter variants in thumbnail order
func Ordered() []Variant {
	out := make([]Variant, len(ordered))
	copy(out, ordered)
	return out
}

// IDs returns the filter identifiers in thumbnail order
func IDs() []ID {
	ids := make([]ID, len(ordered))
	for i, v := range ordered {
		ids[i] = v.ID
	}
	return ids
}

// Lookup returns the variant for id
func Lookup(id ID) (Variant, bool) {
	if id < 0 || int(id) >= len(ordered) {
		return Variant{}, false
	}
	return ordered[id], true
}

func (id ID) String() string {
	if v, ok := Lookup(id); ok {
		return v.Name
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// Valid reports whether id names a known filter
func (id ID) Valid() bool {
	_, ok := Lookup(id)
	return ok
}

// ParseID resolves a canonical or legacy filter name
func ParseID(name string) (ID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range ordered {
		if v.Name == name {
			return v.ID, nil
		}
	}
	if id, ok := legacyNames[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

// MarshalText implements encoding.TextMarshaler
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFilter, int(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
