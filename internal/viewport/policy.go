package viewport

import (
	"fmt"
	"strings"
)

// FitPolicy selects how the frame aspect is reconciled with the view aspect
type FitPolicy int

const (
	// StretchFit fills the view, distorting the frame if aspects differ
	StretchFit FitPolicy = iota
	// KeepAspectViewport shrinks the viewport to the frame aspect and centers it
	KeepAspectViewport
	// KeepAspect letterboxes the frame inside the full view
	KeepAspect
	// CropCenter scales the frame to cover the view and clips the overflow
	CropCenter
	// Square draws into a square viewport inscribed in the view
	Square
)

var policyNames = map[FitPolicy]string{
	StretchFit:         "stretch",
	KeepAspectViewport: "keep-aspect-viewport",
	KeepAspect:         "keep-aspect",
	CropCenter:         "crop-center",
	Square:             "square",
}

// Policies returns every policy in declaration order
func Policies() []FitPolicy {
	return []FitPolicy{StretchFit, KeepAspectViewport, KeepAspect, CropCenter, Square}
}

func (p FitPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("FitPolicy(%d)", int(p))
}

// ParseFitPolicy resolves a policy name as returned by String
func ParseFitPolicy(name string) (FitPolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// MarshalText implements encoding.TextMarshaler
func (p FitPolicy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *FitPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseFitPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
