package backend

import (
	"slices"

	"wastedash/internal/config"
)

// Type names a data backend.
type Type string

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is one of config.Backends.
func (t Type) IsValid() bool {
	return slices.Contains(config.Backends, string(t))
}

// Types returns every valid backend type.
func Types() []Type {
	out := make([]Type, len(config.Backends))
	for i, b := range config.Backends {
		out[i] = Type(b)
	}
	return out
}
