package graph

import (
	"fmt"
	"strings"
)

// Flags describe what callers may do with a node besides reading it.
type Flags uint8

const (
	ReadOnly     Flags = 0x0
	Overlayable  Flags = 0x1
	Settable     Flags = 0x3 // implies Overlayable
	Serializable Flags = 0x4
	Stored             = Settable | Serializable
)

// Has reports whether every bit of mask is set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

func (f Flags) String() string {
	switch {
	case f.Has(Stored):
		return "stored"
	case f.Has(Settable):
		return "settable"
	}
	var parts []string
	if f.Has(Overlayable) {
		parts = append(parts, "overlayable")
	}
	if f.Has(Serializable) {
		parts = append(parts, "serializable")
	}
	if len(parts) == 0 {
		return "readonly"
	}
	return strings.Join(parts, "|")
}

// ParseFlags combines flag names such as "settable" or "stored" into Flags.
func ParseFlags(names ...string) (Flags, error) {
	var f Flags
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "readonly", "read-only":
		case "overlayable":
			f |= Overlayable
		case "settable":
			f |= Settable
		case "serializable":
			f |= Serializable
		case "stored":
			f |= Stored
		default:
			return 0, fmt.Errorf("graph: unknown flag %q", name)
		}
	}
	return f, nil
}
