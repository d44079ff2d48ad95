package types

import "fmt"

// AttributeKind selects how a warehouse field is coerced before it is stored
type AttributeKind string

const (
	AttributeKindInteger     AttributeKind = "integer"
	AttributeKindTimestamp   AttributeKind = "timestamp"
	AttributeKindJSON        AttributeKind = "json"
	AttributeKindBoolean     AttributeKind = "boolean"
	AttributeKindPassthrough AttributeKind = "passthrough"
)

// AllAttributeKinds returns all valid attribute kinds
func AllAttributeKinds() []AttributeKind {
	return []AttributeKind{
		AttributeKindInteger,
		AttributeKindTimestamp,
		AttributeKindJSON,
		AttributeKindBoolean,
		AttributeKindPassthrough,
	}
}

// IsValid checks if the attribute kind is valid
func (k AttributeKind) IsValid() bool {
	switch k {
	case AttributeKindInteger,
		AttributeKindTimestamp,
		AttributeKindJSON,
		AttributeKindBoolean,
		AttributeKindPassthrough:
		return true
	default:
		return false
	}
}

// String returns the string representation of the attribute kind
func (k AttributeKind) String() string {
	return string(k)
}

// ParseAttributeKind parses a string into an AttributeKind
func ParseAttributeKind(s string) (AttributeKind, error) {
	kind := AttributeKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid attribute kind: %s", s)
	}
	return kind, nil
}
