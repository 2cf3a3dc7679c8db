package models

import "strings"

// NameType classifies the naming convention of an IUPAC name property.
type NameType string

// Name-types PubChem attaches to "IUPAC Name" properties.
const (
	NameTraditional NameType = "Traditional"
	NamePreferred   NameType = "Preferred"
	NameSystematic  NameType = "Systematic"
	NameCASLike     NameType = "CAS-like Style"
	NameAllowed     NameType = "Allowed"
)

// IUPACNameLabel is the property label that denotes a canonical chemical
// designation.
const IUPACNameLabel = "IUPAC Name"

// DefaultNamePriority returns the priority used when callers pass none.
func DefaultNamePriority() []NameType {
	return []NameType{NameTraditional, NamePreferred}
}

// Matches compares the name-type against a raw urn name, ignoring case.
func (n NameType) Matches(name string) bool {
	return name != "" && strings.EqualFold(string(n), name)
}

// ParseNameTypes splits a comma-separated list such as "traditional,preferred".
// Known types are normalised to their canonical spelling; unknown entries are
// kept verbatim since matching is case-insensitive anyway.
func ParseNameTypes(csv string) []NameType {
	known := []NameType{NameTraditional, NamePreferred, NameSystematic, NameCASLike, NameAllowed}
	var out []NameType
	for _, raw := range strings.Split(csv, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		nt := NameType(raw)
		for _, k := range known {
			if k.Matches(raw) {
				nt = k
				break
			}
		}
		out = append(out, nt)
	}
	return out
}
