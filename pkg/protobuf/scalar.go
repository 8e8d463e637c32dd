package protobuf

import "strings"

// Field labels that may prefix a field type
const (
	ModifierRepeated = "repeated"
	ModifierOptional = "optional"
	ModifierRequired = "required"
)

var scalarTypes = map[string]struct{}{
	"double":   {},
	"float":    {},
	"int32":    {},
	"int64":    {},
	"uint32":   {},
	"uint64":   {},
	"sint32":   {},
	"sint64":   {},
	"fixed32":  {},
	"fixed64":  {},
	"sfixed32": {},
	"sfixed64": {},
	"bool":     {},
	"string":   {},
	"bytes":    {},
}

// IsScalarType reports whether t is one of the protobuf scalar value types.
// The comparison is case-insensitive.
func IsScalarType(t string) bool {
	_, ok := scalarTypes[strings.ToLower(strings.TrimSpace(t))]
	return ok
}

// SplitModifier splits a field type string into its leading label and the
// core type. Only a whole leading token counts as a label, so a type such as
// "repeatedThing" is returned unchanged.
func SplitModifier(fieldType string) (modifier, core string) {
	trimmed := strings.TrimSpace(fieldType)
	for _, m := range []string{ModifierRepeated, ModifierOptional, ModifierRequired} {
		rest, ok := strings.CutPrefix(trimmed, m)
		if !ok || rest == "" {
			continue
		}
		if rest[0] == ' ' || rest[0] == '\t' {
			return m, strings.TrimSpace(rest)
		}
	}
	return "", trimmed
}
