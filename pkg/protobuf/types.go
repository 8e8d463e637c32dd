package protobuf

import "fmt"

// MessageField represents a single field declaration inside a message
type MessageField struct {
	Name        string
	Type        string // may carry a leading optional/required/repeated token
	Number      string
	Options     string
	Description string
}

// Modifier returns the field label (repeated, optional, required) or ""
func (f *MessageField) Modifier() string {
	modifier, _ := SplitModifier(f.Type)
	return modifier
}

// CoreType returns the field type without its label
func (f *MessageField) CoreType() string {
	_, core := SplitModifier(f.Type)
	return core
}

// Message represents a message block. Nested holds the immediate nested
// messages only; deeper levels are not modeled.
type Message struct {
	Name    string
	Body    string
	Nested  []*Message
	Fields  []*MessageField
	Comment string
}

// EnumValue represents one value of an enum
type EnumValue struct {
	Name        string
	Number      string
	Options     string
	Description string
}

// Enum represents an enum block
type Enum struct {
	Name    string
	Body    string
	Values  []*EnumValue
	Comment string

	// Parent is the enclosing top-level message name for enums declared
	// inside a message, empty for top-level enums.
	Parent string
}

// ServiceMethod represents an rpc declaration
type ServiceMethod struct {
	Name            string
	Request         string
	Response        string
	ClientStreaming bool
	ServerStreaming bool
	Options         string
	Description     string
}

// Service represents a service block
type Service struct {
	Name    string
	Body    string
	Methods []*ServiceMethod
	Comment string
}

// ExtractedInfos holds everything extracted from one proto file
type ExtractedInfos struct {
	Package  string
	Imports  []string
	Messages []*Message
	Enums    []*Enum
	Services []*Service
}

// TopLevelNames returns the names of every message, enum and service
// declared at the top level of the file, in declaration order per kind.
func (e *ExtractedInfos) TopLevelNames() []string {
	names := make([]string, 0, len(e.Messages)+len(e.Enums)+len(e.Services))
	for _, msg := range e.Messages {
		names = append(names, msg.Name)
	}
	for _, enum := range e.Enums {
		if enum.Parent == "" {
			names = append(names, enum.Name)
		}
	}
	for _, svc := range e.Services {
		names = append(names, svc.Name)
	}
	return names
}

// Summary returns a one-line summary of the extracted file
func (e *ExtractedInfos) Summary() string {
	return fmt.Sprintf("Package: %s, Messages: %d, Enums: %d, Services: %d",
		e.Package, len(e.Messages), len(e.Enums), len(e.Services))
}
