// Package protobuf recovers a document model from protobuf definition text.
//
// # Overview
//
// Extraction is pattern based rather than grammar based. Extract scans one
// file and returns an ExtractedInfos holding the package name, imports,
// top-level messages (with one level of nested messages), enums and
// services. Malformed or unsupported constructs are skipped, never reported.
//
// # Descriptions
//
// Fields, enum values and rpc methods pick their description from, in
// order of precedence:
//
//   - a /** ... */ block directly above the declaration
//   - consecutive // lines directly above the declaration
//   - a trailing // comment on the declaration line
//
// Block and line comments keep paragraph breaks as "\n\n". Message, enum and
// service comments come from the first /** ... */ block inside their body
// and are flattened to one line.
//
// # Usage Example
//
//	infos := protobuf.Extract(string(content))
//	for _, msg := range infos.Messages {
//		fmt.Println(msg.Name, len(msg.Fields))
//	}
package protobuf
