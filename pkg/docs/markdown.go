package docs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/protobuf"
	"github.com/platinummonkey/protodoc/pkg/resolver"
)

// LinkResolver turns a qualified type name into a link target relative to
// the page being rendered
type LinkResolver interface {
	RelativeLink(typeRef, currentOutputPath, outputRoot string) (string, bool)
}

// MarkdownRenderer renders an extracted proto file as a Markdown page
type MarkdownRenderer struct {
	links LinkResolver
}

// NewMarkdownRenderer creates a new Markdown renderer. With a nil
// LinkResolver every type is rendered as inline code.
func NewMarkdownRenderer(links LinkResolver) *MarkdownRenderer {
	return &MarkdownRenderer{links: links}
}

// Render renders one file. currentOutputPath is where the page will be
// written and outputRoot is the root of all generated pages; both are used
// to compute relative links.
func (r *MarkdownRenderer) Render(filename string, infos *protobuf.ExtractedInfos, currentOutputPath, outputRoot string) string {
	var b strings.Builder

	// Title
	b.WriteString(fmt.Sprintf("# Protocol Documentation: %s\n\n", filename))
	if infos == nil {
		return b.String()
	}

	if infos.Package != "" {
		b.WriteString(fmt.Sprintf("## Package: `%s`\n\n", infos.Package))
	}

	if len(infos.Imports) > 0 {
		b.WriteString("## Imports\n\n")
		for _, imp := range infos.Imports {
			b.WriteString(fmt.Sprintf("- `%s`\n", imp))
		}
		b.WriteString("\n")
	}

	pc := pageContext{current: currentOutputPath, root: outputRoot}

	// Messages keep declaration order
	if len(infos.Messages) > 0 {
		b.WriteString("## Messages\n\n")
		for _, msg := range infos.Messages {
			b.WriteString(fmt.Sprintf("### %s\n\n", msg.Name))
			r.writeMessage(&b, msg, pc)
		}
	}

	if len(infos.Enums) > 0 {
		b.WriteString("## Enums\n\n")
		for _, enum := range sortedEnums(infos.Enums) {
			r.writeEnum(&b, enum)
		}
	}

	if len(infos.Services) > 0 {
		b.WriteString("## Services\n\n")
		for _, svc := range sortedServices(infos.Services) {
			r.writeService(&b, svc, pc)
		}
	}

	return b.String()
}

type pageContext struct {
	current string
	root    string
}

// writeMessage writes a message body: comment, field table, then its
// nested messages sorted by name
func (r *MarkdownRenderer) writeMessage(b *strings.Builder, msg *protobuf.Message, pc pageContext) {
	if msg.Comment != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", msg.Comment))
	}

	if len(msg.Fields) > 0 {
		b.WriteString("| Field | Type | Number | Description |\n")
		b.WriteString("|-------|------|--------|-------------|\n")
		for _, field := range msg.Fields {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				field.Name, r.fieldType(field.Type, pc), field.Number, tableText(field.Description)))
		}
		b.WriteString("\n")
	}

	nested := make([]*protobuf.Message, len(msg.Nested))
	copy(nested, msg.Nested)
	sort.SliceStable(nested, func(i, j int) bool { return nested[i].Name < nested[j].Name })

	for _, inner := range nested {
		b.WriteString(fmt.Sprintf("#### %s (nested in %s)\n\n", inner.Name, msg.Name))
		r.writeMessage(b, inner, pc)
	}
}

// writeEnum writes an enum and its values in declaration order
func (r *MarkdownRenderer) writeEnum(b *strings.Builder, enum *protobuf.Enum) {
	b.WriteString(fmt.Sprintf("### %s\n\n", enum.Name))

	if enum.Comment != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", enum.Comment))
	}

	if len(enum.Values) > 0 {
		b.WriteString("| Name | Number | Description |\n")
		b.WriteString("|------|--------|-------------|\n")
		for _, value := range enum.Values {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				value.Name, value.Number, tableText(value.Description)))
		}
		b.WriteString("\n")
	}
}

// writeService writes a service and its methods in declaration order
func (r *MarkdownRenderer) writeService(b *strings.Builder, svc *protobuf.Service, pc pageContext) {
	b.WriteString(fmt.Sprintf("### %s\n\n", svc.Name))

	if svc.Comment != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", svc.Comment))
	}

	if len(svc.Methods) > 0 {
		b.WriteString("| Method | Request | Response | Description |\n")
		b.WriteString("|--------|---------|----------|-------------|\n")
		for _, method := range svc.Methods {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				method.Name,
				r.rpcType(method.Request, method.ClientStreaming, pc),
				r.rpcType(method.Response, method.ServerStreaming, pc),
				tableText(method.Description)))
		}
		b.WriteString("\n")
	}
}

// fieldType links the core type of a field while keeping its label, e.g.
// "repeated [Timestamp](../common.md)". Anything that does not resolve is
// rendered whole as inline code.
func (r *MarkdownRenderer) fieldType(fieldType string, pc pageContext) string {
	modifier, core := protobuf.SplitModifier(fieldType)
	if !protobuf.IsScalarType(core) && strings.Contains(core, ".") {
		if rel, ok := r.relativeLink(core, pc); ok {
			link := fmt.Sprintf("[%s](%s)", resolver.SimpleName(core), rel)
			if modifier == "" {
				return link
			}
			return modifier + " " + link
		}
	}
	return fmt.Sprintf("`%s`", fieldType)
}

// rpcType renders a request or response type, prefixed with "stream" for
// streaming parameters
func (r *MarkdownRenderer) rpcType(typeName string, streaming bool, pc pageContext) string {
	rendered := fmt.Sprintf("`%s`", typeName)
	if !protobuf.IsScalarType(typeName) && strings.Contains(typeName, ".") {
		if rel, ok := r.relativeLink(typeName, pc); ok {
			rendered = fmt.Sprintf("[`%s`](%s)", resolver.SimpleName(typeName), rel)
		}
	}
	if streaming {
		return "stream " + rendered
	}
	return rendered
}

func (r *MarkdownRenderer) relativeLink(typeRef string, pc pageContext) (string, bool) {
	if r.links == nil || pc.current == "" {
		return "", false
	}
	return r.links.RelativeLink(typeRef, pc.current, pc.root)
}

// tableText makes a description safe for a table cell
func tableText(desc string) string {
	desc = strings.ReplaceAll(desc, "|", `\|`)
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	desc = strings.ReplaceAll(desc, "\n\n", "<br><br>")
	return strings.ReplaceAll(desc, "\n", "<br>")
}

func sortedEnums(enums []*protobuf.Enum) []*protobuf.Enum {
	sorted := make([]*protobuf.Enum, len(enums))
	copy(sorted, enums)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

func sortedServices(services []*protobuf.Service) []*protobuf.Service {
	sorted := make([]*protobuf.Service, len(services))
	copy(sorted, services)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}
