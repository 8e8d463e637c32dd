package protobuf

import (
	"regexp"
	"strings"
)

// Patterns used by the extractor. Message bodies tolerate two levels of
// nested brace groups and enum bodies are single level. Service bodies and
// rpc option blocks are closed by brace matching instead, since http
// options routinely carry {param} templates.
const (
	blockCommentPattern = `/\*\*((?:[^*]|\*+[^*/])*)\*+/`
	dottedIdentPattern  = `\.?\w+(?:\.\w+)*`
	nestedBodyPattern   = `([^{}]*(?:\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}[^{}]*)*)`
	inlineCommentSuffix = `(?:[ \t]*//[ \t]*(.*))?`
)

var (
	packageRe      = regexp.MustCompile(`\bpackage\s+([\w.]+)\s*;`)
	importRe       = regexp.MustCompile(`\bimport\s+(?:(?:public|weak)\s+)?"([^"]+)"\s*;`)
	messageRe      = regexp.MustCompile(`\bmessage\s+(\w+)\s*\{` + nestedBodyPattern + `\}`)
	cleanNestedRe  = regexp.MustCompile(`(?:` + blockCommentPattern + `\s*)?\b(?:message|enum)\s+\w+\s*\{[^}]*\}`)
	enumRe         = regexp.MustCompile(`\benum\s+(\w+)\s*\{([^}]*)\}`)
	serviceRe      = regexp.MustCompile(`\bservice\s+(\w+)\s*\{`)
	blockCommentRe = regexp.MustCompile(blockCommentPattern)

	fieldRe = regexp.MustCompile(
		`(?:(optional|required|repeated)\s+)?(` + dottedIdentPattern + `)\s+(\w+)\s*=\s*(\d+)` +
			`(?:\s*\[([^\]]*)\])?\s*;` + inlineCommentSuffix)
	fieldBlockCommentRe = regexp.MustCompile(
		blockCommentPattern + `\s*(?:(?:optional|required|repeated)\s+)?` + dottedIdentPattern + `\s+(\w+)\s*=`)

	enumValueRe = regexp.MustCompile(
		`\b([A-Za-z_]\w*)\s*=\s*(-?(?:0[xX][0-9a-fA-F]+|\d+))(?:\s*\[([^\]]*)\])?\s*;` + inlineCommentSuffix)
	enumValueBlockCommentRe = regexp.MustCompile(blockCommentPattern + `\s*([A-Za-z_]\w*)\s*=`)

	methodRe = regexp.MustCompile(
		`\brpc\s+(\w+)\s*\(\s*(stream\s+)?(` + dottedIdentPattern + `)\s*\)\s*returns\s*\(\s*(stream\s+)?(` +
			dottedIdentPattern + `)\s*\)`)
	methodBlockCommentRe = regexp.MustCompile(blockCommentPattern + `\s*rpc\s+(\w+)`)
	inlineCommentRe      = regexp.MustCompile(`^[ \t]*//[ \t]*(.*)`)

	lineAssignRe = regexp.MustCompile(`(\w+)\s*=`)
	lineRPCRe    = regexp.MustCompile(`\brpc\s+(\w+)`)
)

// Extract recovers the document model from the text of one proto file.
// It never fails: constructs that do not match are left out.
func Extract(source string) *ExtractedInfos {
	infos := &ExtractedInfos{
		Package:  extractPackage(source),
		Imports:  extractImports(source),
		Messages: make([]*Message, 0),
		Enums:    make([]*Enum, 0),
		Services: make([]*Service, 0),
	}

	spans := make([]messageSpan, 0)
	for _, loc := range messageRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[loc[2]:loc[3]]
		body := source[loc[4]:loc[5]]
		infos.Messages = append(infos.Messages, extractMessage(name, body, true))
		spans = append(spans, messageSpan{name: name, start: loc[0], end: loc[1]})
	}

	for _, loc := range enumRe.FindAllStringSubmatchIndex(source, -1) {
		enum := extractEnum(source[loc[2]:loc[3]], source[loc[4]:loc[5]])
		enum.Parent = enclosingMessage(spans, loc[0])
		infos.Enums = append(infos.Enums, enum)
	}

	for pos := 0; pos < len(source); {
		loc := serviceRe.FindStringSubmatchIndex(source[pos:])
		if loc == nil {
			break
		}
		open := pos + loc[1] - 1
		end := matchBrace(source, open)
		if end < 0 {
			break
		}
		name := source[pos+loc[2] : pos+loc[3]]
		infos.Services = append(infos.Services, extractService(name, source[open+1:end]))
		pos = end + 1
	}

	return infos
}

type messageSpan struct {
	name       string
	start, end int
}

func enclosingMessage(spans []messageSpan, offset int) string {
	for _, span := range spans {
		if offset > span.start && offset < span.end {
			return span.name
		}
	}
	return ""
}

func extractPackage(source string) string {
	m := packageRe.FindStringSubmatch(source)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractImports(source string) []string {
	imports := make([]string, 0)
	for _, line := range strings.Split(source, "\n") {
		if m := importRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
		}
	}
	return imports
}

// extractMessage builds a message from its body. Nested messages are only
// collected when withNested is set, which keeps the model one level deep.
func extractMessage(name, body string, withNested bool) *Message {
	msg := &Message{
		Name:    name,
		Body:    body,
		Nested:  make([]*Message, 0),
		Fields:  extractFields(body),
		Comment: firstBlockComment(body),
	}
	if withNested {
		for _, m := range messageRe.FindAllStringSubmatch(body, -1) {
			msg.Nested = append(msg.Nested, extractMessage(m[1], m[2], false))
		}
	}
	return msg
}

func extractFields(body string) []*MessageField {
	clean := cleanNestedRe.ReplaceAllString(body, "")

	blocks := blockComments(fieldBlockCommentRe, clean)
	lines := lineComments(clean, blocks)

	fields := make([]*MessageField, 0)
	for _, m := range fieldRe.FindAllStringSubmatch(clean, -1) {
		modifier, fieldType, name := m[1], m[2], m[3]
		if modifier != "" {
			fieldType = modifier + " " + fieldType
		}
		fields = append(fields, &MessageField{
			Name:        name,
			Type:        fieldType,
			Number:      m[4],
			Options:     strings.TrimSpace(m[5]),
			Description: describe(name, blocks, lines, m[6]),
		})
	}
	return fields
}

func extractEnum(name, body string) *Enum {
	blocks := blockComments(enumValueBlockCommentRe, body)
	lines := lineComments(body, blocks)

	enum := &Enum{
		Name:    name,
		Body:    body,
		Values:  make([]*EnumValue, 0),
		Comment: firstBlockComment(body),
	}
	for _, m := range enumValueRe.FindAllStringSubmatch(body, -1) {
		enum.Values = append(enum.Values, &EnumValue{
			Name:        m[1],
			Number:      m[2],
			Options:     strings.TrimSpace(m[3]),
			Description: describe(m[1], blocks, lines, m[4]),
		})
	}
	return enum
}

func extractService(name, body string) *Service {
	blocks := blockComments(methodBlockCommentRe, body)
	lines := lineComments(body, blocks)

	svc := &Service{
		Name:    name,
		Body:    body,
		Methods: make([]*ServiceMethod, 0),
		Comment: firstBlockComment(body),
	}
	for _, loc := range methodRe.FindAllStringSubmatchIndex(body, -1) {
		method := &ServiceMethod{
			Name:            body[loc[2]:loc[3]],
			ClientStreaming: loc[4] >= 0,
			Request:         body[loc[6]:loc[7]],
			ServerStreaming: loc[8] >= 0,
			Response:        body[loc[10]:loc[11]],
		}

		end := skipSpace(body, loc[1])
		switch {
		case end < len(body) && body[end] == '{':
			closing := matchBrace(body, end)
			if closing < 0 {
				continue
			}
			method.Options = strings.TrimSpace(body[end+1 : closing])
			end = closing + 1
			if next := skipSpace(body, end); next < len(body) && body[next] == ';' {
				end = next + 1
			}
		case end < len(body) && body[end] == ';':
			end++
		default:
			continue
		}

		inline := ""
		if m := inlineCommentRe.FindStringSubmatch(restOfLine(body, end)); m != nil {
			inline = m[1]
		}
		method.Description = describe(method.Name, blocks, lines, inline)
		svc.Methods = append(svc.Methods, method)
	}
	return svc
}

// describe applies the description precedence: block comment, then
// preceding line comments, then the trailing inline comment.
func describe(name string, blocks, lines map[string]string, inline string) string {
	if desc := blocks[name]; desc != "" {
		return desc
	}
	if desc := lines[name]; desc != "" {
		return desc
	}
	return strings.TrimSpace(inline)
}

func firstBlockComment(body string) string {
	m := blockCommentRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return NormalizeComment(m[1])
}

// blockComments maps member names to the /** */ block that immediately
// precedes their declaration. re must capture the comment body first and
// the member name second.
func blockComments(re *regexp.Regexp, content string) map[string]string {
	comments := make(map[string]string)
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		comments[m[2]] = ParagraphComment(m[1])
	}
	return comments
}

// lineComments maps member names to the run of // comments on the lines
// directly above their declaration. Names already described by a block
// comment are skipped.
func lineComments(content string, blocks map[string]string) map[string]string {
	lines := strings.Split(content, "\n")
	comments := make(map[string]string)

	for i := 0; i < len(lines); i++ {
		var run []string
		for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "//") {
			run = append(run, lines[i])
			i++
		}
		if len(run) == 0 || i >= len(lines) {
			continue
		}

		name := declaredName(strings.TrimSpace(lines[i]))
		if name == "" {
			continue
		}
		if _, claimed := blocks[name]; claimed {
			continue
		}
		if desc := LineComment(run); desc != "" {
			comments[name] = desc
		}
	}
	return comments
}

// declaredName returns the member declared on a line: an rpc name, or the
// identifier before '=' for fields and enum values.
func declaredName(line string) string {
	if m := lineRPCRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if !strings.Contains(line, "=") || !strings.Contains(line, ";") {
		return ""
	}
	if m := lineAssignRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}
