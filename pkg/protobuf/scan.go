package protobuf

// matchBrace returns the index of the '}' closing the '{' at open, skipping
// string literals and comments. It returns -1 when the block is unterminated.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'':
			i = skipString(s, i, c)
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				i = skipLine(s, i)
			} else if i+1 < len(s) && s[i+1] == '*' {
				i = skipBlock(s, i)
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipString(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			return i
		}
	}
	return len(s) - 1
}

func skipLine(s string, start int) int {
	for i := start; i < len(s); i++ {
		if s[i] == '\n' {
			return i
		}
	}
	return len(s) - 1
}

func skipBlock(s string, start int) int {
	for i := start + 2; i+1 < len(s); i++ {
		if s[i] == '*' && s[i+1] == '/' {
			return i + 1
		}
	}
	return len(s) - 1
}

// skipSpace returns the index of the first non-blank byte at or after i
func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// restOfLine returns s[i:] up to, but not including, the next newline
func restOfLine(s string, i int) string {
	for j := i; j < len(s); j++ {
		if s[j] == '\n' {
			return s[i:j]
		}
	}
	return s[i:]
}
