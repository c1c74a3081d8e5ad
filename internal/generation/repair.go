package generation

import (
	"encoding/json"
	"strings"
	"unicode"
)

// extractObject cuts the first JSON-like object out of model output and
// repairs it into strict JSON. Fences and surrounding prose are dropped.
func extractObject(s string) (string, error) {
	s = stripFences(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}
	return repair(s[start:]), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}

	body := s[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "{") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	if !strings.Contains(body, "{") {
		return s
	}
	return strings.TrimSpace(body)
}

// repairer walks loosely formatted JSON once and rewrites it: single quoted
// strings become double quoted, bare keys and bare word values are quoted,
// trailing commas are dropped and a truncated object is closed.
type repairer struct {
	src   []rune
	pos   int
	out   strings.Builder
	stack []rune
	last  rune
}

func repair(s string) string {
	r := &repairer{src: []rune(s)}

	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '{' || c == '[':
			r.stack = append(r.stack, c)
			r.emit(c)
			r.pos++
		case c == '}' || c == ']':
			r.emit(c)
			r.pos++
			if len(r.stack) > 0 {
				r.stack = r.stack[:len(r.stack)-1]
			}
			if len(r.stack) == 0 {
				return r.out.String()
			}
		case c == '"' || c == '\'':
			r.readString(c)
		case c == ',':
			r.pos++
			if next := r.peekSignificant(r.pos); next == '}' || next == ']' {
				continue
			}
			r.emit(c)
		case unicode.IsLetter(c) || c == '_':
			r.readWord()
		default:
			r.emit(c)
			r.pos++
		}
	}

	return r.closeTruncated()
}

func (r *repairer) emit(c rune) {
	r.out.WriteRune(c)
	if !unicode.IsSpace(c) {
		r.last = c
	}
}

func (r *repairer) emitQuoted(s string) {
	encoded, _ := json.Marshal(s)
	r.out.Write(encoded)
	r.last = '"'
}

func (r *repairer) peekSignificant(i int) rune {
	for ; i < len(r.src); i++ {
		if !unicode.IsSpace(r.src[i]) {
			return r.src[i]
		}
	}
	return 0
}

func (r *repairer) expectingKey() bool {
	if len(r.stack) == 0 || r.stack[len(r.stack)-1] != '{' {
		return false
	}
	return r.last == '{' || r.last == ','
}

func (r *repairer) readString(quote rune) {
	r.pos++
	r.out.WriteByte('"')

	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '\\':
			if r.pos+1 >= len(r.src) {
				r.pos++
				continue
			}
			next := r.src[r.pos+1]
			if next == '\'' {
				r.out.WriteRune('\'')
			} else {
				r.out.WriteRune(c)
				r.out.WriteRune(next)
			}
			r.pos += 2
			continue
		case c == quote:
			// A single quote only closes the string when structure follows,
			// so apostrophes inside the text survive.
			if quote == '"' || r.closesSingleQuoted(r.pos+1) {
				r.pos++
				r.out.WriteByte('"')
				r.last = '"'
				return
			}
			r.out.WriteRune(c)
		case c == '"':
			r.out.WriteString(`\"`)
		case c == '\n':
			r.out.WriteString(`\n`)
		case c == '\t':
			r.out.WriteString(`\t`)
		case c == '\r':
		default:
			r.out.WriteRune(c)
		}
		r.pos++
	}

	r.out.WriteByte('"')
	r.last = '"'
}

func (r *repairer) closesSingleQuoted(i int) bool {
	switch r.peekSignificant(i) {
	case 0, ',', '}', ']', ':':
		return true
	default:
		return false
	}
}

func (r *repairer) readWord() {
	key := r.expectingKey()

	end := r.pos
	for ; end < len(r.src); end++ {
		c := r.src[end]
		if c == ',' || c == '}' || c == ']' || c == '\n' {
			break
		}
		if key && c == ':' {
			break
		}
	}

	word := strings.TrimSpace(string(r.src[r.pos:end]))
	r.pos = end

	switch word {
	case "true", "false", "null":
		if !key {
			r.out.WriteString(word)
			r.last = rune(word[len(word)-1])
			return
		}
	}
	r.emitQuoted(word)
}

func (r *repairer) closeTruncated() string {
	out := strings.TrimRightFunc(r.out.String(), func(c rune) bool {
		return unicode.IsSpace(c) || c == ','
	})

	var b strings.Builder
	b.WriteString(out)
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i] == '[' {
			b.WriteByte(']')
		} else {
			b.WriteByte('}')
		}
	}
	return b.String()
}
