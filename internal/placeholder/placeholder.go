// Package placeholder substitutes {name} tokens in strings. Literal braces
// are written as {{ and }}.
package placeholder

import (
	"fmt"
	"strings"
)

// Lookup resolves a placeholder name to its replacement.
type Lookup func(name string) (string, bool)

// MissingError reports a placeholder with no value.
type MissingError struct {
	Name     string
	Template string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("placeholder {%s} in %q has no value", e.Name, e.Template)
}

// SyntaxError reports an unbalanced brace.
type SyntaxError struct {
	Template string
	Offset   int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("unbalanced brace at offset %d in %q", e.Offset, e.Template)
}

// Format replaces every {name} in tmpl using lookup.
func Format(tmpl string, lookup Lookup) (string, error) {
	if !strings.ContainsAny(tmpl, "{}") {
		return tmpl, nil
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", &SyntaxError{Template: tmpl, Offset: i}
			}
			name := tmpl[i+1 : i+1+end]
			if name == "" || strings.ContainsRune(name, '{') {
				return "", &SyntaxError{Template: tmpl, Offset: i}
			}
			value, ok := lookup(name)
			if !ok {
				return "", &MissingError{Name: name, Template: tmpl}
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &SyntaxError{Template: tmpl, Offset: i}
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

// FromMap returns a Lookup backed by a map of arbitrary values, formatted
// with fmt.Sprint.
func FromMap[V any](values map[string]V) Lookup {
	return func(name string) (string, bool) {
		v, ok := values[name]
		if !ok {
			return "", false
		}
		return fmt.Sprint(v), true
	}
}

// Names lists the placeholders referenced by tmpl in order of appearance.
func Names(tmpl string) []string {
	var names []string
	_, _ = Format(tmpl, func(name string) (string, bool) {
		names = append(names, name)
		return "", true
	})
	return names
}
