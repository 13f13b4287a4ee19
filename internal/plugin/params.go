package plugin

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/wgcm/internal/placeholder"
)

// Context keys the host always provides to plugin callables.
const (
	ContextKeyPayload = "payload"
	ContextKeyService = "service"
)

type defaultKind int

const (
	kindNone defaultKind = iota
	kindLiteral
	kindTemplate
	kindFromContext
)

// Default describes where a parameter's value comes from when the caller
// does not override it.
type Default struct {
	kind  defaultKind
	value any
	text  string
}

// Literal is a default used as-is.
func Literal(v any) Default {
	return Default{kind: kindLiteral, value: v}
}

// Template is a string default whose {placeholder} tokens are filled from
// the call context.
func Template(s string) Default {
	return Default{kind: kindTemplate, text: s}
}

// FromContext is a default taken verbatim from the call context under key.
// Parameters with this default are always host supplied.
func FromContext(key string) Default {
	return Default{kind: kindFromContext, text: key}
}

// IsZero reports whether no default was declared.
func (d Default) IsZero() bool {
	return d.kind == kindNone
}

// ContextKey returns the key of a FromContext default.
func (d Default) ContextKey() (string, bool) {
	return d.text, d.kind == kindFromContext
}

// String describes the default for help output.
func (d Default) String() string {
	switch d.kind {
	case kindLiteral:
		return fmt.Sprint(d.value)
	case kindTemplate:
		return d.text
	case kindFromContext:
		return "<" + d.text + ">"
	default:
		return ""
	}
}

// resolve computes the default value. Without a context, templates stay
// unexpanded and FromContext defaults cannot be satisfied.
func (d Default) resolve(param string, c Context) (any, error) {
	switch d.kind {
	case kindLiteral:
		return d.value, nil
	case kindTemplate:
		if c == nil {
			return d.text, nil
		}
		out, err := placeholder.Format(d.text, placeholder.FromMap(c))
		if err != nil {
			var missing *placeholder.MissingError
			if errors.As(err, &missing) {
				return nil, &ContextKeyError{Parameter: param, Key: missing.Name, Err: err}
			}
			return nil, &ContextKeyError{Parameter: param, Err: err}
		}
		return out, nil
	case kindFromContext:
		v, ok := c[d.text]
		if !ok {
			return nil, &ContextKeyError{Parameter: param, Key: d.text}
		}
		return v, nil
	default:
		return nil, nil
	}
}

// Transform converts a selected value before it is passed on.
type Transform func(any) (any, error)

// Parameter declares one named argument of a plugin callable.
type Parameter struct {
	Name    string
	Default Default
	Helper  string
	// BeforePass runs on whichever value is finally selected.
	BeforePass Transform
	// HostOnly parameters cannot be overridden by callers.
	HostOnly bool
}

// UserAccessible reports whether callers may override the parameter.
func (p Parameter) UserAccessible() bool {
	if _, ok := p.Default.ContextKey(); ok {
		return false
	}
	return !p.HostOnly
}

// Context is the host-assembled mapping used to resolve defaults.
type Context map[string]any

// Args holds the final keyword arguments handed to a plugin callable.
type Args map[string]any

// Value returns the raw argument.
func (a Args) Value(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

// String returns a string argument; non-string values are formatted.
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Bytes returns a byte-slice argument; strings are converted.
func (a Args) Bytes(name string) []byte {
	switch v := a[name].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// Duration returns a duration argument, accepting time.Duration or a
// parseable string.
func (a Args) Duration(name string) (time.Duration, error) {
	switch v := a[name].(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(v)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("argument %q: cannot use %T as duration", name, v)
	}
}

// ValidateParameters checks that names are non-empty and unique.
func ValidateParameters(params []Parameter) error {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("parameter with empty name")
		}
		if _, ok := seen[p.Name]; ok {
			return &DuplicateParameterError{Name: p.Name}
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Resolve computes the final arguments for a callable: every default is
// resolved (expanded against c when supplied), overrides then replace the
// defaults, and every value goes through its parameter's BeforePass transform. Nothing is returned unless
// every parameter resolves.
func Resolve(params []Parameter, overrides map[string]any, c Context) (Args, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	index := make(map[string]Parameter, len(params))
	names := make([]string, len(params))
	for i, p := range params {
		index[p.Name] = p
		names[i] = p.Name
	}

	for name := range overrides {
		p, ok := index[name]
		if !ok {
			return nil, &UnknownParameterError{Name: name, Declared: names}
		}
		if !p.UserAccessible() {
			return nil, &ParameterAccessError{Name: name}
		}
	}

	// Every default is resolved, overridden or not, so a broken template
	// fails even when the caller supplies the value.
	working := make(Args, len(params))
	for _, p := range params {
		v, err := p.Default.resolve(p.Name, c)
		if err != nil {
			return nil, err
		}
		working[p.Name] = v
	}
	for name, v := range overrides {
		working[name] = v
	}

	final := make(Args, len(params))
	for _, p := range params {
		v := working[p.Name]
		if p.BeforePass != nil {
			transformed, err := runTransform(p, v)
			if err != nil {
				return nil, err
			}
			v = transformed
		}
		final[p.Name] = v
	}

	return final, nil
}

func runTransform(p Parameter, v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewRuntimeError("", "before_pass "+p.Name, &PanicError{Value: r})
		}
	}()

	out, err = p.BeforePass(v)
	if err != nil {
		return nil, NewRuntimeError("", "before_pass "+p.Name, err)
	}
	return out, nil
}
