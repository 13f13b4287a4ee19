package semver

import (
	"fmt"
	"regexp"
	"strings"
)

// Operator is a comparison used by a requirement clause.
type Operator string

const (
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

var (
	clauseSplit   = regexp.MustCompile(`\s*,\s*`)
	clausePattern = regexp.MustCompile(`^(<=|>=|==|!=|<|>)(.*)$`)
)

// Clause pairs an operator with the version it compares against.
type Clause struct {
	Op      Operator
	Version Version
}

// String renders the clause as it would appear in a requirement string.
func (c Clause) String() string {
	return string(c.Op) + c.Version.String()
}

// Satisfies reports whether v matches this single clause.
func (c Clause) Satisfies(v Version) bool {
	switch c.Op {
	case OpEqual:
		return v.Equal(c.Version)
	case OpNotEqual:
		return !v.Equal(c.Version)
	case OpLess:
		return Compare(v, c.Version) < 0
	case OpLessEqual:
		return v.Equal(c.Version) || Compare(v, c.Version) < 0
	case OpGreater:
		return Compare(v, c.Version) > 0
	case OpGreaterEqual:
		return v.Equal(c.Version) || Compare(v, c.Version) > 0
	default:
		return false
	}
}

// Requirement is an immutable, non-empty conjunction of clauses.
type Requirement struct {
	raw     string
	clauses []Clause
}

// ParseRequirement parses a comma separated list of clauses such as
// ">=0.1.0, <1.0.0". Each clause is an operator immediately followed by a
// version.
func ParseRequirement(text string) (Requirement, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Requirement{}, &ParseError{Input: text, Reason: "requirement is empty", Requirement: true}
	}

	parts := clauseSplit.Split(trimmed, -1)
	clauses := make([]Clause, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return Requirement{}, &ParseError{Input: text, Reason: "clause is empty", Requirement: true}
		}
		m := clausePattern.FindStringSubmatch(part)
		if m == nil {
			return Requirement{}, &ParseError{Input: text, Clause: part, Reason: "clause must start with one of <, <=, >, >=, ==, !=", Requirement: true}
		}
		v, err := Parse(m[2])
		if err != nil {
			return Requirement{}, &ParseError{Input: text, Clause: part, Reason: fmt.Sprintf("version %q is not valid semver", m[2]), Requirement: true}
		}
		clauses = append(clauses, Clause{Op: Operator(m[1]), Version: v})
	}

	return Requirement{raw: trimmed, clauses: clauses}, nil
}

// MustParseRequirement panics if the requirement cannot be parsed.
func MustParseRequirement(text string) Requirement {
	req, err := ParseRequirement(text)
	if err != nil {
		panic(err)
	}
	return req
}

// Clauses returns a copy of the requirement's clauses in declaration order.
func (r Requirement) Clauses() []Clause {
	out := make([]Clause, len(r.clauses))
	copy(out, r.clauses)
	return out
}

// Satisfies reports whether v satisfies every clause.
func (r Requirement) Satisfies(v Version) bool {
	return len(r.clauses) > 0 && len(r.Unsatisfied(v)) == 0
}

// Unsatisfied returns the clauses that v fails, in declaration order.
func (r Requirement) Unsatisfied(v Version) []Clause {
	var failed []Clause
	for _, c := range r.clauses {
		if !c.Satisfies(v) {
			failed = append(failed, c)
		}
	}
	return failed
}

// String returns the requirement as originally written, whitespace trimmed.
func (r Requirement) String() string {
	if r.raw != "" {
		return r.raw
	}
	parts := make([]string, len(r.clauses))
	for i, c := range r.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Satisfies reports whether v satisfies every clause of req.
func Satisfies(v Version, req Requirement) bool {
	return req.Satisfies(v)
}

// NewRequirement builds a requirement from already parsed clauses.
func NewRequirement(clauses ...Clause) (Requirement, error) {
	if len(clauses) == 0 {
		return Requirement{}, &ParseError{Reason: "requirement has no clauses", Requirement: true}
	}
	out := make([]Clause, len(clauses))
	copy(out, clauses)
	return Requirement{clauses: out}, nil
}
