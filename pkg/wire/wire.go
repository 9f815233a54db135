package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement is one parsed DSL command (spec.md §6.1): an optional
// comma-separated set of result names to assign (0 for bare commands like
// shutdown, 1 for most, 2 for join's l,r=), a function name, and its
// comma-separated argument list.
type Statement struct {
	Assign []string
	Func   string
	Args   []string
}

// Arg returns the raw, unquoted text of the i'th argument.
func (s *Statement) Arg(i int) string {
	if i < 0 || i >= len(s.Args) {
		return ""
	}
	return unquote(s.Args[i])
}

// Bound parses the i'th argument as a select range bound: "null" (or a
// missing argument) means unbounded, anything else must be a base-10 int32
// (spec.md §6.1: "low/high may be null").
func (s *Statement) Bound(i int) (*int32, error) {
	raw := s.Arg(i)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("argument %d: %q is not an integer or null", i, raw)
	}
	r := int32(v)
	return &r, nil
}

// Int32 parses the i'th argument as a required base-10 int32.
func (s *Statement) Int32(i int) (int32, error) {
	raw := s.Arg(i)
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %q is not an integer", i, raw)
	}
	return int32(v), nil
}

// Int parses the i'th argument as a required base-10 int.
func (s *Statement) Int(i int) (int, error) {
	raw := s.Arg(i)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %q is not an integer", i, raw)
	}
	return v, nil
}

// Qualified splits a "db.tbl.col"-shaped argument into its dot-separated
// parts. Identifiers never themselves contain dots, so this is a plain
// split, not a quoted-aware one.
func Qualified(arg string) []string {
	return strings.Split(arg, ".")
}

// Parse turns one line of input into a Statement. It accepts the bare
// keywords batch_queries, batch_execute, shutdown, and snapshot with no
// parentheses, and otherwise expects [assign=]name(arg,arg,...) with
// comma-separated arguments, double-quoted string literals allowed to
// contain commas (spec.md §6.1: "case-sensitive, comma-separated
// arguments").
func Parse(line string) (*Statement, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ";")
	if line == "" {
		return nil, fmt.Errorf("empty statement")
	}

	switch line {
	case "batch_queries", "batch_execute", "shutdown", "snapshot":
		return &Statement{Func: line}, nil
	}

	rest := line
	var assign []string
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		lhs := line[:eq]
		if !strings.ContainsAny(lhs, "(") {
			rest = line[eq+1:]
			for _, name := range strings.Split(lhs, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					return nil, fmt.Errorf("malformed statement %q: empty assignment target", line)
				}
				assign = append(assign, name)
			}
		}
	}

	open := strings.IndexByte(rest, '(')
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("malformed statement %q: expected name(args)", line)
	}
	funcName := strings.TrimSpace(rest[:open])
	if funcName == "" {
		return nil, fmt.Errorf("malformed statement %q: missing command name", line)
	}
	inner := rest[open+1 : len(rest)-1]

	var args []string
	if trimmed := strings.TrimSpace(inner); trimmed != "" {
		for _, a := range splitArgs(inner) {
			args = append(args, strings.TrimSpace(a))
		}
	}

	return &Statement{Assign: assign, Func: funcName, Args: args}, nil
}

// splitArgs splits s on top-level commas, treating text between a pair of
// double quotes as opaque so a quoted path like "a,b.csv" survives intact.
func splitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			args = append(args, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	args = append(args, cur.String())
	return args
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
	}
	return s
}
