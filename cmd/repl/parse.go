package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/sqlupdate/nodes"
)

// tokenize splits a condition into identifiers, quoted strings,
// parentheses, commas and comparison operators.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inQuote {
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
					flush()
				}
			}
			continue
		}

		switch {
		case ch == '\'':
			flush()
			cur.WriteByte(ch)
			inQuote = true
		case ch == '(' || ch == ')' || ch == ',':
			flush()
			tokens = append(tokens, string(ch))
		case (ch == '!' || ch == '<' || ch == '>' || ch == '=') && i+1 < len(input) &&
			(input[i+1] == '=' || (ch == '<' && input[i+1] == '>')):
			flush()
			tokens = append(tokens, input[i:i+2])
			i++
		case ch == '<' || ch == '>' || ch == '=':
			flush()
			tokens = append(tokens, string(ch))
		case ch == ' ' || ch == '\t':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseValue converts a literal token: 'text', integers, floats, true,
// false and null.
func parseValue(token string) (any, error) {
	switch strings.ToLower(token) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") && len(token) >= 2 {
		inner := token[1 : len(token)-1]
		return strings.ReplaceAll(inner, "''", "'"), nil
	}
	if i, err := strconv.Atoi(token); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse value: %s", token)
}

// isIdentifier reports whether token is a plain or dot-qualified column name.
func isIdentifier(token string) bool {
	if token == "" || (token[0] >= '0' && token[0] <= '9') {
		return false
	}
	for _, r := range token {
		if r != '_' && r != '.' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// parseCondition turns a condition line into input for UpdateManager.Where.
// Recognized shapes become typed predicates with bound values; anything
// else is returned as a verbatim SQL expression.
func parseCondition(input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("usage: where <condition>")
	}
	tokens := tokenize(input)
	if len(tokens) < 3 || !isIdentifier(tokens[0]) {
		return input, nil
	}
	col := tokens[0]
	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
	}

	switch {
	case len(tokens) == 3 && lower[1] == "is" && lower[2] == "null":
		return nodes.IsNull(col), nil
	case len(tokens) == 4 && lower[1] == "is" && lower[2] == "not" && lower[3] == "null":
		return nodes.IsNotNull(col), nil
	case lower[1] == "in":
		return parseInList(col, tokens[2:], false)
	case len(tokens) > 3 && lower[1] == "not" && lower[2] == "in":
		return parseInList(col, tokens[3:], true)
	case len(tokens) == 4 && lower[1] == "not" && lower[2] == "like":
		if v, err := parseValue(tokens[3]); err == nil {
			return nodes.Pairs{nodes.KV(col+" not like", v)}, nil
		}
	case len(tokens) == 3:
		op, ok := nodes.ParseComparisonOp(tokens[1])
		if !ok {
			break
		}
		v, err := parseValue(tokens[2])
		if err != nil {
			break
		}
		if v == nil {
			switch op {
			case nodes.OpEq:
				return nodes.IsNull(col), nil
			case nodes.OpNotEq:
				return nodes.IsNotNull(col), nil
			}
		}
		return nodes.Pairs{nodes.KV(col+" "+tokens[1], v)}, nil
	}
	return input, nil
}

// parseInList parses "( v1 , v2 ... )" into an IN or NOT IN predicate.
func parseInList(col string, tokens []string, negate bool) (any, error) {
	if len(tokens) < 2 || tokens[0] != "(" || tokens[len(tokens)-1] != ")" {
		return nil, fmt.Errorf("expected a parenthesized list after IN for %s", col)
	}
	var values []any
	for _, t := range tokens[1 : len(tokens)-1] {
		if t == "," {
			continue
		}
		v, err := parseValue(t)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if negate {
		return nodes.NewNotIn(col, values)
	}
	return nodes.NewIn(col, values)
}

// parseAssignments parses "col = value, col2 = value2". Values that are
// not literals are kept as raw SQL, e.g. NOW() or count + 1.
func parseAssignments(input string) (nodes.Pairs, error) {
	var pairs nodes.Pairs
	for _, part := range splitTopLevelCommas(input) {
		col, val, ok := strings.Cut(part, "=")
		col, val = strings.TrimSpace(col), strings.TrimSpace(val)
		if !ok || col == "" || val == "" {
			return nil, errors.New("usage: set <col> = <value>[, <col> = <value> ...]")
		}
		v, err := parseValue(val)
		if err != nil {
			pairs = append(pairs, nodes.KV(col, nodes.Raw(val)))
			continue
		}
		pairs = append(pairs, nodes.KV(col, v))
	}
	if len(pairs) == 0 {
		return nil, errors.New("usage: set <col> = <value>[, <col> = <value> ...]")
	}
	return pairs, nil
}

// splitTopLevelCommas splits on commas outside parentheses and quotes, so
// COALESCE(a, b) and 'x, y' stay intact.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			cur.WriteByte(ch)
		case inQuote:
			cur.WriteByte(ch)
		case ch == '(':
			depth++
			cur.WriteByte(ch)
		case ch == ')':
			depth--
			cur.WriteByte(ch)
		case ch == ',' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}
