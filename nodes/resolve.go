package nodes

import (
	"regexp"
	"sort"
	"strings"
)

// Pair is one key/value entry of an ordered condition or assignment mapping.
// A string key names a column or holds a template; an int key is positional.
type Pair struct {
	Key   any
	Value any
}

// KV builds a Pair.
func KV(key, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Pairs is an ordered mapping. Unlike a Go map, iteration order is the
// order the pairs were written.
type Pairs []Pair

// operatorKeyRe matches keys that end in a comparison operator, e.g.
// "age >=" or "name not like". Keyword operators need leading whitespace.
var operatorKeyRe = regexp.MustCompile(`(?i)^\s*(\S+?)(?:\s*(<>|!=|<=|>=|==|=|<|>)|\s+(not\s+like|like))\s*$`)

// ResolvePredicates turns loosely typed WHERE input into entries for target.
//
// Accepted shapes:
//   - string: a verbatim expression
//   - Predicate (including *Where, which nests as a group)
//   - func(*Where): called with target; contributes no entries itself
//   - Pair, Pairs, map[string]any (sorted by key), []any, []string:
//     each pair resolves to one predicate; the first takes combinator c
//     and the rest are joined with AND
//
// Anything else yields a *PredicateError.
func ResolvePredicates(target *Where, input any, c Combinator) ([]Entry, error) {
	switch in := input.(type) {
	case nil:
		return nil, invalidPredicate(input, "nil input")
	case string:
		expr, err := NewExpression(in)
		if err != nil {
			return nil, err
		}
		return []Entry{{Combinator: c, Predicate: expr}}, nil
	case *Where:
		if err := checkNested(target, in); err != nil {
			return nil, err
		}
		return []Entry{{Combinator: c, Predicate: in}}, nil
	case Predicate:
		return []Entry{{Combinator: c, Predicate: in}}, nil
	case func(*Where):
		in(target)
		return nil, nil
	case Pair:
		return resolvePairs(target, Pairs{in}, c)
	case Pairs:
		return resolvePairs(target, in, c)
	case map[string]any:
		return resolvePairs(target, sortedPairs(in), c)
	case []string:
		pairs := make(Pairs, len(in))
		for i, s := range in {
			pairs[i] = KV(i, s)
		}
		return resolvePairs(target, pairs, c)
	case []any:
		pairs := make(Pairs, len(in))
		for i, v := range in {
			pairs[i] = KV(i, v)
		}
		return resolvePairs(target, pairs, c)
	}
	return nil, invalidPredicate(input, "unsupported input shape")
}

// checkNested rejects nesting in under target when in holds a recorded
// error or when target is reachable from in.
func checkNested(target, in *Where) error {
	if in.reaches(target) {
		return invalidPredicate(in, "predicate set cannot nest itself")
	}
	return in.Err()
}

func resolvePairs(target *Where, pairs Pairs, c Combinator) ([]Entry, error) {
	entries := make([]Entry, 0, len(pairs))
	for i, p := range pairs {
		pred, err := resolvePair(p)
		if err != nil {
			return nil, err
		}
		if nested, ok := pred.(*Where); ok {
			if err := checkNested(target, nested); err != nil {
				return nil, err
			}
		}
		comb := And
		if i == 0 {
			comb = c
		}
		entries = append(entries, Entry{Combinator: comb, Predicate: pred})
	}
	return entries, nil
}

func resolvePair(p Pair) (Predicate, error) {
	switch key := p.Key.(type) {
	case string:
		return resolveNamed(key, p.Value)
	case int:
		return resolvePositional(p.Value)
	}
	return nil, invalidPredicate(p.Key, "mapping key must be a string or int")
}

// resolveNamed handles a column or template key.
func resolveNamed(key string, val any) (Predicate, error) {
	if strings.TrimSpace(key) == "" {
		return nil, invalidPredicate(key, "%s", ErrEmptyIdentifier)
	}
	if segs := SplitTemplate(key); len(segs) > 1 {
		items, ok := listItems(val)
		if !ok {
			return NewExpression(key, val)
		}
		if len(items) == 0 {
			return nil, invalidPredicate(val, "empty value list for %q", key)
		}
		// "id IN (?)" with a list expands to one placeholder per item.
		if len(segs) == 2 && len(items) > 1 {
			key = segs[0] + strings.Repeat(Placeholder+", ", len(items)-1) + Placeholder + segs[1]
		}
		return NewExpression(key, items...)
	}
	if m := operatorKeyRe.FindStringSubmatch(key); m != nil {
		token := m[2]
		if token == "" {
			token = m[3]
		}
		op, _ := ParseComparisonOp(token)
		return NewOperator(m[1], op, val)
	}
	if isNullValue(val) {
		return IsNull(key), nil
	}
	if isList(val) {
		return NewIn(key, val)
	}
	return NewOperator(key, OpEq, val)
}

// resolvePositional handles an int key, where only the value carries meaning.
func resolvePositional(val any) (Predicate, error) {
	switch v := val.(type) {
	case string:
		return NewExpression(v)
	case Predicate:
		return v, nil
	case Pair:
		return resolveSingle(Pairs{v})
	case Pairs:
		return resolveSingle(v)
	case map[string]any:
		return resolveSingle(sortedPairs(v))
	}
	return nil, invalidPredicate(val, "unsupported positional value")
}

func resolveSingle(pairs Pairs) (Predicate, error) {
	if len(pairs) != 1 {
		return nil, invalidPredicate(pairs, "nested mapping must hold exactly one pair, got %d", len(pairs))
	}
	key, ok := pairs[0].Key.(string)
	if !ok {
		return nil, invalidPredicate(pairs[0].Key, "nested mapping key must be a string")
	}
	return resolveNamed(key, pairs[0].Value)
}

func sortedPairs(m map[string]any) Pairs {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make(Pairs, len(keys))
	for i, k := range keys {
		pairs[i] = KV(k, m[k])
	}
	return pairs
}
