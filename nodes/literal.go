package nodes

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"
)

// ValueNode is the closed set of value representations: NullNode,
// *LiteralNode and *SqlLiteral.
type ValueNode interface {
	Node
	isValue()
}

// LiteralNode wraps a scalar Go value. It is quoted in literal mode and
// bound as a parameter in parameterized mode.
type LiteralNode struct {
	Value any
}

func (n *LiteralNode) Accept(v Visitor) string { return v.VisitLiteral(n) }
func (*LiteralNode) isValue()                  {}

// SqlLiteral represents a raw SQL fragment injected verbatim into the query.
//
// SECURITY: Raw is rendered directly into SQL output without escaping or
// parameterization in both rendering modes. Never pass user-controlled input
// to Raw.
type SqlLiteral struct {
	Raw string
}

// Raw marks expr as trusted SQL, e.g. Raw("NOW()").
func Raw(expr string) *SqlLiteral {
	return &SqlLiteral{Raw: expr}
}

func (n *SqlLiteral) Accept(v Visitor) string { return v.VisitSqlLiteral(n) }
func (*SqlLiteral) isValue()                  {}

// NullNode is SQL NULL. It is never bound as a parameter.
type NullNode struct{}

// Null is the NullNode value.
var Null = NullNode{}

func (n NullNode) Accept(v Visitor) string { return v.VisitNull(n) }
func (NullNode) isValue()                  {}

// Literal wraps a raw Go value without validation. If val already
// implements ValueNode it is returned as-is; nil becomes Null.
func Literal(val any) ValueNode {
	switch v := val.(type) {
	case nil:
		return Null
	case ValueNode:
		return v
	}
	return &LiteralNode{Value: val}
}

// NormalizeValue turns a caller-supplied value into its canonical ValueNode.
//
// nil and nil pointers become Null; ValueNodes pass through; strings, byte
// slices, booleans, integers, floats (including named types of those kinds),
// time.Time and driver.Valuer become a LiteralNode. A Valuer is evaluated
// once here and must yield a driver.Value without error. Non-nil pointers
// are dereferenced. Everything else fails with a *TypeError.
func NormalizeValue(val any) (ValueNode, error) {
	switch v := val.(type) {
	case nil:
		return Null, nil
	case ValueNode:
		return v, nil
	case string, []byte, bool, time.Time:
		return &LiteralNode{Value: v}, nil
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null, nil
		}
		if v, ok := val.(driver.Valuer); ok {
			return valuerLiteral(v)
		}
		return NormalizeValue(rv.Elem().Interface())
	}
	if v, ok := val.(driver.Valuer); ok {
		return valuerLiteral(v)
	}

	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return &LiteralNode{Value: val}, nil
	}
	return nil, &TypeError{Value: val}
}

func valuerLiteral(v driver.Valuer) (ValueNode, error) {
	dv, err := v.Value()
	if err != nil {
		return nil, &TypeError{Value: v, While: "calling Value", Err: err}
	}
	if !driver.IsValue(dv) {
		return nil, &TypeError{Value: v, While: fmt.Sprintf("checking Value result %T", dv)}
	}
	return &LiteralNode{Value: v}, nil
}

// NormalizeValues normalizes every element of a slice or array, in order.
func NormalizeValues(list any) ([]ValueNode, error) {
	items, ok := listItems(list)
	if !ok {
		return nil, &TypeError{Value: list, While: "expecting a list of values"}
	}
	out := make([]ValueNode, 0, len(items))
	for _, item := range items {
		if isList(item) {
			return nil, &TypeError{Value: item, While: "normalizing nested list"}
		}
		v, err := NormalizeValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// isList reports whether val is a slice or array of values, as opposed to
// a scalar that happens to be backed by one ([]byte, uuid.UUID).
func isList(val any) bool {
	switch val.(type) {
	case nil, []byte, ValueNode, driver.Valuer:
		return false
	}
	k := reflect.ValueOf(val).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func listItems(val any) ([]any, bool) {
	if items, ok := val.([]any); ok {
		return items, true
	}
	if !isList(val) {
		return nil, false
	}
	rv := reflect.ValueOf(val)
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func isNullValue(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case NullNode:
		return true
	case ValueNode:
		return false
	default:
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Pointer && rv.IsNil()
	}
}

func cloneValue(v ValueNode) ValueNode {
	switch n := v.(type) {
	case *LiteralNode:
		c := *n
		return &c
	case *SqlLiteral:
		c := *n
		return &c
	default:
		return v
	}
}
