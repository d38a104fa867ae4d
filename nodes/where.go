package nodes

// Combinator joins a predicate to the one before it.
type Combinator int

const (
	And Combinator = iota
	Or
)

func (c Combinator) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}

// Entry is one (combinator, predicate) pair of a Where. The combinator of
// the first entry is not rendered.
type Entry struct {
	Combinator Combinator
	Predicate  Predicate
}

// Where is an ordered predicate set. It is itself a Predicate, so sets nest
// into parenthesized groups. Entries are never reordered or deduplicated.
//
// The fluent helpers (EqualTo, Or, Nest, ...) record the first error
// instead of returning it; check Err after building.
type Where struct {
	entries []Entry
	parent  *Where
	next    Combinator
	err     error
}

// NewWhere returns an empty predicate set.
func NewWhere() *Where {
	return &Where{}
}

func (w *Where) Accept(v Visitor) string { return v.VisitWhere(w) }
func (*Where) isPredicate()              {}

// Entries returns a copy of the entries in render order.
func (w *Where) Entries() []Entry {
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the number of top-level entries.
func (w *Where) Len() int {
	return len(w.entries)
}

// IsEmpty reports whether the set renders nothing: it has no entries, or
// every entry is itself an empty set.
func (w *Where) IsEmpty() bool {
	for _, e := range w.entries {
		nested, ok := e.Predicate.(*Where)
		if !ok || !nested.IsEmpty() {
			return false
		}
	}
	return true
}

// Err returns the first error recorded by a fluent helper on this set or
// on any set nested in it.
func (w *Where) Err() error {
	if w.err != nil {
		return w.err
	}
	for _, e := range w.entries {
		if nested, ok := e.Predicate.(*Where); ok {
			if err := nested.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// reaches reports whether target is w or is nested anywhere under w.
func (w *Where) reaches(target *Where) bool {
	if w == target {
		return true
	}
	for _, e := range w.entries {
		if nested, ok := e.Predicate.(*Where); ok && nested.reaches(target) {
			return true
		}
	}
	return false
}

// AddPredicate appends p with combinator c. A nested *Where that holds an
// error, or that contains w, is recorded as an error instead.
func (w *Where) AddPredicate(p Predicate, c Combinator) *Where {
	if nested, ok := p.(*Where); ok {
		if err := checkNested(w, nested); err != nil {
			return w.fail(err)
		}
	}
	w.entries = append(w.entries, Entry{Combinator: c, Predicate: p})
	w.next = And
	return w
}

// Add resolves loosely typed input into predicates and appends them. See
// ResolvePredicates for the accepted shapes. The combinator defaults to
// the one selected by Or/And, which itself defaults to And.
func (w *Where) Add(input any, combinator ...Combinator) error {
	c := w.next
	if len(combinator) > 0 {
		c = combinator[0]
	}
	entries, err := ResolvePredicates(w, input, c)
	if err != nil {
		return err
	}
	w.entries = append(w.entries, entries...)
	w.next = And
	return nil
}

// Clone returns a deep copy. The copy shares no mutable state with w.
func (w *Where) Clone() *Where {
	return w.clone(nil)
}

func (w *Where) clone(parent *Where) *Where {
	c := &Where{parent: parent, next: w.next, err: w.err}
	if w.entries != nil {
		c.entries = make([]Entry, len(w.entries))
		for i, e := range w.entries {
			c.entries[i] = Entry{Combinator: e.Combinator, Predicate: clonePredicate(e.Predicate, c)}
		}
	}
	return c
}

// --- Fluent predicate helpers ---

// Or makes the next predicate attach with OR.
func (w *Where) Or() *Where {
	w.next = Or
	return w
}

// And makes the next predicate attach with AND.
func (w *Where) And() *Where {
	w.next = And
	return w
}

// Nest opens a nested group attached with the pending combinator and
// returns it. Call Unnest to return to w.
func (w *Where) Nest() *Where {
	child := &Where{parent: w}
	w.AddPredicate(child, w.next)
	return child
}

// Unnest returns the enclosing set. Calling it on a top-level set records
// an error and returns w.
func (w *Where) Unnest() *Where {
	if w.parent == nil {
		w.fail(invalidPredicate(w, "unnest called on a top-level predicate set"))
		return w
	}
	return w.parent
}

// EqualTo adds col = val.
func (w *Where) EqualTo(col string, val any) *Where { return w.compare(col, OpEq, val) }

// NotEqualTo adds col <> val.
func (w *Where) NotEqualTo(col string, val any) *Where { return w.compare(col, OpNotEq, val) }

// LessThan adds col < val.
func (w *Where) LessThan(col string, val any) *Where { return w.compare(col, OpLt, val) }

// LessThanOrEqualTo adds col <= val.
func (w *Where) LessThanOrEqualTo(col string, val any) *Where { return w.compare(col, OpLtEq, val) }

// GreaterThan adds col > val.
func (w *Where) GreaterThan(col string, val any) *Where { return w.compare(col, OpGt, val) }

// GreaterThanOrEqualTo adds col >= val.
func (w *Where) GreaterThanOrEqualTo(col string, val any) *Where {
	return w.compare(col, OpGtEq, val)
}

// Like adds col LIKE pattern.
func (w *Where) Like(col string, pattern any) *Where { return w.compare(col, OpLike, pattern) }

// NotLike adds col NOT LIKE pattern.
func (w *Where) NotLike(col string, pattern any) *Where { return w.compare(col, OpNotLike, pattern) }

// IsNull adds col IS NULL.
func (w *Where) IsNull(col string) *Where {
	if col == "" {
		return w.fail(invalidPredicate(col, "%s", ErrEmptyIdentifier))
	}
	return w.AddPredicate(IsNull(col), w.next)
}

// IsNotNull adds col IS NOT NULL.
func (w *Where) IsNotNull(col string) *Where {
	if col == "" {
		return w.fail(invalidPredicate(col, "%s", ErrEmptyIdentifier))
	}
	return w.AddPredicate(IsNotNull(col), w.next)
}

// In adds col IN (values...). An empty list is recorded as an error.
func (w *Where) In(col string, values any) *Where {
	n, err := NewIn(col, values)
	if err != nil {
		return w.fail(err)
	}
	return w.AddPredicate(n, w.next)
}

// NotIn adds col NOT IN (values...).
func (w *Where) NotIn(col string, values any) *Where {
	n, err := NewNotIn(col, values)
	if err != nil {
		return w.fail(err)
	}
	return w.AddPredicate(n, w.next)
}

// Expression appends a template with "?" substitutions.
func (w *Where) Expression(template string, values ...any) *Where {
	n, err := NewExpression(template, values...)
	if err != nil {
		return w.fail(err)
	}
	return w.AddPredicate(n, w.next)
}

// Literal appends a SQL fragment verbatim.
func (w *Where) Literal(sql string) *Where {
	return w.Expression(sql)
}

func (w *Where) compare(col string, op ComparisonOp, val any) *Where {
	n, err := NewOperator(col, op, val)
	if err != nil {
		return w.fail(err)
	}
	return w.AddPredicate(n, w.next)
}

// fail records err on w and every enclosing set, keeping the first error.
func (w *Where) fail(err error) *Where {
	for s := w; s != nil; s = s.parent {
		if s.err == nil {
			s.err = err
		}
	}
	w.next = And
	return w
}
