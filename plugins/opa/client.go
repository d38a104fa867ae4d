package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/bawdo/sqlupdate/nodes"
)

// ErrAccessDenied is returned when the policy admits no rows at all.
var ErrAccessDenied = errors.New("opa: access denied")

// Client communicates with an OPA server's Compile API.
type Client struct {
	baseURL    string
	policyPath string
	input      map[string]any
	httpClient *http.Client
}

// NewClient creates an OPA Client with the given base URL, policy path, and input.
// The policy path is normalized to include the "data." prefix if not already present.
//
// The baseURL is used as-is. Use HTTPS outside local development, since the
// input document usually identifies the caller.
func NewClient(baseURL, policyPath string, input map[string]any) *Client {
	if !strings.HasPrefix(policyPath, "data.") {
		policyPath = "data." + policyPath
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		policyPath: policyPath,
		input:      input,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// PolicyPath returns the normalized policy path.
func (c *Client) PolicyPath() string { return c.policyPath }

// BaseURL returns the server URL.
func (c *Client) BaseURL() string { return c.baseURL }

// postJSON sends a POST request with JSON body to the given path and returns
// the response body. A non-200 status is an error carrying the body.
func (c *Client) postJSON(ctx context.Context, path string, reqBody []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- Compile API response types ---

type compileResponse struct {
	Result compileResult `json:"result"`
}

type compileResult struct {
	Queries [][]compileExpression `json:"queries"`
}

type compileExpression struct {
	Index int           `json:"index"`
	Terms []compileTerm `json:"terms"`
}

type compileTerm struct {
	Type  string `json:"type"`
	Value any    // string, int, float64, bool, nil, or []compileTerm for refs
}

// UnmarshalJSON accepts both encodings of an expression's terms: an array
// for a call ("eq", lhs, rhs) and a single object for a bare term.
func (ce *compileExpression) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index int             `json:"index"`
		Terms json.RawMessage `json:"terms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ce.Index = raw.Index
	trimmed := bytes.TrimSpace(raw.Terms)
	switch {
	case len(trimmed) == 0:
		ce.Terms = nil
	case trimmed[0] == '[':
		return json.Unmarshal(trimmed, &ce.Terms)
	default:
		var term compileTerm
		if err := json.Unmarshal(trimmed, &term); err != nil {
			return err
		}
		ce.Terms = []compileTerm{term}
	}
	return nil
}

// UnmarshalJSON decodes Value according to Type.
func (ct *compileTerm) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ct.Type = raw.Type

	switch raw.Type {
	case "null":
		ct.Value = nil
	case "string", "var":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("opa: failed to unmarshal %s value: %w", raw.Type, err)
		}
		ct.Value = s
	case "number":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("opa: failed to unmarshal number value: %w", err)
		}
		// Whole numbers bind as int.
		if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) {
			ct.Value = int(f)
		} else {
			ct.Value = f
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("opa: failed to unmarshal boolean value: %w", err)
		}
		ct.Value = b
	case "ref":
		var terms []compileTerm
		if err := json.Unmarshal(raw.Value, &terms); err != nil {
			return fmt.Errorf("opa: failed to unmarshal ref value: %w", err)
		}
		ct.Value = terms
	default:
		return fmt.Errorf("opa: unknown term type %q", raw.Type)
	}
	return nil
}

func parseCompileResponse(data []byte) (*compileResponse, error) {
	var resp compileResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("opa: failed to parse compile response: %w", err)
	}
	return &resp, nil
}

// --- Expression translation ---

// extractOperator pulls the operator name from the first term of an
// expression, a ref holding a single var.
func extractOperator(term compileTerm) (string, error) {
	if term.Type != "ref" {
		return "", fmt.Errorf("opa: operator term must be ref, got %s", term.Type)
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 {
		return "", errors.New("opa: operator ref has no parts")
	}
	if parts[0].Type != "var" {
		return "", fmt.Errorf("opa: operator ref[0] must be var, got %s", parts[0].Type)
	}
	name, ok := parts[0].Value.(string)
	if !ok {
		return "", errors.New("opa: operator var value is not a string")
	}
	return name, nil
}

// extractColumnName returns the last string element of a data ref.
func extractColumnName(term compileTerm) (string, error) {
	if term.Type != "ref" {
		return "", fmt.Errorf("opa: column term must be ref, got %s", term.Type)
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 {
		return "", errors.New("opa: column ref has no parts")
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Type == "string" {
			s, ok := parts[i].Value.(string)
			if !ok {
				return "", errors.New("opa: column ref string value is not a string")
			}
			return s, nil
		}
	}
	return "", errors.New("opa: column ref has no string-typed element")
}

// isDataRef reports whether term is a ref starting with var "data".
func isDataRef(term compileTerm) bool {
	if term.Type != "ref" {
		return false
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 || parts[0].Type != "var" {
		return false
	}
	name, ok := parts[0].Value.(string)
	return ok && name == "data"
}

var comparisonOps = map[string]nodes.ComparisonOp{
	"eq":    nodes.OpEq,
	"equal": nodes.OpEq,
	"neq":   nodes.OpNotEq,
	"lt":    nodes.OpLt,
	"lte":   nodes.OpLtEq,
	"gt":    nodes.OpGt,
	"gte":   nodes.OpGtEq,
}

// translateExpression converts one residual expression into a predicate on
// table. OPA does not fix operand order, so the data ref is found by type.
func translateExpression(expr compileExpression, table *nodes.Table) (nodes.Predicate, error) {
	if len(expr.Terms) < 3 {
		return nil, fmt.Errorf("opa: expression has %d terms, need at least 3", len(expr.Terms))
	}
	op, err := extractOperator(expr.Terms[0])
	if err != nil {
		return nil, err
	}

	var colTerm, valTerm compileTerm
	switch {
	case isDataRef(expr.Terms[1]):
		colTerm, valTerm = expr.Terms[1], expr.Terms[2]
	case isDataRef(expr.Terms[2]):
		colTerm, valTerm = expr.Terms[2], expr.Terms[1]
	default:
		return nil, errors.New("opa: expression has no data ref term")
	}
	if valTerm.Type == "ref" {
		return nil, fmt.Errorf("opa: %s compares two references, need a constant", op)
	}

	colName, err := extractColumnName(colTerm)
	if err != nil {
		return nil, err
	}
	col := table.Col(colName).Name
	val := valTerm.Value

	if cmp, ok := comparisonOps[op]; ok {
		if val == nil {
			switch cmp {
			case nodes.OpEq:
				return nodes.IsNull(col), nil
			case nodes.OpNotEq:
				return nodes.IsNotNull(col), nil
			}
		}
		return nodes.NewOperator(col, cmp, val)
	}

	switch op {
	case "startswith", "endswith", "contains":
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("opa: %s requires string value, got %T", op, val)
		}
		// No ESCAPE clause is portable across platforms, so wildcards
		// cannot be matched literally.
		if strings.ContainsAny(s, `%_\`) {
			return nil, fmt.Errorf("opa: %s value %q contains LIKE wildcards", op, s)
		}
		switch op {
		case "startswith":
			s += "%"
		case "endswith":
			s = "%" + s
		default:
			s = "%" + s + "%"
		}
		return nodes.NewOperator(col, nodes.OpLike, s)
	}
	return nil, fmt.Errorf("opa: unsupported operator %q", op)
}

// translateQueries converts a Compile response query set into predicates
// that are ANDed onto the update's WHERE clause.
//
//   - no queries: access denied
//   - [[]]: unconditional allow (no predicates)
//   - one query: one predicate per expression
//   - several queries: a single group, each query ANDed inside and the
//     queries ORed together
func translateQueries(queries [][]compileExpression, table *nodes.Table) ([]nodes.Predicate, error) {
	if len(queries) == 0 {
		return nil, ErrAccessDenied
	}
	if len(queries) == 1 && len(queries[0]) == 0 {
		return nil, nil
	}

	if len(queries) == 1 {
		conditions := make([]nodes.Predicate, 0, len(queries[0]))
		for _, expr := range queries[0] {
			p, err := translateExpression(expr, table)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, p)
		}
		return conditions, nil
	}

	group := nodes.NewWhere()
	for _, query := range queries {
		// An empty branch admits everything, and so does the OR of all branches.
		if len(query) == 0 {
			return nil, nil
		}
		branch := nodes.NewWhere()
		for _, expr := range query {
			p, err := translateExpression(expr, table)
			if err != nil {
				return nil, err
			}
			branch.AddPredicate(p, nodes.And)
		}
		if branch.Len() == 1 {
			group.AddPredicate(branch.Entries()[0].Predicate, nodes.Or)
		} else {
			group.AddPredicate(branch, nodes.Or)
		}
	}
	return []nodes.Predicate{group}, nil
}

// --- Compile API request ---

type compileRequest struct {
	Query    string   `json:"query"`
	Input    any      `json:"input,omitempty"`
	Unknowns []string `json:"unknowns"`
}

func (c *Client) compile(ctx context.Context, input any, unknowns []string) (*compileResponse, error) {
	data, err := json.Marshal(compileRequest{
		Query:    c.policyPath + " == true",
		Input:    input,
		Unknowns: unknowns,
	})
	if err != nil {
		return nil, fmt.Errorf("opa: failed to marshal compile request: %w", err)
	}
	body, err := c.postJSON(ctx, "/v1/compile", data)
	if err != nil {
		return nil, fmt.Errorf("opa: compile request failed: %w", err)
	}
	return parseCompileResponse(body)
}

// Compile partially evaluates the policy with data.<table> unknown and
// returns the residual conditions as predicates on table, which may carry
// an alias.
func (c *Client) Compile(ctx context.Context, table *nodes.Table) ([]nodes.Predicate, error) {
	parsed, err := c.compile(ctx, c.input, []string{"data." + table.Name})
	if err != nil {
		return nil, err
	}
	return translateQueries(parsed.Result.Queries, table)
}

// --- Input discovery ---

// inputRefPath returns the dotted path of a ref rooted at var "input",
// e.g. "subject.role".
func inputRefPath(term compileTerm) (string, bool) {
	if term.Type != "ref" {
		return "", false
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) < 2 || parts[0].Type != "var" {
		return "", false
	}
	if name, ok := parts[0].Value.(string); !ok || name != "input" {
		return "", false
	}
	segments := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		s, ok := p.Value.(string)
		if p.Type != "string" || !ok {
			return "", false
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, "."), true
}

// extractInputPaths returns the sorted unique input paths referenced by
// any term of the response.
func extractInputPaths(resp *compileResponse) []string {
	seen := map[string]bool{}
	for _, query := range resp.Result.Queries {
		for _, expr := range query {
			for _, term := range expr.Terms {
				if path, ok := inputRefPath(term); ok {
					seen[path] = true
				}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// DiscoverInputs compiles the policy with the whole input unknown and
// reports which input fields it references. Extra data paths such as
// "data.users" may be passed so rules over those paths also leave
// residuals.
func (c *Client) DiscoverInputs(ctx context.Context, dataUnknowns ...string) ([]string, error) {
	unknowns := append([]string{"input"}, dataUnknowns...)
	parsed, err := c.compile(ctx, map[string]any{}, unknowns)
	if err != nil {
		return nil, err
	}
	return extractInputPaths(parsed), nil
}
