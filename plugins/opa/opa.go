// Package opa provides a Transformer that enforces Open Policy Agent row
// policies on UPDATE statements by ANDing policy-derived conditions onto
// the WHERE clause.
//
// In function mode you supply a [PolicyFunc] that is called with the
// target table. It returns zero or more predicates to append. If it
// returns an error the update is rejected entirely, which suits hard
// "access denied" rules.
//
// # Basic usage
//
//	policy := func(table *nodes.Table) ([]nodes.Predicate, error) {
//	    switch table.Name {
//	    case "secrets":
//	        return nil, errors.New("access denied")
//	    case "users":
//	        p, err := nodes.NewOperator(table.Col("tenant_id").Name, nodes.OpEq, 42)
//	        return []nodes.Predicate{p}, err
//	    }
//	    return nil, nil
//	}
//
//	m := managers.NewUpdateManager().Table("users").Set("name", "Bob")
//	m.Use(opa.New(policy))
//	// UPDATE "users" SET "name" = $1 WHERE "users"."tenant_id" = $2
//
// # Server mode
//
// [NewFromServer] asks an OPA server's Compile API to partially evaluate
// the policy with data.<table> unknown, and translates the residual
// queries into predicates. Several residual queries become one
// parenthesized OR group.
//
//	m.Use(opa.NewFromServer("http://localhost:8181", "data.authz.allow",
//	    map[string]any{"subject": map[string]any{"tenant": 42}}))
//
// # Combining with other plugins
//
// Transformers apply in registration order:
//
//	m.Use(softdelete.New())
//	m.Use(opa.New(policy))
//
// # REPL usage
//
//	sqlupdate> plugin opa http://localhost:8181 authz.allow subject.tenant=42
//	sqlupdate> plugin off opa
package opa

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/plugins"
)

// PolicyFunc evaluates a policy for the target table and returns conditions
// to AND onto the WHERE clause. A non-nil error rejects the update.
type PolicyFunc func(table *nodes.Table) ([]nodes.Predicate, error)

// Option configures a server-mode OPA transformer.
type Option func(*OPA)

// WithHTTPClient replaces the default HTTP client (5s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(o *OPA) { o.client.httpClient = hc }
}

// WithTimeout bounds each Compile call made during rendering.
func WithTimeout(d time.Duration) Option {
	return func(o *OPA) { o.timeout = d }
}

// OPA is a Transformer that evaluates a policy against the target table
// and appends the resulting conditions. It works in two modes:
//   - function mode (via [New]) calls a Go function
//   - server mode (via [NewFromServer]) calls an OPA server's Compile API
type OPA struct {
	plugins.BaseTransformer
	evalPolicy PolicyFunc
	client     *Client
	timeout    time.Duration
}

// New creates an OPA transformer with the given policy function.
func New(policy PolicyFunc) *OPA {
	return &OPA{evalPolicy: policy}
}

// NewFromServer creates an OPA transformer backed by an OPA server. url is
// the server's base URL, policyPath the rule to satisfy ("data." is
// prepended when missing), and input the input document sent with every
// request.
func NewFromServer(url, policyPath string, input map[string]any, opts ...Option) *OPA {
	o := &OPA{client: NewClient(url, policyPath, input)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Client returns the server client, or nil in function mode.
func (o *OPA) Client() *Client { return o.client }

// TransformUpdate evaluates the policy for the target table and appends
// the returned conditions with AND. Statements without a table pass
// through unchanged.
func (o *OPA) TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	ref, ok := plugins.TargetTable(stmt)
	if !ok {
		return stmt, nil
	}
	conditions, err := o.conditions(ref.Relation)
	if err != nil {
		return nil, err
	}
	for _, c := range conditions {
		if c == nil {
			return nil, fmt.Errorf("opa: policy for %q returned a nil condition", ref.Name)
		}
		plugins.AppendAnd(stmt, c)
	}
	return stmt, nil
}

func (o *OPA) conditions(table *nodes.Table) ([]nodes.Predicate, error) {
	if o.client == nil {
		if o.evalPolicy == nil {
			return nil, nil
		}
		return o.evalPolicy(table)
	}
	ctx := context.Background()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.client.Compile(ctx, table)
}
