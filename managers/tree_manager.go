// Package managers provides the fluent UpdateManager that assembles an
// UPDATE statement and renders it through a visitor.
package managers

import (
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/plugins"
)

// treeManager holds the transformer pipeline applied to a cloned statement
// before every render.
type treeManager struct {
	transformers []plugins.Transformer
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

func (tm *treeManager) cloneTransformers() treeManager {
	if tm.transformers == nil {
		return treeManager{}
	}
	ts := make([]plugins.Transformer, len(tm.transformers))
	copy(ts, tm.transformers)
	return treeManager{transformers: ts}
}

// toSQLParams resets a parameterizer (if present), calls the provided
// generate function, and returns SQL + params.
func toSQLParams(v nodes.Visitor, generate func(nodes.Visitor) (string, error)) (string, []any, error) {
	p, _ := v.(nodes.Parameterizer)
	if p != nil {
		p.Reset()
	}

	sql, err := generate(v)
	if err != nil {
		return "", nil, err
	}

	if p != nil {
		return sql, p.Params(), nil
	}
	return sql, nil, nil
}
