// Package plugins defines the Transformer interface for AST middleware.
package plugins

import "github.com/bawdo/sqlupdate/nodes"

// Transformer rewrites an UPDATE statement before it is rendered. The
// manager passes a deep copy, so transformers may mutate it freely.
type Transformer interface {
	TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error)

func (f TransformerFunc) TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	return f(stmt)
}

// BaseTransformer returns the statement unchanged. Plugins embed it when
// they only need to carry configuration.
type BaseTransformer struct{}

func (BaseTransformer) TransformUpdate(s *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	return s, nil
}
