package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bawdo/sqlupdate/managers"
	"github.com/bawdo/sqlupdate/nodes"
	"github.com/bawdo/sqlupdate/plugins/softdelete"
)

// rawTag marks a scalar as trusted SQL: `updated_at: !raw NOW()`.
const rawTag = "!raw"

// document is the YAML form of an UPDATE statement:
//
//	engine: postgres
//	table: users
//	alias: u
//	set:
//	  name: Bob
//	  updated_at: !raw NOW()
//	where:
//	  - id: 7                      # column = value
//	  - "age >=": 18               # operator key
//	  - "name LIKE ?": "B%"        # template with placeholders
//	  - or:                        # nested group joined with OR
//	      - role: admin
//	      - or: {role: [owner, staff]}  # IN list
//	softdelete: deleted_at
//
// Mappings keep their document order. A where item is a string expression,
// a mapping of conditions joined with AND, a sequence (nested group), or a
// single "or"/"and" key whose value is any of those.
type document struct {
	Engine     string    `yaml:"engine,omitempty"`
	Table      string    `yaml:"table"`
	Alias      string    `yaml:"alias,omitempty"`
	Set        yaml.Node `yaml:"set"`
	Where      yaml.Node `yaml:"where,omitempty"`
	SoftDelete string    `yaml:"softdelete,omitempty"`
}

func decodeDocument(r io.Reader) (*document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	return &doc, nil
}

// build assembles the UpdateManager described by the document.
func (d *document) build() (*managers.UpdateManager, error) {
	var alias []string
	if d.Alias != "" {
		alias = append(alias, d.Alias)
	}
	m := managers.NewUpdateManager().Table(d.Table, alias...)

	if d.Set.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: set must be a mapping of column: value", d.Set.Line)
	}
	pairs, err := decodePairs(&d.Set)
	if err != nil {
		return nil, err
	}
	m.SetPairs(pairs)

	if d.Where.Kind != 0 {
		if d.Where.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: where must be a sequence of conditions", d.Where.Line)
		}
		for _, item := range d.Where.Content {
			c, input, err := decodeCondition(item)
			if err != nil {
				return nil, err
			}
			m.Where(input, c)
		}
	}

	if d.SoftDelete != "" {
		m.Use(softdelete.New(softdelete.WithColumn(d.SoftDelete)))
	}
	return m, m.Err()
}

// decodeCondition returns the combinator and Where input for one item.
func decodeCondition(n *yaml.Node) (nodes.Combinator, any, error) {
	if n.Kind == yaml.MappingNode && len(n.Content) == 2 {
		switch strings.ToLower(n.Content[0].Value) {
		case "or":
			input, err := decodeInput(n.Content[1])
			return nodes.Or, input, err
		case "and":
			input, err := decodeInput(n.Content[1])
			return nodes.And, input, err
		}
	}
	input, err := decodeInput(n)
	return nodes.And, input, err
}

func decodeInput(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, fmt.Errorf("line %d: empty condition", n.Line)
		}
		return n.Value, nil
	case yaml.MappingNode:
		return decodePairs(n)
	case yaml.SequenceNode:
		group := nodes.NewWhere()
		for _, item := range n.Content {
			c, input, err := decodeCondition(item)
			if err != nil {
				return nil, err
			}
			if err := group.Add(input, c); err != nil {
				return nil, fmt.Errorf("line %d: %w", item.Line, err)
			}
		}
		return group, nil
	case yaml.AliasNode:
		return decodeInput(n.Alias)
	}
	return nil, fmt.Errorf("line %d: unsupported condition", n.Line)
}

// decodePairs reads a mapping in document order.
func decodePairs(n *yaml.Node) (nodes.Pairs, error) {
	pairs := make(nodes.Pairs, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := decodeValue(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, nodes.KV(n.Content[i].Value, v))
	}
	return pairs, nil
}

func decodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == rawTag {
			return nodes.Raw(n.Value), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := decodeValue(c)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case yaml.AliasNode:
		return decodeValue(n.Alias)
	}
	return nil, fmt.Errorf("line %d: mappings are not valid values", n.Line)
}

type renderOptions struct {
	file    string
	literal bool
	named   bool
}

func newRenderCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render -f <file.yaml>",
		Short: "Render an UPDATE statement described in YAML",
		Long: `Render an UPDATE statement from a YAML document.

The --engine flag overrides the document's engine; without either the
statement is rendered for postgres. Use - as the file to read stdin.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML document to render (- for stdin)")
	cmd.Flags().BoolVar(&opts.literal, "literal", false, "inline values instead of binding them")
	cmd.Flags().BoolVar(&opts.named, "named", false, "use named placeholders (:p1, :p2, ...)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runRender(rootOpts *rootOptions, opts *renderOptions, stdin io.Reader, out io.Writer) error {
	in := stdin
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	doc, err := decodeDocument(in)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.file, err)
	}
	m, err := doc.build()
	if err != nil {
		return fmt.Errorf("%s: %w", opts.file, err)
	}

	engine := rootOpts.engine
	if engine == "" {
		engine = strings.ToLower(doc.Engine)
	}
	if engine != "" && !isValidEngine(engine) {
		return fmt.Errorf("invalid engine %q", engine)
	}

	sql, params, err := m.ToSQL(newDialectVisitor(engine, !opts.literal, opts.named))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s;\n", sql)
	if len(params) > 0 {
		_, _ = fmt.Fprintf(out, "-- params: %v\n", params)
	}
	return nil
}
