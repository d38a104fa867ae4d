package driver

// StatementContainer receives the SQL text and bound parameters of a
// prepared statement.
type StatementContainer interface {
	SetSQL(sql string)
	SQL() string
	ParameterContainer() *ParameterContainer
}

// Statement is the default StatementContainer.
type Statement struct {
	sql    string
	params *ParameterContainer
}

var _ StatementContainer = (*Statement)(nil)

// NewStatement returns a statement with an empty parameter container.
func NewStatement() *Statement {
	return &Statement{params: NewParameterContainer()}
}

func (s *Statement) SetSQL(sql string) { s.sql = sql }

func (s *Statement) SQL() string { return s.sql }

func (s *Statement) ParameterContainer() *ParameterContainer {
	if s.params == nil {
		s.params = NewParameterContainer()
	}
	return s.params
}

// Args returns the bound parameters as database/sql arguments.
func (s *Statement) Args() []any {
	return s.ParameterContainer().Args()
}
