package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompleter(t *testing.T, commands ...string) *replCompleter {
	t.Helper()
	sess := NewSession("postgres", nil)
	sess.out = io.Discard
	for _, cmd := range commands {
		require.NoError(t, sess.Execute(cmd), "command %q", cmd)
	}
	return &replCompleter{sess: sess}
}

// complete runs Do at the end of line and returns the full candidates.
func complete(c *replCompleter, line string) []string {
	runes := []rune(line)
	suffixes, length := c.Do(runes, len(runes))
	prefix := string(runes[len(runes)-length:])
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = prefix + string(s[:len(s)-1])
	}
	return out
}

// --- Command completion ---

func TestCompleteCommandsEmpty(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Equal(t, c.sess.commandNames(), complete(c, ""))
}

func TestCompleteCommandsPrefix(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Equal(t, []string{"update"}, complete(c, "upd"))
	assert.Equal(t, []string{"parameterize", "params", "placeholders", "plugin", "plugins", "pretty"}, complete(c, "p"))
}

func TestCommandNamesHidesAliases(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	names := c.sess.commandNames()
	assert.NotContains(t, names, "tosql")
	assert.Contains(t, names, "exit")
	assert.Contains(t, names, "or group")
}

func TestDoSuffixes(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	suffixes, length := c.Do([]rune("eng"), 3)
	assert.Equal(t, 3, length)
	require.Len(t, suffixes, 1)
	assert.Equal(t, "ine ", string(suffixes[0]))
}

// --- Table and column completion ---

func TestCompleteTableNames(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	c.sess.schema.tables = []string{"users", "posts", "comments"}
	assert.Equal(t, []string{"users"}, complete(c, "update u"))
	assert.Equal(t, []string{"comments", "posts", "users"}, complete(c, "update "))
	assert.Equal(t, []string{"posts"}, complete(c, "columns p"))
}

func TestCompleteTableNamesIncludesTarget(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t, "update accounts")
	c.sess.schema.tables = []string{"accounts", "audit"}
	assert.Equal(t, []string{"accounts", "audit"}, complete(c, "update a"))
}

func TestCompleteTableNamesAfterAlias(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	c.sess.schema.tables = []string{"users"}
	assert.Empty(t, complete(c, "update users u"))
}

func TestCompleteColumns(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t, "update users", "set nickname = 'x'")
	c.sess.schema.columns = map[string][]string{
		"users": {"id", "name", "email"},
		"posts": {"id", "title"},
	}
	assert.Equal(t, []string{"name", "nickname"}, complete(c, "where n"))
	assert.Equal(t, []string{"email"}, complete(c, "set name = 'a', e"))
	assert.Equal(t, []string{"posts.title"}, complete(c, "and posts.t"))
	assert.Equal(t, []string{"id"}, complete(c, "unset i"))
}

func TestCompleteColumnsWithoutUpdate(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Empty(t, complete(c, "where i"))
}

func TestCompleteOperators(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t, "update users")
	assert.Equal(t, operators, complete(c, "where name "))
	assert.Equal(t, []string{"like"}, complete(c, "or name l"))
	assert.Equal(t, []string{"<", "<=", "<>"}, complete(c, "where age <"))
	assert.Empty(t, complete(c, "where age > "))
}

// --- Engine, plugin and placeholder completion ---

func TestCompleteEngines(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Equal(t, []string{"mysql"}, complete(c, "engine my"))
	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, complete(c, "engine "))
}

func TestCompletePlugins(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Equal(t, []string{"off", "opa", "softdelete"}, complete(c, "plugin "))
	assert.Equal(t, []string{"softdelete"}, complete(c, "plugin so"))
}

func TestCompletePluginsOff(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Empty(t, complete(c, "plugin off "))

	c = newTestCompleter(t, "plugin softdelete")
	assert.Equal(t, []string{"softdelete"}, complete(c, "plugin off "))
}

func TestCompletePlaceholders(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	assert.Equal(t, []string{"named"}, complete(c, "placeholders n"))
	assert.Equal(t, []string{"named", "positional"}, complete(c, "placeholders "))
}

// --- Context parsing ---

func TestParseContext(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	tests := []struct {
		line   string
		ctx    completionContext
		prefix string
	}{
		{"", contextCommand, ""},
		{"se", contextCommand, "se"},
		{"update ", contextTableName, ""},
		{"update us", contextTableName, "us"},
		{"UPDATE us", contextTableName, "us"},
		{"set na", contextColumnRef, "na"},
		{"set a = 1, b", contextColumnRef, "b"},
		{"set a ", contextNone, ""},
		{"update users u", contextNone, ""},
		{"where ", contextColumnRef, ""},
		{"where id ", contextOperator, ""},
		{"where id =", contextOperator, "="},
		{"or group x", contextColumnRef, "x"},
		{"engine s", contextEngine, "s"},
		{"plugin s", contextPlugin, "s"},
		{"plugin off s", contextPluginOff, "s"},
		{"placeholders p", contextPlaceholders, "p"},
		{"columns u", contextTableName, "u"},
		{"sql", contextCommand, "sql"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			ctx, prefix := c.parseContext(tt.line)
			assert.Equal(t, tt.ctx, ctx)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

// --- Helpers ---

func TestFilterPrefix(t *testing.T) {
	t.Parallel()
	items := []string{"Users", "posts", "user_roles"}
	assert.Equal(t, []string{"Users", "user_roles"}, filterPrefix(items, "us"))
	assert.Equal(t, items, filterPrefix(items, ""))
	assert.Nil(t, filterPrefix(items, "z"))
}

func TestDedup(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, dedup([]string{"a", "b", "a"}))
}

func TestLastToken(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "b", lastToken("a = 1,b"))
	assert.Equal(t, "c", lastToken("a c"))
	assert.Equal(t, "x", lastToken("x"))
	assert.Equal(t, "", lastToken("x "))
}
