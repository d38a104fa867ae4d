package platform

import (
	"testing"

	"github.com/bawdo/sqlupdate/internal/testutil"
)

func TestQuoting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		platform  Platform
		ident     string
		chain     string
		value     string
		wantIdent string
		wantChain string
		wantValue string
	}{
		{"sql92", SQL92{}, "users", "public.users", `it's \n`, `"users"`, `"public"."users"`, `'it''s \n'`},
		{"postgres", Postgres{}, "users", "u.name", "x", `"users"`, `"u"."name"`, `'x'`},
		{"sqlite", SQLite{}, `we"ird`, "a.b", "", `"we""ird"`, `"a"."b"`, `''`},
		{"mysql", MySQL{}, "users", "db.users", `it's \n`, "`users`", "`db`.`users`", `'it''s \\n'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, tt.platform.QuoteIdentifier(tt.ident), tt.wantIdent)
			testutil.AssertEqual(t, tt.platform.QuoteIdentifierChain(tt.chain), tt.wantChain)
			testutil.AssertEqual(t, tt.platform.QuoteValue(tt.value), tt.wantValue)
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, SQL92{}.Name(), "SQL92")
	testutil.AssertEqual(t, Postgres{}.Name(), "PostgreSQL")
	testutil.AssertEqual(t, SQLite{}.Name(), "SQLite")
	testutil.AssertEqual(t, MySQL{}.Name(), "MySQL")
}

func TestForEngine(t *testing.T) {
	t.Parallel()
	p, err := ForEngine("mysql")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, p.Name(), "MySQL")

	_, err = ForEngine("oracle")
	testutil.AssertError(t, err)
}

func TestEngines(t *testing.T) {
	t.Parallel()
	got := Engines()
	want := []string{"mysql", "postgres", "sql92", "sqlite"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i])
	}
}
