package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripts(t *testing.T) {
	pg, err := scripts("postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, "001_gallery.sql", pg[0].name)
	assert.Contains(t, pg[0].sql, "CREATE TABLE IF NOT EXISTS gallery_snapshots")
	assert.Contains(t, pg[0].sql, "CREATE TABLE IF NOT EXISTS gallery_tokens")

	ch, err := scripts("clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)

	stmts, err := splitStatements(ch[0].sql)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS reconcile_passes"))
}

func TestScripts_MissingDir(t *testing.T) {
	_, err := scripts("mysql")
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name: "line comments and blank lines",
			input: `
-- comment; with semicolon
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (y UInt8) ENGINE = Memory;
`,
			want: []string{
				"CREATE TABLE a (x UInt8) ENGINE = Memory",
				"CREATE TABLE b (y UInt8) ENGINE = Memory",
			},
		},
		{
			name:  "semicolon inside string",
			input: "SELECT 'a;b'; SELECT 2",
			want:  []string{"SELECT 'a;b'", "SELECT 2"},
		},
		{
			name:  "doubled quote",
			input: "SELECT 'it''s;'; SELECT 1;",
			want:  []string{"SELECT 'it''s;'", "SELECT 1"},
		},
		{
			name:  "block comment",
			input: "SELECT /* x; y */ 1;",
			want:  []string{"SELECT   1"},
		},
		{
			name:  "empty",
			input: "  -- only a comment\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitStatements(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitStatements_Unterminated(t *testing.T) {
	_, err := splitStatements("SELECT 'open;")
	assert.Error(t, err)

	_, err = splitStatements("SELECT 1 /* never closed")
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`gallery`", quoteIdent("gallery"))
	assert.Equal(t, "`we``ird`", quoteIdent("we`ird"))
}
