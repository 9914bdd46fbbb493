package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEmptyLedger(t *testing.T) {
	db := filepath.Join(t.TempDir(), "extract.db")

	stdout, _, err := runCommand(t, NewRootCommand(), "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No sessions recorded.")
}

func TestHistoryListsNewestFirst(t *testing.T) {
	input := copyFixture(t, "shapes.json")
	db := filepath.Join(t.TempDir(), "extract.db")

	for _, id := range []string{"s-1", "s-2", "s-3"} {
		opts := emitOpts("text", id)
		opts.Database = db
		_, _, err := execEmit(t, opts, input)
		require.NoError(t, err)
	}

	stdout, _, err := runCommand(t, NewRootCommand(), "--format", "json", "history", "--db", db, "--limit", "2")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, []string{"s-3", "s-2"}, []string{resp.Data.Sessions[0].ID, resp.Data.Sessions[1].ID})
	assert.Equal(t, resp.Data.Sessions[0].OutputHash, resp.Data.Sessions[1].OutputHash)

	stdout, _, err = runCommand(t, NewRootCommand(), "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OUTPUT HASH")
	assert.Contains(t, stdout, "s-1")
	assert.Contains(t, stdout, "shapes")
	assert.Contains(t, stdout, shortHash(resp.Data.Sessions[0].OutputHash))
}

func TestHistoryRequiresDB(t *testing.T) {
	_, _, err := runCommand(t, NewRootCommand(), "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
}
