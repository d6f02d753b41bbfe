package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxury/internal/journal"
)

// seedJournal writes a small journal: one ok broadcast with a commit, one
// failed broadcast, and one SetState commit.
func seedJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "fluxury.db")
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.WriteBroadcast(ctx, journal.Broadcast{ID: "b-1", Seq: 1, ActionType: "INC", Payload: "1"}))
	require.NoError(t, j.WriteCommit(ctx, journal.Commit{BroadcastID: "b-1", Seq: 2, Store: "CountStore", State: "1", StateHash: "h1"}))
	require.NoError(t, j.WriteCommit(ctx, journal.Commit{BroadcastID: "b-1", Seq: 3, Store: "Derived", State: `{"count":1}`, StateHash: "h2"}))
	require.NoError(t, j.FinishBroadcast(ctx, "b-1", journal.StatusOK, ""))

	require.NoError(t, j.WriteBroadcast(ctx, journal.Broadcast{ID: "b-2", Seq: 4, ActionType: "BOOM"}))
	require.NoError(t, j.FinishBroadcast(ctx, "b-2", journal.StatusError, "REDUCER_PANIC: boom"))

	require.NoError(t, j.WriteCommit(ctx, journal.Commit{Seq: 5, Store: "CountStore", State: "10", StateHash: "h3", Via: journal.ViaSetState}))
	return dbPath
}

func TestTraceText(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(textOpts()), "--journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] b-1 INC (ok)")
	assert.Contains(t, out, "[2] CountStore = 1")
	assert.Contains(t, out, `[3] Derived = {"count":1}`)
	assert.Contains(t, out, "[4] b-2 BOOM (error)")
	assert.Contains(t, out, "Error: REDUCER_PANIC: boom")
	assert.Contains(t, out, "=== Direct commits ===")
	assert.Contains(t, out, "[5] CountStore = 10")
	assert.Contains(t, out, "Broadcasts: 2")
	assert.Contains(t, out, "Failed:     1")
	assert.Contains(t, out, "Commits:    3")
}

func TestTraceJSON(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(jsonOpts()), "--journal", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Broadcasts, 2)
	assert.Equal(t, "b-1", resp.Data.Broadcasts[0].ID)
	assert.Len(t, resp.Data.Broadcasts[0].Commits, 2)
	assert.Empty(t, resp.Data.Broadcasts[1].Commits)
	require.Len(t, resp.Data.Direct, 1)
	assert.Equal(t, journal.ViaSetState, resp.Data.Direct[0].Via)
	assert.Equal(t, TraceStats{Broadcasts: 2, Failed: 1, Commits: 3}, resp.Data.Stats)
}

func TestTraceSingleBroadcast(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(jsonOpts()), "--journal", dbPath, "--broadcast", "b-1")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Broadcasts, 1)
	assert.Equal(t, "INC", resp.Data.Broadcasts[0].ActionType)
	assert.Empty(t, resp.Data.Direct)
}

func TestTraceStoreFilter(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(jsonOpts()), "--journal", dbPath, "--store", "Derived")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Broadcasts[0].Commits, 1)
	assert.Equal(t, "Derived", resp.Data.Broadcasts[0].Commits[0].Store)
	assert.Empty(t, resp.Data.Direct)
	assert.Equal(t, 1, resp.Data.Stats.Commits)
}

func TestTraceUnknownBroadcast(t *testing.T) {
	dbPath := seedJournal(t)

	out, _, err := execute(NewTraceCommand(textOpts()), "--journal", dbPath, "--broadcast", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "broadcast not found: nope")
}

func TestTraceNonExistentJournal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	out, _, err := execute(NewTraceCommand(textOpts()), "--journal", missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
	assert.NoFileExists(t, missing)
}

func TestTraceRequiresJournal(t *testing.T) {
	_, _, err := execute(NewTraceCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FLUXURY_JOURNAL")
}

func TestTraceVerbose(t *testing.T) {
	dbPath := seedJournal(t)
	opts := &RootOptions{Format: "text", Verbose: true}

	out, _, err := execute(NewTraceCommand(opts), "--journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Payload: 1")
	assert.Contains(t, out, "via set_state")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "b-1", truncateID("b-1"))
	assert.Equal(t, "0192e0c4...4b5c6d7e", truncateID("0192e0c4-1a2b-7c3d-8e4f-0a1b4b5c6d7e"))
}
