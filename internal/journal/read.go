package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadBroadcasts returns every broadcast ordered by seq, then id.
// Returns an empty slice (not nil) for an empty journal.
func (j *Journal) ReadBroadcasts(ctx context.Context) ([]Broadcast, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq, action_type, payload, status, error, engine_version, journal_version
		FROM broadcasts
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query broadcasts: %w", err)
	}
	defer rows.Close()

	broadcasts := []Broadcast{}
	for rows.Next() {
		var b Broadcast
		if err := rows.Scan(&b.ID, &b.Seq, &b.ActionType, &b.Payload, &b.Status, &b.Error, &b.EngineVersion, &b.JournalVersion); err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		broadcasts = append(broadcasts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate broadcasts: %w", err)
	}
	return broadcasts, nil
}

// ReadBroadcast returns a single broadcast. Returns sql.ErrNoRows if absent.
func (j *Journal) ReadBroadcast(ctx context.Context, id string) (Broadcast, error) {
	var b Broadcast
	err := j.db.QueryRowContext(ctx, `
		SELECT id, seq, action_type, payload, status, error, engine_version, journal_version
		FROM broadcasts
		WHERE id = ?
	`, id).Scan(&b.ID, &b.Seq, &b.ActionType, &b.Payload, &b.Status, &b.Error, &b.EngineVersion, &b.JournalVersion)
	if err != nil {
		return Broadcast{}, fmt.Errorf("read broadcast %q: %w", id, err)
	}
	return b, nil
}

// ReadCommits returns the commits made during a broadcast, in commit order.
// An empty broadcastID selects commits made outside any broadcast.
func (j *Journal) ReadCommits(ctx context.Context, broadcastID string) ([]Commit, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if broadcastID == "" {
		rows, err = j.db.QueryContext(ctx, `
			SELECT broadcast_id, seq, store, state, state_hash, via
			FROM commits
			WHERE broadcast_id IS NULL
			ORDER BY seq ASC, id ASC
		`)
	} else {
		rows, err = j.db.QueryContext(ctx, `
			SELECT broadcast_id, seq, store, state, state_hash, via
			FROM commits
			WHERE broadcast_id = ?
			ORDER BY seq ASC, id ASC
		`, broadcastID)
	}
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	commits := []Commit{}
	for rows.Next() {
		var c Commit
		var bid sql.NullString
		if err := rows.Scan(&bid, &c.Seq, &c.Store, &c.State, &c.StateHash, &c.Via); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		c.BroadcastID = bid.String
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return commits, nil
}

// CountCommits returns how many commits store has made.
func (j *Journal) CountCommits(ctx context.Context, store string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM commits WHERE store = ?
	`, store).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}
