package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/fluxury/internal/ir"
)

// WriteBroadcast inserts a broadcast row. Duplicate IDs are ignored so an
// observer replaying the same start event stays idempotent.
func (j *Journal) WriteBroadcast(ctx context.Context, b Broadcast) error {
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.Payload == "" {
		b.Payload = "null"
	}
	if b.EngineVersion == "" {
		b.EngineVersion = ir.EngineVersion
	}
	if b.JournalVersion == "" {
		b.JournalVersion = ir.JournalVersion
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO broadcasts
		(id, seq, action_type, payload, status, error, engine_version, journal_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		b.ID,
		b.Seq,
		b.ActionType,
		b.Payload,
		b.Status,
		b.Error,
		b.EngineVersion,
		b.JournalVersion,
	)
	if err != nil {
		return fmt.Errorf("write broadcast: %w", err)
	}
	return nil
}

// FinishBroadcast sets the final status of a broadcast.
func (j *Journal) FinishBroadcast(ctx context.Context, id, status, errText string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE broadcasts SET status = ?, error = ? WHERE id = ?
	`, status, errText, id)
	if err != nil {
		return fmt.Errorf("finish broadcast: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish broadcast: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish broadcast %q: %w", id, sql.ErrNoRows)
	}
	return nil
}

// WriteCommit appends a commit row.
func (j *Journal) WriteCommit(ctx context.Context, c Commit) error {
	if c.Via == "" {
		c.Via = ViaReducer
	}
	var broadcastID sql.NullString
	if c.BroadcastID != "" {
		broadcastID = sql.NullString{String: c.BroadcastID, Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO commits (broadcast_id, seq, store, state, state_hash, via)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		broadcastID,
		c.Seq,
		c.Store,
		c.State,
		c.StateHash,
		c.Via,
	)
	if err != nil {
		return fmt.Errorf("write commit: %w", err)
	}
	return nil
}

// encode returns the canonical JSON of v. Values the canonical encoder
// rejects (channels, funcs, NaN) come back as null with an empty hash and
// the encoder's error.
func encode(v any) (canonical string, hash string, err error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "null", "", err
	}
	h, err := ir.StateHash(v)
	if err != nil {
		return string(data), "", err
	}
	return string(data), h, nil
}
