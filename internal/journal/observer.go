package journal

import (
	"context"
	"fmt"

	"github.com/roach88/fluxury/internal/observe"
)

// OnEvent journals broadcast and commit events. Other events are ignored.
//
// Observer callbacks cannot fail, so write errors are logged and the first
// one is kept for Err.
func (j *Journal) OnEvent(ctx context.Context, event observe.Event) {
	var err error
	switch event.Type {
	case observe.BroadcastStart:
		payload, _, encErr := encode(event.Data["payload"])
		j.warnUnencodable(event, "payload", encErr)
		err = j.WriteBroadcast(ctx, Broadcast{
			ID:         event.BroadcastID,
			Seq:        event.Seq,
			ActionType: event.ActionType,
			Payload:    payload,
		})

	case observe.BroadcastEnd:
		err = j.FinishBroadcast(ctx, event.BroadcastID, StatusOK, "")

	case observe.BroadcastError:
		errText, _ := event.Data["error"].(string)
		err = j.FinishBroadcast(ctx, event.BroadcastID, StatusError, errText)

	case observe.StoreCommit:
		state, hash, encErr := encode(event.Data["state"])
		j.warnUnencodable(event, "state", encErr)
		via := ViaReducer
		if v, ok := event.Data["via"].(string); ok && v != "" {
			via = v
		}
		err = j.WriteCommit(ctx, Commit{
			BroadcastID: event.BroadcastID,
			Seq:         event.Seq,
			Store:       event.Store,
			State:       state,
			StateHash:   hash,
			Via:         via,
		})

	default:
		return
	}

	if err != nil {
		err = fmt.Errorf("journal %s: %w", event.Type, err)
		j.logger.Error("journal write failed",
			"event", string(event.Type),
			"broadcast_id", event.BroadcastID,
			"error", err,
		)
		j.recordErr(err)
	}
}

// warnUnencodable logs a value that was journaled as null because it has
// no canonical JSON form. The row itself is still written.
func (j *Journal) warnUnencodable(event observe.Event, field string, err error) {
	if err == nil {
		return
	}
	j.logger.Warn("journal value not encodable, stored as null",
		"event", string(event.Type),
		"broadcast_id", event.BroadcastID,
		"store", event.Store,
		"field", field,
		"error", err,
	)
}

var _ observe.Observer = (*Journal)(nil)
