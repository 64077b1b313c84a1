package journal

import (
	"context"
	"fmt"

	"github.com/tomhutton/strata/internal/state"
)

// Entry is one journaled action, decoded.
type Entry struct {
	Seq    int64
	Action state.Action
}

// Entries reads the full log in seq order and decodes each action.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, kind, payload FROM actions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			seq     int64
			kind    string
			payload string
		)
		if err := rows.Scan(&seq, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		act, err := j.codec.Decode(state.Kind(kind), []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("journal seq %d: %w", seq, err)
		}
		entries = append(entries, Entry{Seq: seq, Action: act})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// Replay folds the journal through the store's Dispatch in seq order
// and returns the number of actions replayed.
//
// Replay is structurally identical to the original run: same actions,
// same order, same pure reducers, therefore the same final tree. The
// target store should be fresh (initial state) and must not have this
// journal attached as a tap, or every replayed action would be
// re-appended.
func (j *Journal) Replay(ctx context.Context, s *state.Store) (int, error) {
	entries, err := j.Entries(ctx)
	if err != nil {
		return 0, err
	}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.Dispatch(entry.Action); err != nil {
			return i, fmt.Errorf("replay seq %d (%s): %w", entry.Seq, entry.Action.Kind(), err)
		}
	}
	j.log.Info("journal replayed", "actions", len(entries))
	return len(entries), nil
}
