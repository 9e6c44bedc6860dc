package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionArchive is the row written for every finished session.
type SessionArchive struct {
	SessionID uuid.UUID
	Variant   string
	Reason    string
	WinnerID  string
	Side      string
	Snapshot  []byte // public final state, JSONB
}

// ArchiveSession upserts the archive row. Best-effort: called off the
// hot path, failures are logged and dropped. No-op without a pool.
func ArchiveSession(a *SessionArchive) {
	if DB == nil || a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := `
		INSERT INTO sessions (id, variant, reason, winner_id, side, final_state, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id)
		DO UPDATE SET reason = EXCLUDED.reason, winner_id = EXCLUDED.winner_id,
		              side = EXCLUDED.side, final_state = EXCLUDED.final_state,
		              finished_at = EXCLUDED.finished_at
	`
	if _, err := DB.Exec(ctx, q, a.SessionID, a.Variant, a.Reason, a.WinnerID, a.Side, a.Snapshot); err != nil {
		logrus.WithField("session", a.SessionID).WithError(err).Warn("session archive write failed")
	}
}
