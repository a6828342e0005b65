package sim

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/playrollio/backend/internal/game"
)

// EnsureJournalSchema creates the session journal table. Called once at
// startup when a database is configured.
func EnsureJournalSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS peer_sessions (
			id              SERIAL PRIMARY KEY,
			peer_id         BIGINT NOT NULL,
			ball_id         BIGINT NOT NULL,
			connected_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			disconnected_at TIMESTAMPTZ
		)`)
	return err
}

// recordConnect journals a peer-to-ball binding. Journal failures never
// affect the simulation: they are logged and dropped.
func (s *Server) recordConnect(peer PeerID, ball game.BallID) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO peer_sessions (peer_id, ball_id) VALUES ($1, $2)`,
		int64(peer), int64(ball),
	)
	if err != nil {
		log.Printf("[DB] failed to journal connect for peer %d: %v", peer, err)
	}
}

func (s *Server) recordDisconnect(peer PeerID) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`UPDATE peer_sessions SET disconnected_at = NOW()
		 WHERE peer_id = $1 AND disconnected_at IS NULL`,
		int64(peer),
	)
	if err != nil {
		log.Printf("[DB] failed to journal disconnect for peer %d: %v", peer, err)
	}
}
