package sim

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

const snapshotKey = "world:snapshot"

// maybeSnapshot publishes the world state to Redis on the configured
// cadence so operators can inspect a running server. Disabled when no
// Redis client is wired in.
func (s *Server) maybeSnapshot() {
	if s.rdb == nil || s.tick%s.snapshotEvery != 0 {
		return
	}

	out := make([]BallView, 0, len(s.balls))
	for _, id := range s.sortedIDs() {
		out = append(out, BallView{Ball: *s.balls[id], Owner: s.owners[id]})
	}

	data, err := json.Marshal(map[string]interface{}{
		"tick":  s.tick,
		"balls": out,
	})
	if err != nil {
		log.Printf("[SNAPSHOT] marshal failed: %v", err)
		return
	}

	if err := s.rdb.SetEx(context.Background(), snapshotKey, data, time.Hour).Err(); err != nil {
		log.Printf("[SNAPSHOT] write failed: %v", err)
	}
}
