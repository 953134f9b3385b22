package chessdto

import "time"

// ArchivedGame summarises a finished game kept by the archive.
type ArchivedGame struct {
	ID          string    `json:"id"`
	PlayerColor string    `json:"player_color"`
	Result      string    `json:"result"`
	Winner      string    `json:"winner,omitempty"`
	Method      string    `json:"method,omitempty"`
	MovesSAN    []string  `json:"moves_san"`
	PGN         string    `json:"pgn"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationMS  int64     `json:"duration_ms"`
}
