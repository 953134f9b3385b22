package domain

import (
	"fmt"
	"strings"
	"time"
)

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool { return c == White || c == Black }

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(raw string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return "", fmt.Errorf("unknown color %q", raw)
	}
}

// PieceKind is the lowercase piece symbol: p, n, b, r, q, k.
type PieceKind string

const (
	Pawn   PieceKind = "p"
	Knight PieceKind = "n"
	Bishop PieceKind = "b"
	Rook   PieceKind = "r"
	Queen  PieceKind = "q"
	King   PieceKind = "k"
)

var pieceValues = map[PieceKind]int{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0,
}

// Value is the material value used for capture ordering and ledger totals.
func (k PieceKind) Value() int { return pieceValues[k] }

func (k PieceKind) Valid() bool {
	_, ok := pieceValues[k]
	return ok
}

// PromotionKinds lists the pieces a pawn may become, in menu order.
var PromotionKinds = []PieceKind{Queen, Rook, Bishop, Knight}

// ParsePromotion accepts symbols ("q") and names ("queen").
func ParsePromotion(raw string) (PieceKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "q", "queen":
		return Queen, nil
	case "r", "rook":
		return Rook, nil
	case "b", "bishop":
		return Bishop, nil
	case "n", "knight":
		return Knight, nil
	default:
		return "", fmt.Errorf("invalid promotion piece %q", raw)
	}
}

// Piece is a coloured piece on a square.
type Piece struct {
	Kind  PieceKind `json:"kind"`
	Color Color     `json:"color"`
}

// Square is an algebraic square name such as "e4".
type Square string

// ParseSquare normalises and validates an algebraic square.
func ParseSquare(raw string) (Square, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return "", fmt.Errorf("invalid square %q", raw)
	}
	return Square(s), nil
}

// File returns 0 for the a-file through 7 for the h-file.
func (s Square) File() int { return int(s[0] - 'a') }

// Rank returns 1 through 8.
func (s Square) Rank() int { return int(s[1] - '0') }

func (s Square) String() string { return string(s) }

// PromotionRank is the farthest rank for a pawn of c.
func PromotionRank(c Color) int {
	if c == White {
		return 8
	}
	return 1
}

// CenterSquares are the four central squares.
var CenterSquares = []Square{"d4", "d5", "e4", "e5"}

// IsCenter reports whether s is one of the four central squares.
func (s Square) IsCenter() bool {
	for _, c := range CenterSquares {
		if s == c {
			return true
		}
	}
	return false
}

// LegalMove is one legal destination from an origin, as reported by the rules engine.
// Promotion variants are folded into a single entry with PromotionEligible set.
type LegalMove struct {
	From              Square     `json:"from"`
	To                Square     `json:"to"`
	Captured          *PieceKind `json:"captured,omitempty"`
	PromotionEligible bool       `json:"promotion_eligible,omitempty"`
}

// IsCapture reports whether the move takes a piece.
func (m LegalMove) IsCapture() bool { return m.Captured != nil }

// MoveIntent is a request to play From→To, optionally promoting.
type MoveIntent struct {
	From      Square     `json:"from"`
	To        Square     `json:"to"`
	Promotion *PieceKind `json:"promotion,omitempty"`
}

// MoveRecord is one applied ply. Records are never mutated after creation.
type MoveRecord struct {
	From      Square     `json:"from"`
	To        Square     `json:"to"`
	Color     Color      `json:"color"`
	Captured  *PieceKind `json:"captured,omitempty"`
	Promotion *PieceKind `json:"promotion,omitempty"`
	SAN       string     `json:"san"`
	UCI       string     `json:"uci"`
}

// KindPtr returns a pointer to a copy of k.
func KindPtr(k PieceKind) *PieceKind { return &k }

// Outcome describes how a finished game ended.
type Outcome struct {
	// Result is "1-0", "0-1", "1/2-1/2" or "*".
	Result string `json:"result"`
	Winner Color  `json:"winner,omitempty"`
	// Method is a lowercase reason such as "checkmate" or "stalemate".
	Method string `json:"method,omitempty"`
}

// Finished reports whether the outcome is terminal.
func (o Outcome) Finished() bool { return o.Result != "" && o.Result != "*" }

// GameRecord is a finished game handed to the archive.
type GameRecord struct {
	ID          string    `json:"id"`
	PlayerColor Color     `json:"player_color"`
	Result      string    `json:"result"`
	Winner      Color     `json:"winner,omitempty"`
	Method      string    `json:"method,omitempty"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	PGN         string    `json:"pgn"`
	FEN         string    `json:"fen"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// Duration returns the wall time between start and end.
func (g GameRecord) Duration() time.Duration {
	d := g.EndedAt.Sub(g.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}
