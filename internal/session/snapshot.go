package session

import (
	"fmt"
	"sort"

	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

// Snapshot returns a read-only copy of the session for presentation.
func (c *Controller) Snapshot() chessdto.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() chessdto.Snapshot {
	ledger := ComputeLedger(c.history)
	snap := chessdto.Snapshot{
		GameID:      c.gameID,
		Generation:  c.generation,
		PlayerColor: string(c.playerColor),
		SideToMove:  string(c.board.SideToMove()),
		Turn:        string(c.turn),
		FEN:         c.board.FEN(),
		Board:       make(map[string]chessdto.Piece, 32),
		History:     make([]chessdto.Move, 0, len(c.history)),
		MoveTable:   MoveTable(c.history),
		Captured: chessdto.CapturedPieces{
			White:      kindStrings(ledger.White),
			Black:      kindStrings(ledger.Black),
			WhiteValue: ledger.WhiteValue(),
			BlackValue: ledger.BlackValue(),
		},
		Status:   c.statusLocked(),
		Thinking: c.thinking,
	}
	for rank := 1; rank <= 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := domain.Square(fmt.Sprintf("%c%d", 'a'+file, rank))
			if p, ok := c.board.PieceAt(sq); ok {
				snap.Board[sq.String()] = chessdto.Piece{Kind: string(p.Kind), Color: string(p.Color)}
			}
		}
	}
	for _, rec := range c.history {
		snap.History = append(snap.History, moveDTO(rec))
	}
	if n := len(snap.History); n > 0 {
		last := snap.History[n-1]
		snap.LastMove = &last
	}
	if c.pending != nil {
		snap.Pending = &chessdto.PendingPromotion{
			From:    c.pending.From.String(),
			To:      c.pending.To.String(),
			Options: kindStrings(domain.PromotionKinds),
		}
	}
	if c.selected != nil {
		sel := &chessdto.Selection{Square: c.selected.String(), Destinations: make([]string, 0, len(c.destinations))}
		for _, mv := range c.destinations {
			sel.Destinations = append(sel.Destinations, mv.To.String())
		}
		sort.Strings(sel.Destinations)
		snap.Selection = sel
	}
	if c.fault != nil {
		snap.Fault = c.fault.Error()
	}
	return snap
}

func (c *Controller) statusLocked() chessdto.Status {
	out := c.board.Outcome()
	st := chessdto.Status{
		Check:     c.board.IsCheck(),
		Checkmate: c.board.IsCheckmate(),
		Draw:      c.board.IsDraw(),
		GameOver:  c.board.IsGameOver(),
		Result:    out.Result,
		Winner:    string(out.Winner),
	}
	st.Reason = StatusReason(st.Checkmate, st.Draw, out)
	return st
}

// StatusReason renders "checkmate: white wins", "draw: stalemate" and so on.
// It is empty while the game is running.
func StatusReason(checkmate, draw bool, out domain.Outcome) string {
	switch {
	case checkmate:
		return fmt.Sprintf("checkmate: %s wins", out.Winner)
	case draw:
		if out.Method == "" {
			return "draw"
		}
		return "draw: " + out.Method
	case out.Finished():
		if out.Method != "" {
			return fmt.Sprintf("%s: %s wins", out.Method, out.Winner)
		}
		return fmt.Sprintf("%s wins", out.Winner)
	default:
		return ""
	}
}

// MoveTable pairs the history into numbered rows.
func MoveTable(history []domain.MoveRecord) []chessdto.MoveRow {
	rows := make([]chessdto.MoveRow, 0, (len(history)+1)/2)
	for i := 0; i < len(history); i += 2 {
		row := chessdto.MoveRow{Number: i/2 + 1, White: history[i].SAN}
		if i+1 < len(history) {
			row.Black = history[i+1].SAN
		}
		rows = append(rows, row)
	}
	return rows
}

func moveDTO(rec domain.MoveRecord) chessdto.Move {
	m := chessdto.Move{
		From:  rec.From.String(),
		To:    rec.To.String(),
		Color: string(rec.Color),
		SAN:   rec.SAN,
		UCI:   rec.UCI,
	}
	if rec.Captured != nil {
		m.Captured = string(*rec.Captured)
	}
	if rec.Promotion != nil {
		m.Promotion = string(*rec.Promotion)
	}
	return m
}

func kindStrings(kinds []domain.PieceKind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return out
}
