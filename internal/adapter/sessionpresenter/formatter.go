package sessionpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-solo/pkg/chessdto"
)

const (
	boardFiles         = "abcdefgh"
	recentMovesLimit   = 4
	capturedShownLimit = 15
)

// Formatter renders snapshots as plain text blocks for the terminal.
type Formatter struct {
	// Unicode switches piece letters to chess glyphs.
	Unicode bool
}

func NewFormatter() *Formatter { return &Formatter{} }

// Full is the standard screen: status, board, captures, prompt.
func (f *Formatter) Full(s chessdto.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(f.Status(s))
	sb.WriteString("\n\n")
	sb.WriteString(f.Board(s))
	sb.WriteString("\n")
	if line := f.Captured(s); line != "" {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(s.History) > 0 {
		sb.WriteString("Moves: ")
		sb.WriteString(formatRecentMoves(s.History))
		sb.WriteString("\n")
	}
	if p := f.Promotion(s); p != "" {
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Status is the one-line game state.
func (f *Formatter) Status(s chessdto.Snapshot) string {
	if s.Fault != "" {
		return "! session fault: " + s.Fault
	}
	if s.Status.GameOver {
		reason := s.Status.Reason
		if reason == "" {
			reason = "game over"
		}
		return fmt.Sprintf("%s %s (%s)", formatResultBadge(s.Status.Result, s.PlayerColor), reason, s.Status.Result)
	}
	var sb strings.Builder
	switch s.Turn {
	case "human-to-move":
		sb.WriteString(fmt.Sprintf("Your move (%s)", s.PlayerColor))
	case "computer-to-move":
		sb.WriteString("Computer is thinking...")
	default:
		sb.WriteString(s.Turn)
	}
	if s.Status.Check {
		sb.WriteString(" - check")
	}
	if s.Selection != nil {
		sb.WriteString(fmt.Sprintf(" | selected %s", s.Selection.Square))
		if len(s.Selection.Destinations) > 0 {
			sb.WriteString(" -> " + strings.Join(s.Selection.Destinations, " "))
		}
	}
	return sb.String()
}

// Board draws the position from the player's side. Destinations of the
// selected piece are shown as '*', the last move's squares in brackets.
func (f *Formatter) Board(s chessdto.Snapshot) string {
	marks := map[string]bool{}
	if s.Selection != nil {
		for _, d := range s.Selection.Destinations {
			marks[d] = true
		}
	}
	last := map[string]bool{}
	if s.LastMove != nil {
		last[s.LastMove.From] = true
		last[s.LastMove.To] = true
	}

	ranks := []int{8, 7, 6, 5, 4, 3, 2, 1}
	files := []byte(boardFiles)
	if s.PlayerColor == "black" {
		ranks = []int{1, 2, 3, 4, 5, 6, 7, 8}
		files = []byte("hgfedcba")
	}

	var sb strings.Builder
	for _, r := range ranks {
		sb.WriteString(fmt.Sprintf("%d ", r))
		for _, file := range files {
			sq := fmt.Sprintf("%c%d", file, r)
			cell := "."
			if p, ok := s.Board[sq]; ok {
				cell = f.pieceSymbol(p)
			} else if marks[sq] {
				cell = "*"
			}
			if last[sq] {
				sb.WriteString("[" + cell + "]")
			} else {
				sb.WriteString(" " + cell + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for _, file := range files {
		sb.WriteString(" " + string(file) + " ")
	}
	sb.WriteString("\n")
	return sb.String()
}

// Captured lists the pieces each side has taken, with values.
func (f *Formatter) Captured(s chessdto.Snapshot) string {
	byWhite := formatCapturedSequence(s.Captured.Black, "black")
	byBlack := formatCapturedSequence(s.Captured.White, "white")
	if byWhite == "" && byBlack == "" {
		return ""
	}
	var parts []string
	if byWhite != "" {
		parts = append(parts, fmt.Sprintf("White took %s (value %d)", byWhite, s.Captured.BlackValue))
	}
	if byBlack != "" {
		parts = append(parts, fmt.Sprintf("Black took %s (value %d)", byBlack, s.Captured.WhiteValue))
	}
	return strings.Join(parts, " / ")
}

// MoveTable renders numbered move pairs.
func (f *Formatter) MoveTable(s chessdto.Snapshot) string {
	if len(s.MoveTable) == 0 {
		return "No moves yet."
	}
	var sb strings.Builder
	for _, row := range s.MoveTable {
		sb.WriteString(fmt.Sprintf("%3d. %-8s %s\n", row.Number, row.White, row.Black))
	}
	return sb.String()
}

// Promotion is the prompt shown while a promotion choice is pending.
func (f *Formatter) Promotion(s chessdto.Snapshot) string {
	if s.Pending == nil {
		return ""
	}
	names := make([]string, 0, len(s.Pending.Options))
	for _, k := range s.Pending.Options {
		names = append(names, fmt.Sprintf("%s=%s", k, pieceName(k)))
	}
	return fmt.Sprintf("Promote %s-%s to: %s (or 'cancel')", s.Pending.From, s.Pending.To, strings.Join(names, ", "))
}

func (f *Formatter) Help() string {
	return `Commands:
  <square>        click a square (e.g. e2, then e4)
  <from><to>      move in one go (e.g. e2e4)
  q|r|b|n         choose a promotion piece
  cancel          cancel a pending promotion
  undo            take back your last move
  reset           new game
  flip            switch colours and start a new game
  moves           show the move table
  games [n]       list archived games
  help            this text
  quit            leave`
}

// Games lists archived games, newest first.
func (f *Formatter) Games(games []chessdto.ArchivedGame) string {
	if len(games) == 0 {
		return "No archived games."
	}
	var sb strings.Builder
	sb.WriteString("Recent games\n")
	for _, g := range games {
		sb.WriteString(fmt.Sprintf("- %s %s %s as %s, %d plies",
			formatShortTime(g.EndedAt), formatResultBadge(g.Result, g.PlayerColor), g.Result, g.PlayerColor, len(g.MovesSAN)))
		if d := formatGameDuration(time.Duration(g.DurationMS) * time.Millisecond); d != "" {
			sb.WriteString(", " + d)
		}
		if g.Method != "" {
			sb.WriteString(" (" + g.Method + ")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *Formatter) pieceSymbol(p chessdto.Piece) string {
	if f.Unicode {
		if g, ok := glyphs[p.Color+p.Kind]; ok {
			return g
		}
	}
	if p.Color == "white" {
		return strings.ToUpper(p.Kind)
	}
	return strings.ToLower(p.Kind)
}

var glyphs = map[string]string{
	"whitek": "♔", "whiteq": "♕", "whiter": "♖", "whiteb": "♗", "whiten": "♘", "whitep": "♙",
	"blackk": "♚", "blackq": "♛", "blackr": "♜", "blackb": "♝", "blackn": "♞", "blackp": "♟",
}

func pieceName(kind string) string {
	switch kind {
	case "q":
		return "queen"
	case "r":
		return "rook"
	case "b":
		return "bishop"
	case "n":
		return "knight"
	case "p":
		return "pawn"
	case "k":
		return "king"
	default:
		return kind
	}
}

func formatRecentMoves(moves []chessdto.Move) string {
	if len(moves) == 0 {
		return "-"
	}
	san := make([]string, 0, recentMovesLimit)
	start := 0
	if len(moves) > recentMovesLimit {
		start = len(moves) - recentMovesLimit
	}
	for _, m := range moves[start:] {
		san = append(san, m.SAN)
	}
	if start > 0 {
		return "… " + strings.Join(san, " ")
	}
	return strings.Join(san, " ")
}

// formatCapturedSequence renders kinds in capture order using the captured
// side's letter case.
func formatCapturedSequence(kinds []string, color string) string {
	if len(kinds) == 0 {
		return ""
	}
	if len(kinds) > capturedShownLimit {
		kinds = kinds[len(kinds)-capturedShownLimit:]
	}
	tokens := make([]string, 0, len(kinds))
	for _, k := range kinds {
		sym := capturedSymbol(k)
		if sym == "" {
			continue
		}
		if color == "black" {
			sym = strings.ToLower(sym)
		}
		tokens = append(tokens, sym)
	}
	return strings.Join(tokens, " ")
}

func capturedSymbol(piece string) string {
	switch strings.ToLower(strings.TrimSpace(piece)) {
	case "queen", "q":
		return "Q"
	case "rook", "r":
		return "R"
	case "bishop", "b":
		return "B"
	case "knight", "n":
		return "N"
	case "pawn", "p":
		return "P"
	default:
		if piece == "" {
			return ""
		}
		return strings.ToUpper(string([]rune(piece)[0]))
	}
}

// formatResultBadge speaks from the player's side.
func formatResultBadge(result, playerColor string) string {
	switch strings.TrimSpace(result) {
	case "1/2-1/2":
		return "= draw"
	case "1-0":
		if playerColor == "white" {
			return "+ win"
		}
		return "- loss"
	case "0-1":
		if playerColor == "black" {
			return "+ win"
		}
		return "- loss"
	default:
		return "~ running"
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
