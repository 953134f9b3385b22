package sessionpresenter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/internal/rules"
	"github.com/park285/cheese-solo/internal/session"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

func startSnapshot(t *testing.T, color domain.Color) chessdto.Snapshot {
	t.Helper()
	c := session.New(func() session.Board { return rules.NewGame() },
		session.WithPlayerColor(color),
		session.WithScheduler(session.NewManualScheduler()),
	)
	return c.Snapshot()
}

func TestBoard_OrientedToPlayer(t *testing.T) {
	f := NewFormatter()

	white := strings.Split(strings.TrimRight(f.Board(startSnapshot(t, domain.White)), "\n"), "\n")
	if !strings.HasPrefix(white[0], "8 ") || !strings.HasPrefix(white[7], "1 ") {
		t.Fatalf("white view should start at rank 8:\n%s", strings.Join(white, "\n"))
	}
	if !strings.Contains(white[0], " r  n  b  q  k  b  n  r ") {
		t.Fatalf("unexpected back rank %q", white[0])
	}
	if strings.TrimSpace(white[8]) != "a  b  c  d  e  f  g  h" {
		t.Fatalf("unexpected file labels %q", white[8])
	}

	black := strings.Split(strings.TrimRight(f.Board(startSnapshot(t, domain.Black)), "\n"), "\n")
	if !strings.HasPrefix(black[0], "1 ") {
		t.Fatalf("black view should start at rank 1: %q", black[0])
	}
	if !strings.Contains(black[0], " R  N  B  K  Q  B  N  R ") {
		t.Fatalf("unexpected mirrored back rank %q", black[0])
	}
	if strings.TrimSpace(black[8]) != "h  g  f  e  d  c  b  a" {
		t.Fatalf("unexpected file labels %q", black[8])
	}
}

func TestBoard_MarksSelectionAndLastMove(t *testing.T) {
	c := session.New(func() session.Board { return rules.NewGame() },
		session.WithScheduler(session.NewManualScheduler()),
	)
	if err := c.ClickSquare("g1"); err != nil {
		t.Fatalf("ClickSquare: %v", err)
	}
	s := c.Snapshot()
	out := NewFormatter().Board(s)
	if strings.Count(out, "*") != 2 {
		t.Fatalf("expected f3 and h3 marked:\n%s", out)
	}

	s.Selection = nil
	s.LastMove = &chessdto.Move{From: "e2", To: "e4"}
	out = NewFormatter().Board(s)
	if !strings.Contains(out, "[P]") || !strings.Contains(out, "[.]") {
		t.Fatalf("last move squares not bracketed:\n%s", out)
	}
}

func TestStatus(t *testing.T) {
	f := NewFormatter()
	tests := []struct {
		name string
		snap chessdto.Snapshot
		want string
	}{
		{"human", chessdto.Snapshot{Turn: "human-to-move", PlayerColor: "white"}, "Your move (white)"},
		{"check", chessdto.Snapshot{Turn: "human-to-move", PlayerColor: "black", Status: chessdto.Status{Check: true}}, "Your move (black) - check"},
		{"thinking", chessdto.Snapshot{Turn: "computer-to-move"}, "Computer is thinking..."},
		{"selection", chessdto.Snapshot{Turn: "human-to-move", PlayerColor: "white", Selection: &chessdto.Selection{Square: "e2", Destinations: []string{"e3", "e4"}}}, "Your move (white) | selected e2 -> e3 e4"},
		{"mate", chessdto.Snapshot{PlayerColor: "white", Turn: "game-over", Status: chessdto.Status{GameOver: true, Result: "0-1", Reason: "checkmate: black wins"}}, "- loss checkmate: black wins (0-1)"},
		{"fault", chessdto.Snapshot{Fault: "boom"}, "! session fault: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Status(tt.snap); got != tt.want {
				t.Fatalf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapturedAndPromotion(t *testing.T) {
	f := NewFormatter()
	s := chessdto.Snapshot{
		Captured: chessdto.CapturedPieces{White: []string{"p"}, Black: []string{"q", "p"}, WhiteValue: 1, BlackValue: 10},
		Pending:  &chessdto.PendingPromotion{From: "e7", To: "e8", Options: []string{"q", "r", "b", "n"}},
	}
	if got, want := f.Captured(s), "White took q p (value 10) / Black took P (value 1)"; got != want {
		t.Fatalf("Captured() = %q, want %q", got, want)
	}
	if got := f.Captured(chessdto.Snapshot{}); got != "" {
		t.Fatalf("expected empty captures line, got %q", got)
	}
	p := f.Promotion(s)
	if !strings.Contains(p, "e7-e8") || !strings.Contains(p, "n=knight") {
		t.Fatalf("unexpected prompt %q", p)
	}
}

func TestMoveTableAndRecentMoves(t *testing.T) {
	f := NewFormatter()
	s := chessdto.Snapshot{MoveTable: []chessdto.MoveRow{{Number: 1, White: "e4", Black: "e5"}, {Number: 2, White: "Nf3"}}}
	got := f.MoveTable(s)
	if !strings.Contains(got, "  1. e4       e5") || !strings.Contains(got, "  2. Nf3") {
		t.Fatalf("unexpected table:\n%s", got)
	}
	if f.MoveTable(chessdto.Snapshot{}) != "No moves yet." {
		t.Fatalf("expected placeholder for empty table")
	}

	moves := []chessdto.Move{{SAN: "e4"}, {SAN: "e5"}, {SAN: "Nf3"}, {SAN: "Nc6"}, {SAN: "Bb5"}}
	if got := formatRecentMoves(moves); got != "… e5 Nf3 Nc6 Bb5" {
		t.Fatalf("formatRecentMoves = %q", got)
	}
}

func TestGames(t *testing.T) {
	f := NewFormatter()
	if f.Games(nil) != "No archived games." {
		t.Fatalf("expected placeholder")
	}
	out := f.Games([]chessdto.ArchivedGame{{
		ID: "g1", PlayerColor: "black", Result: "0-1", Method: "checkmate",
		MovesSAN: []string{"f3", "e5", "g4", "Qh4#"}, EndedAt: time.Now(), DurationMS: 4200,
	}})
	for _, want := range []string{"+ win", "as black", "4 plies", "4s", "(checkmate)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatResultBadge(t *testing.T) {
	cases := map[[2]string]string{
		{"1-0", "white"}:     "+ win",
		{"1-0", "black"}:     "- loss",
		{"0-1", "black"}:     "+ win",
		{"1/2-1/2", "white"}: "= draw",
		{"*", "white"}:       "~ running",
	}
	for in, want := range cases {
		if got := formatResultBadge(in[0], in[1]); got != want {
			t.Fatalf("formatResultBadge(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestPresenter_Show(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf, nil)
	p.Show(startSnapshot(t, domain.White))
	p.Print("   ")
	out := buf.String()
	if !strings.HasPrefix(out, "Your move (white)") || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Moves:") {
		t.Fatalf("start position should not list moves")
	}
}
