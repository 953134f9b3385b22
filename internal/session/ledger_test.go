package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/cheese-solo/internal/domain"
)

func TestComputeLedger(t *testing.T) {
	history := []domain.MoveRecord{
		{From: "e2", To: "e4", Color: domain.White},
		{From: "d7", To: "d5", Color: domain.Black},
		{From: "e4", To: "d5", Color: domain.White, Captured: domain.KindPtr(domain.Pawn)},
		{From: "d8", To: "d5", Color: domain.Black, Captured: domain.KindPtr(domain.Pawn)},
		{From: "b1", To: "c3", Color: domain.White},
		{From: "d5", To: "a2", Color: domain.Black, Captured: domain.KindPtr(domain.Pawn)},
		{From: "c3", To: "b5", Color: domain.White},
		{From: "a2", To: "a1", Color: domain.Black, Captured: domain.KindPtr(domain.Rook)},
	}
	l := ComputeLedger(history)
	if diff := cmp.Diff([]domain.PieceKind{domain.Pawn, domain.Pawn, domain.Rook}, l.White); diff != "" {
		t.Fatalf("white pieces lost (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]domain.PieceKind{domain.Pawn}, l.Black); diff != "" {
		t.Fatalf("black pieces lost (-want +got):\n%s", diff)
	}
	if l.WhiteValue() != 7 || l.BlackValue() != 1 {
		t.Fatalf("values white=%d black=%d", l.WhiteValue(), l.BlackValue())
	}
	if diff := cmp.Diff(l.White, l.TakenBy(domain.Black)); diff != "" {
		t.Fatalf("TakenBy(black) (-want +got):\n%s", diff)
	}

	// Truncating history drops exactly the truncated captures.
	l = ComputeLedger(history[:6])
	if len(l.White) != 2 || len(l.Black) != 1 {
		t.Fatalf("after truncation white=%v black=%v", l.White, l.Black)
	}
}

func TestDeriveTurn(t *testing.T) {
	cases := []struct {
		player, side domain.Color
		over         bool
		want         TurnState
	}{
		{domain.White, domain.White, false, HumanToMove},
		{domain.White, domain.Black, false, ComputerToMove},
		{domain.Black, domain.White, false, ComputerToMove},
		{domain.Black, domain.Black, false, HumanToMove},
		{domain.White, domain.White, true, GameOver},
	}
	for _, tc := range cases {
		if got := deriveTurn(tc.player, tc.side, tc.over); got != tc.want {
			t.Fatalf("deriveTurn(%s,%s,%v) = %s, want %s", tc.player, tc.side, tc.over, got, tc.want)
		}
	}
}

func TestStatusReason(t *testing.T) {
	if got := StatusReason(true, false, domain.Outcome{Result: "1-0", Winner: domain.White, Method: "checkmate"}); got != "checkmate: white wins" {
		t.Fatalf("checkmate reason %q", got)
	}
	if got := StatusReason(false, true, domain.Outcome{Result: "1/2-1/2", Method: "stalemate"}); got != "draw: stalemate" {
		t.Fatalf("draw reason %q", got)
	}
	if got := StatusReason(false, false, domain.Outcome{Result: "*"}); got != "" {
		t.Fatalf("running game reason %q", got)
	}
}

func TestMoveTable(t *testing.T) {
	rows := MoveTable([]domain.MoveRecord{{SAN: "e4"}, {SAN: "e5"}, {SAN: "Nf3"}})
	want := []struct {
		n            int
		white, black string
	}{{1, "e4", "e5"}, {2, "Nf3", ""}}
	if len(rows) != len(want) {
		t.Fatalf("rows %+v", rows)
	}
	for i, w := range want {
		if rows[i].Number != w.n || rows[i].White != w.white || rows[i].Black != w.black {
			t.Fatalf("row %d = %+v", i, rows[i])
		}
	}
}
