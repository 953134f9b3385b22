package domain

import (
	"strings"
	"testing"
	"time"
)

func TestParseSquare(t *testing.T) {
	sq, err := ParseSquare(" E4 ")
	if err != nil || sq != "e4" {
		t.Fatalf("ParseSquare: %v %q", err, sq)
	}
	if sq.File() != 4 || sq.Rank() != 4 {
		t.Fatalf("unexpected coordinates file=%d rank=%d", sq.File(), sq.Rank())
	}
	for _, bad := range []string{"", "e", "e9", "i1", "e44"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPieceValues(t *testing.T) {
	want := map[PieceKind]int{Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 0}
	for k, v := range want {
		if k.Value() != v {
			t.Fatalf("%s value = %d, want %d", k, k.Value(), v)
		}
	}
}

func TestParsePromotion(t *testing.T) {
	for raw, want := range map[string]PieceKind{"q": Queen, "Rook": Rook, "B": Bishop, "knight": Knight} {
		got, err := ParsePromotion(raw)
		if err != nil || got != want {
			t.Fatalf("ParsePromotion(%q) = %q, %v", raw, got, err)
		}
	}
	for _, bad := range []string{"k", "king", "p", ""} {
		if _, err := ParsePromotion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestColor(t *testing.T) {
	if White.Opponent() != Black || Black.Opponent() != White {
		t.Fatalf("Opponent mismatch")
	}
	if c, err := ParseColor("B"); err != nil || c != Black {
		t.Fatalf("ParseColor: %v %q", err, c)
	}
	if _, err := ParseColor("red"); err == nil {
		t.Fatalf("expected error for red")
	}
}

func TestBuildPGN(t *testing.T) {
	rec := GameRecord{
		PlayerColor: Black,
		Result:      "0-1",
		Winner:      Black,
		Method:      "checkmate",
		MovesSAN:    []string{"f3", "e5", "g4", "Qh4#"},
		EndedAt:     time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC),
	}
	pgn := BuildPGN(rec)
	for _, want := range []string{
		`[Date "2026.03.07"]`,
		`[White "Computer"]`,
		`[Black "Player"]`,
		`[Termination "checkmate"]`,
		`[Result "0-1"]`,
		"1. f3 e5 2. g4 Qh4# 0-1",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
}

func TestGameRecordDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := GameRecord{StartedAt: start, EndedAt: start.Add(90 * time.Second)}
	if rec.Duration() != 90*time.Second {
		t.Fatalf("Duration = %v", rec.Duration())
	}
	rec.EndedAt = start.Add(-time.Second)
	if rec.Duration() != 0 {
		t.Fatalf("negative duration should clamp to zero")
	}
}
