package selector

import (
	"math/rand"
	"testing"

	"github.com/park285/cheese-solo/internal/domain"
)

func capture(from, to domain.Square, kind domain.PieceKind) domain.LegalMove {
	return domain.LegalMove{From: from, To: to, Captured: domain.KindPtr(kind)}
}

func quiet(from, to domain.Square) domain.LegalMove {
	return domain.LegalMove{From: from, To: to}
}

func inSet(mv domain.LegalMove, set []domain.LegalMove) bool {
	for _, c := range set {
		if c.From == mv.From && c.To == mv.To {
			return true
		}
	}
	return false
}

func TestSelect_PrefersHighestCapture(t *testing.T) {
	moves := []domain.LegalMove{
		quiet("g1", "f3"),
		capture("e4", "d5", domain.Pawn),
		capture("c4", "f7", domain.Rook),
		capture("b3", "a4", domain.Pawn),
		capture("h1", "h8", domain.Rook),
		quiet("d2", "d4"),
	}
	want := []domain.LegalMove{moves[2], moves[4]}
	for seed := int64(1); seed <= 50; seed++ {
		got, err := Select(moves, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if !inSet(got, want) {
			t.Fatalf("seed %d: chose %s%s, want a rook capture", seed, got.From, got.To)
		}
	}
}

func TestSelect_QueenBeatsEverything(t *testing.T) {
	moves := []domain.LegalMove{
		capture("a1", "a8", domain.Rook),
		capture("b1", "c3", domain.Knight),
		capture("d1", "d8", domain.Queen),
		capture("e1", "e2", domain.Bishop),
	}
	got, err := Select(moves, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.To != "d8" {
		t.Fatalf("expected queen capture on d8, got %s", got.To)
	}
}

func TestSelect_CenterWhenNoCaptures(t *testing.T) {
	moves := []domain.LegalMove{
		quiet("g1", "f3"),
		quiet("e2", "e4"),
		quiet("a2", "a3"),
		quiet("d2", "d4"),
	}
	want := []domain.LegalMove{moves[1], moves[3]}
	for seed := int64(1); seed <= 50; seed++ {
		got, err := Select(moves, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if !inSet(got, want) {
			t.Fatalf("seed %d: chose %s, want a centre square", seed, got.To)
		}
	}
}

func TestSelect_AnyMoveOtherwise(t *testing.T) {
	moves := []domain.LegalMove{quiet("a2", "a3"), quiet("h2", "h4"), quiet("b1", "a3")}
	seen := map[domain.Square]bool{}
	for seed := int64(1); seed <= 200; seed++ {
		got, err := Select(moves, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if !inSet(got, moves) {
			t.Fatalf("chose a move outside the legal set: %+v", got)
		}
		seen[got.From+got.To] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected random spread over fallback moves, saw %v", seen)
	}
}

func TestSelect_Empty(t *testing.T) {
	if _, err := Select(nil, rand.New(rand.NewSource(1))); err != ErrNoMoves {
		t.Fatalf("expected ErrNoMoves, got %v", err)
	}
}

func TestSource_SeedReproduces(t *testing.T) {
	a, b := NewSource(42), NewSource(42)
	for i := 0; i < 5; i++ {
		if x, y := a.Next().Int63(), b.Next().Int63(); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}
