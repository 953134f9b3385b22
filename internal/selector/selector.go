// Package selector picks the computer's reply with a single-ply greedy heuristic.
package selector

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/park285/cheese-solo/internal/domain"
)

var ErrNoMoves = errors.New("no legal moves to choose from")

// Select chooses a move: the most valuable capture first, then a move into the
// centre, then anything. Ties are broken uniformly with r.
func Select(moves []domain.LegalMove, r *rand.Rand) (domain.LegalMove, error) {
	if len(moves) == 0 {
		return domain.LegalMove{}, ErrNoMoves
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if captures := BestCaptures(moves); len(captures) > 0 {
		return captures[r.Intn(len(captures))], nil
	}
	if center := CenterMoves(moves); len(center) > 0 {
		return center[r.Intn(len(center))], nil
	}
	return moves[r.Intn(len(moves))], nil
}

// BestCaptures returns the captures taking the highest-valued piece.
func BestCaptures(moves []domain.LegalMove) []domain.LegalMove {
	best := -1
	var out []domain.LegalMove
	for _, mv := range moves {
		if !mv.IsCapture() {
			continue
		}
		v := mv.Captured.Value()
		switch {
		case v > best:
			best = v
			out = append(out[:0], mv)
		case v == best:
			out = append(out, mv)
		}
	}
	return out
}

// CenterMoves returns the moves landing on d4, d5, e4 or e5.
func CenterMoves(moves []domain.LegalMove) []domain.LegalMove {
	var out []domain.LegalMove
	for _, mv := range moves {
		if mv.To.IsCenter() {
			out = append(out, mv)
		}
	}
	return out
}

// Source hands out independent generators seeded from one parent, so a fixed
// seed reproduces a whole game.
type Source struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rand: rand.New(rand.NewSource(seed))}
}

// Next returns a fresh generator derived from the parent stream.
func (s *Source) Next() *rand.Rand {
	s.mu.Lock()
	seed := s.rand.Int63()
	s.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// Reseed restarts the parent stream.
func (s *Source) Reseed(seed int64) {
	s.mu.Lock()
	s.rand = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}
