package session

import "github.com/park285/cheese-solo/internal/domain"

// Ledger lists captured pieces by their own colour: White holds the white
// pieces black has taken.
type Ledger struct {
	White []domain.PieceKind
	Black []domain.PieceKind
}

// ComputeLedger rebuilds the ledger from history. It is never patched in place.
func ComputeLedger(history []domain.MoveRecord) Ledger {
	var l Ledger
	for _, rec := range history {
		if rec.Captured == nil {
			continue
		}
		if rec.Color == domain.White {
			l.Black = append(l.Black, *rec.Captured)
		} else {
			l.White = append(l.White, *rec.Captured)
		}
	}
	return l
}

// TakenBy returns the pieces captured by side c.
func (l Ledger) TakenBy(c domain.Color) []domain.PieceKind {
	if c == domain.White {
		return l.Black
	}
	return l.White
}

func (l Ledger) WhiteValue() int { return total(l.White) }

func (l Ledger) BlackValue() int { return total(l.Black) }

func total(kinds []domain.PieceKind) int {
	n := 0
	for _, k := range kinds {
		n += k.Value()
	}
	return n
}
