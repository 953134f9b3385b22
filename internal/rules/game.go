// Package rules adapts github.com/corentings/chess/v2 to the narrow board
// contract used by the session controller.
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-solo/internal/domain"
)

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrPromotionRequired = errors.New("promotion piece required")
	ErrNoMoves           = errors.New("no moves to undo")
)

var (
	kindFromType = map[nchess.PieceType]domain.PieceKind{
		nchess.Pawn:   domain.Pawn,
		nchess.Knight: domain.Knight,
		nchess.Bishop: domain.Bishop,
		nchess.Rook:   domain.Rook,
		nchess.Queen:  domain.Queen,
		nchess.King:   domain.King,
	}
	typeFromKind = map[domain.PieceKind]nchess.PieceType{
		domain.Pawn:   nchess.Pawn,
		domain.Knight: nchess.Knight,
		domain.Bishop: nchess.Bishop,
		domain.Rook:   nchess.Rook,
		domain.Queen:  nchess.Queen,
		domain.King:   nchess.King,
	}
)

// Game owns one board. It is not safe for concurrent use; the session
// controller serialises all calls.
type Game struct {
	game    *nchess.Game
	applied []*nchess.Move
	uci     []string
}

// NewGame returns a game at the standard starting position.
func NewGame() *Game {
	return &Game{game: nchess.NewGame()}
}

// Replay builds a game by applying UCI moves from the starting position.
func Replay(moves []string) (*Game, error) {
	g := NewGame()
	for _, mv := range moves {
		if err := g.applyUCI(mv); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// LegalMoves lists legal moves for the side to move, optionally only from one square.
// Promotion variants collapse into one entry per destination.
func (g *Game) LegalMoves(from *domain.Square) []domain.LegalMove {
	if g.IsGameOver() {
		return nil
	}
	pos := g.game.Position()
	valid := g.game.ValidMoves()
	out := make([]domain.LegalMove, 0, len(valid))
	seen := make(map[[2]nchess.Square]int, len(valid))
	for i := range valid {
		mv := &valid[i]
		if from != nil && mv.S1() != toSquare(*from) {
			continue
		}
		key := [2]nchess.Square{mv.S1(), mv.S2()}
		if idx, ok := seen[key]; ok {
			if mv.Promo() != nchess.NoPieceType {
				out[idx].PromotionEligible = true
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, domain.LegalMove{
			From:              fromSquare(mv.S1()),
			To:                fromSquare(mv.S2()),
			Captured:          capturedKind(pos, mv),
			PromotionEligible: mv.Promo() != nchess.NoPieceType,
		})
	}
	return out
}

// ApplyMove plays the intent if it is legal. A move reaching the last rank
// with a pawn must carry a promotion piece.
func (g *Game) ApplyMove(intent domain.MoveIntent) (domain.MoveRecord, error) {
	if g.IsGameOver() {
		return domain.MoveRecord{}, fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	promo := nchess.NoPieceType
	if intent.Promotion != nil {
		pt, ok := typeFromKind[*intent.Promotion]
		if !ok || pt == nchess.King || pt == nchess.Pawn {
			return domain.MoveRecord{}, fmt.Errorf("%w: promotion to %q", ErrIllegalMove, *intent.Promotion)
		}
		promo = pt
	}
	s1, s2 := toSquare(intent.From), toSquare(intent.To)

	pos := g.game.Position()
	var (
		chosen     *nchess.Move
		needsPromo bool
	)
	valid := g.game.ValidMoves()
	for i := range valid {
		mv := valid[i]
		if mv.S1() != s1 || mv.S2() != s2 {
			continue
		}
		if mv.Promo() == promo {
			chosen = &mv
			break
		}
		if promo == nchess.NoPieceType && mv.Promo() != nchess.NoPieceType {
			needsPromo = true
		}
	}
	if chosen == nil {
		if needsPromo {
			return domain.MoveRecord{}, fmt.Errorf("%w: %s%s", ErrPromotionRequired, intent.From, intent.To)
		}
		return domain.MoveRecord{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, intent.From, intent.To)
	}

	record := domain.MoveRecord{
		From:     fromSquare(chosen.S1()),
		To:       fromSquare(chosen.S2()),
		Color:    colorFrom(pos.Turn()),
		Captured: capturedKind(pos, chosen),
		SAN:      nchess.AlgebraicNotation{}.Encode(pos, chosen),
		UCI:      strings.ToLower(chosen.String()),
	}
	if promo != nchess.NoPieceType {
		record.Promotion = domain.KindPtr(kindFromType[promo])
	}
	if err := g.push(chosen, record.UCI); err != nil {
		return domain.MoveRecord{}, err
	}
	return record, nil
}

// UndoLastMove unwinds exactly one applied move. The library keeps abandoned
// lines as variations, so the board is rebuilt from the remaining moves.
func (g *Game) UndoLastMove() error {
	if len(g.uci) == 0 {
		return ErrNoMoves
	}
	rebuilt, err := Replay(g.uci[:len(g.uci)-1])
	if err != nil {
		return fmt.Errorf("replay after undo: %w", err)
	}
	*g = *rebuilt
	return nil
}

func (g *Game) SideToMove() domain.Color { return colorFrom(g.game.Position().Turn()) }

// IsCheck reports whether the side to move is in check.
func (g *Game) IsCheck() bool {
	if n := len(g.applied); n > 0 {
		return g.applied[n-1].HasTag(nchess.Check)
	}
	return false
}

func (g *Game) IsCheckmate() bool { return g.game.Method() == nchess.Checkmate }

func (g *Game) IsDraw() bool { return g.game.Outcome() == nchess.Draw }

func (g *Game) IsGameOver() bool { return g.game.Outcome() != nchess.NoOutcome }

// PieceAt returns the piece on sq, if any.
func (g *Game) PieceAt(sq domain.Square) (domain.Piece, bool) {
	p := g.game.Position().Board().Piece(toSquare(sq))
	if p == nchess.NoPiece {
		return domain.Piece{}, false
	}
	kind, ok := kindFromType[p.Type()]
	if !ok {
		return domain.Piece{}, false
	}
	return domain.Piece{Kind: kind, Color: colorFrom(p.Color())}, true
}

// Outcome describes the result; Result is "*" while the game is running.
func (g *Game) Outcome() domain.Outcome {
	out := domain.Outcome{Result: string(g.game.Outcome()), Method: methodName(g.game.Method())}
	switch g.game.Outcome() {
	case nchess.WhiteWon:
		out.Winner = domain.White
	case nchess.BlackWon:
		out.Winner = domain.Black
	case nchess.NoOutcome:
		out.Method = ""
	}
	return out
}

func (g *Game) FEN() string { return g.game.FEN() }

// MovesUCI returns the applied moves in UCI notation.
func (g *Game) MovesUCI() []string { return append([]string(nil), g.uci...) }

func (g *Game) applyUCI(raw string) error {
	intent, err := ParseUCI(raw)
	if err != nil {
		return err
	}
	_, err = g.ApplyMove(intent)
	return err
}

// ParseUCI decodes long algebraic moves such as "e2e4" or "e7e8q".
func ParseUCI(raw string) (domain.MoveIntent, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 4 && len(s) != 5 {
		return domain.MoveIntent{}, fmt.Errorf("decode move %q: bad length", raw)
	}
	from, err := domain.ParseSquare(s[0:2])
	if err != nil {
		return domain.MoveIntent{}, fmt.Errorf("decode move %q: %w", raw, err)
	}
	to, err := domain.ParseSquare(s[2:4])
	if err != nil {
		return domain.MoveIntent{}, fmt.Errorf("decode move %q: %w", raw, err)
	}
	intent := domain.MoveIntent{From: from, To: to}
	if len(s) == 5 {
		kind, err := domain.ParsePromotion(s[4:])
		if err != nil {
			return domain.MoveIntent{}, fmt.Errorf("decode move %q: %w", raw, err)
		}
		intent.Promotion = &kind
	}
	return intent, nil
}

func (g *Game) push(mv *nchess.Move, uci string) error {
	if err := g.game.Move(mv, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	g.applied = append(g.applied, mv)
	g.uci = append(g.uci, uci)
	g.claimAutomaticDraw()
	return nil
}

// claimAutomaticDraw ends the game on threefold repetition or the fifty-move
// rule, which the library only offers as claimable draws.
func (g *Game) claimAutomaticDraw() {
	if g.game.Outcome() != nchess.NoOutcome {
		return
	}
	for _, m := range g.game.EligibleDraws() {
		if m == nchess.ThreefoldRepetition || m == nchess.FiftyMoveRule {
			_ = g.game.Draw(m)
			return
		}
	}
}

func capturedKind(pos *nchess.Position, mv *nchess.Move) *domain.PieceKind {
	if mv.HasTag(nchess.EnPassant) {
		return domain.KindPtr(domain.Pawn)
	}
	if !mv.HasTag(nchess.Capture) {
		return nil
	}
	p := pos.Board().Piece(mv.S2())
	if p == nchess.NoPiece {
		return nil
	}
	kind, ok := kindFromType[p.Type()]
	if !ok {
		return nil
	}
	return &kind
}

func toSquare(s domain.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(s.File()), nchess.Rank(s.Rank()-1))
}

func fromSquare(s nchess.Square) domain.Square { return domain.Square(s.String()) }

func colorFrom(c nchess.Color) domain.Color {
	if c == nchess.White {
		return domain.White
	}
	return domain.Black
}

func methodName(m nchess.Method) string {
	switch m {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Resignation:
		return "resignation"
	case nchess.DrawOffer:
		return "draw offer"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.ThreefoldRepetition:
		return "threefold repetition"
	case nchess.FivefoldRepetition:
		return "fivefold repetition"
	case nchess.FiftyMoveRule:
		return "fifty-move rule"
	case nchess.SeventyFiveMoveRule:
		return "seventy-five-move rule"
	case nchess.InsufficientMaterial:
		return "insufficient material"
	default:
		return ""
	}
}
