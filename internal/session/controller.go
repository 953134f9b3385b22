// Package session runs one human-vs-computer game: turn ownership, square
// selection, promotion choice, the delayed computer reply and undo.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/internal/obslog"
	"github.com/park285/cheese-solo/internal/selector"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

var (
	ErrNotHumanTurn       = errors.New("not the human's turn")
	ErrPromotionPending   = errors.New("promotion choice pending")
	ErrNoPendingPromotion = errors.New("no pending promotion")
	ErrInvalidPromotion   = errors.New("invalid promotion piece")
	ErrInconsistentState  = errors.New("inconsistent session state")

	errStaleMove = errors.New("stale computer move")
)

const archiveTimeout = 5 * time.Second

// Board is the rules engine contract. rules.Game implements it.
type Board interface {
	LegalMoves(from *domain.Square) []domain.LegalMove
	ApplyMove(intent domain.MoveIntent) (domain.MoveRecord, error)
	UndoLastMove() error
	SideToMove() domain.Color
	IsCheck() bool
	IsCheckmate() bool
	IsDraw() bool
	IsGameOver() bool
	PieceAt(sq domain.Square) (domain.Piece, bool)
	Outcome() domain.Outcome
	FEN() string
}

type TurnState string

const (
	HumanToMove    TurnState = "human-to-move"
	ComputerToMove TurnState = "computer-to-move"
	GameOver       TurnState = "game-over"
)

func deriveTurn(player, sideToMove domain.Color, over bool) TurnState {
	switch {
	case over:
		return GameOver
	case sideToMove == player:
		return HumanToMove
	default:
		return ComputerToMove
	}
}

// Controller owns the session state. All methods are safe for concurrent use;
// a single mutex serialises intents with timer fires.
type Controller struct {
	mu sync.Mutex

	newBoard    func() Board
	playerColor domain.Color
	thinkDelay  time.Duration
	scheduler   Scheduler
	rand        *selector.Source
	logger      *zap.Logger
	archive     Archive
	observer    Observer
	now         func() time.Time

	board        Board
	gameID       string
	startedAt    time.Time
	generation   uint64
	history      []domain.MoveRecord
	turn         TurnState
	selected     *domain.Square
	destinations []domain.LegalMove
	pending      *domain.MoveIntent
	thinking     bool
	fault        error

	// set by refreshLocked on a game-over transition, drained by do
	finished *domain.GameRecord

	// outbox holds archive writes and snapshots in the order their events
	// were handled; one goroutine at a time drains it.
	outbox     []outboxEntry
	delivering bool
}

// New starts a game on a board from newBoard. If the computer moves first its
// reply is scheduled immediately.
func New(newBoard func() Board, opts ...Option) *Controller {
	c := &Controller{
		newBoard:    newBoard,
		playerColor: domain.White,
		thinkDelay:  DefaultThinkDelay,
		scheduler:   timerScheduler{},
		logger:      obslog.L(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rand == nil {
		c.rand = selector.NewSource(0)
	}
	_ = c.do(func() error {
		c.resetLocked()
		return nil
	})
	return c
}

// Reset starts a fresh game with the current player colour.
func (c *Controller) Reset() {
	_ = c.do(func() error {
		c.resetLocked()
		return nil
	})
}

// ToggleColor swaps sides and starts a fresh game.
func (c *Controller) ToggleColor() {
	_ = c.do(func() error {
		c.playerColor = c.playerColor.Opponent()
		c.resetLocked()
		return nil
	})
}

// ClickSquare handles a click on sq: select, deselect, re-select or move.
func (c *Controller) ClickSquare(sq domain.Square) error {
	return c.do(func() error { return c.clickLocked(sq) })
}

// ChoosePromotion completes the pending promotion with kind.
func (c *Controller) ChoosePromotion(kind domain.PieceKind) error {
	return c.do(func() error { return c.choosePromotionLocked(kind) })
}

// CancelPromotion drops the pending promotion and the selection.
func (c *Controller) CancelPromotion() error {
	return c.do(func() error {
		if c.pending == nil {
			return ErrNoPendingPromotion
		}
		c.pending = nil
		c.clearSelectionLocked()
		c.logger.Debug("promotion_cancel", zap.String("session_id", c.gameID))
		return nil
	})
}

// Undo takes back the last human move together with the computer reply that
// followed it, leaving the human to move. Without a human move it does nothing.
func (c *Controller) Undo() error {
	return c.do(c.undoLocked)
}

// Turn returns the cached turn state.
func (c *Controller) Turn() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turn
}

// History returns a copy of the move history.
func (c *Controller) History() []domain.MoveRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.MoveRecord(nil), c.history...)
}

// Ledger recomputes the captured-piece ledger from history.
func (c *Controller) Ledger() Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeLedger(c.history)
}

func (c *Controller) PlayerColor() domain.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerColor
}

type outboxEntry struct {
	finished *domain.GameRecord
	snap     *chessdto.Snapshot
}

// do runs fn under the lock and queues its archive write and snapshot. They
// are delivered after the lock is released, in the order events were handled.
func (c *Controller) do(fn func() error) error {
	c.mu.Lock()
	err := fn()
	var entry outboxEntry
	if c.finished != nil && c.archive != nil {
		entry.finished = c.finished
	}
	c.finished = nil
	if c.observer != nil && err == nil {
		snap := c.snapshotLocked()
		entry.snap = &snap
	}
	if entry.finished != nil || entry.snap != nil {
		c.outbox = append(c.outbox, entry)
	}
	c.mu.Unlock()

	c.flush()
	return err
}

// flush drains the outbox. A caller that finds another goroutine already
// delivering leaves its entries to that goroutine, which keeps the order and
// lets observers call back into the controller.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.outbox) > 0 {
		entry := c.outbox[0]
		c.outbox[0] = outboxEntry{}
		c.outbox = c.outbox[1:]
		c.mu.Unlock()

		if entry.finished != nil {
			c.save(*entry.finished)
		}
		if entry.snap != nil {
			c.observer(*entry.snap)
		}

		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

func (c *Controller) resetLocked() {
	c.board = c.newBoard()
	c.gameID = uuid.NewString()
	c.startedAt = c.now()
	c.generation++
	c.history = nil
	c.pending = nil
	c.clearSelectionLocked()
	c.thinking = false
	c.fault = nil
	c.turn = ""
	c.logger.Info("solo_game_start",
		zap.String("session_id", c.gameID),
		zap.Uint64("generation", c.generation),
		zap.String("player_color", string(c.playerColor)),
	)
	c.refreshLocked()
}

// refreshLocked re-derives the turn after any mutation, records a game-over
// transition and schedules the computer when it is its turn.
func (c *Controller) refreshLocked() {
	prev := c.turn
	c.turn = deriveTurn(c.playerColor, c.board.SideToMove(), c.board.IsGameOver())
	if c.turn == GameOver && prev != GameOver {
		rec := c.gameRecordLocked()
		c.finished = &rec
		c.logger.Info("solo_game_over",
			zap.String("session_id", c.gameID),
			zap.String("result", rec.Result),
			zap.String("method", rec.Method),
			zap.Int("plies", len(c.history)),
		)
	}
	if c.turn == ComputerToMove && !c.thinking && c.fault == nil {
		c.scheduleLocked()
	}
}

func (c *Controller) scheduleLocked() {
	gen := c.generation
	c.thinking = true
	c.scheduler.AfterFunc(c.thinkDelay, func() {
		_ = c.do(func() error { return c.computerMoveLocked(gen) })
	})
}

func (c *Controller) computerMoveLocked(gen uint64) error {
	if gen != c.generation || c.turn != ComputerToMove {
		c.logger.Debug("computer_move_discarded",
			zap.String("session_id", c.gameID),
			zap.Uint64("scheduled_generation", gen),
			zap.Uint64("generation", c.generation),
		)
		return errStaleMove
	}
	c.thinking = false

	moves := c.board.LegalMoves(nil)
	if len(moves) == 0 {
		c.fault = fmt.Errorf("%w: no legal moves for %s without a terminal status", ErrInconsistentState, c.board.SideToMove())
		c.logger.Error("computer_no_legal_moves",
			zap.String("session_id", c.gameID),
			zap.String("fen", c.board.FEN()),
		)
		return c.fault
	}
	mv, err := selector.Select(moves, c.rand.Next())
	if err != nil {
		c.fault = fmt.Errorf("%w: %v", ErrInconsistentState, err)
		return c.fault
	}
	intent := domain.MoveIntent{From: mv.From, To: mv.To}
	if mv.PromotionEligible {
		intent.Promotion = domain.KindPtr(domain.Queen)
	}
	rec, err := c.board.ApplyMove(intent)
	if err != nil {
		c.fault = fmt.Errorf("%w: computer move %s%s rejected: %v", ErrInconsistentState, mv.From, mv.To, err)
		c.logger.Error("computer_move_rejected",
			zap.String("session_id", c.gameID),
			zap.String("from", mv.From.String()),
			zap.String("to", mv.To.String()),
			zap.Error(err),
		)
		return c.fault
	}
	c.appendLocked(rec)
	return nil
}

func (c *Controller) clickLocked(sq domain.Square) error {
	if c.fault != nil {
		return c.fault
	}
	if c.pending != nil {
		return ErrPromotionPending
	}
	if c.turn != HumanToMove {
		return ErrNotHumanTurn
	}

	if c.selected == nil {
		if p, ok := c.board.PieceAt(sq); ok && p.Color == c.playerColor {
			c.selectLocked(sq)
		}
		return nil
	}
	if *c.selected == sq {
		c.clearSelectionLocked()
		return nil
	}
	for _, mv := range c.destinations {
		if mv.To == sq {
			return c.attemptLocked(mv)
		}
	}
	if p, ok := c.board.PieceAt(sq); ok && p.Color == c.playerColor {
		c.selectLocked(sq)
		return nil
	}
	c.clearSelectionLocked()
	return nil
}

func (c *Controller) selectLocked(sq domain.Square) {
	s := sq
	c.selected = &s
	c.destinations = c.board.LegalMoves(&s)
}

func (c *Controller) clearSelectionLocked() {
	c.selected = nil
	c.destinations = nil
}

func (c *Controller) attemptLocked(mv domain.LegalMove) error {
	piece, _ := c.board.PieceAt(mv.From)
	if mv.PromotionEligible || (piece.Kind == domain.Pawn && mv.To.Rank() == domain.PromotionRank(piece.Color)) {
		c.pending = &domain.MoveIntent{From: mv.From, To: mv.To}
		c.logger.Debug("promotion_pending",
			zap.String("session_id", c.gameID),
			zap.String("from", mv.From.String()),
			zap.String("to", mv.To.String()),
		)
		return nil
	}
	return c.applyHumanLocked(domain.MoveIntent{From: mv.From, To: mv.To})
}

func (c *Controller) choosePromotionLocked(kind domain.PieceKind) error {
	if c.pending == nil || c.turn != HumanToMove {
		return ErrNoPendingPromotion
	}
	valid := false
	for _, k := range domain.PromotionKinds {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %q", ErrInvalidPromotion, kind)
	}
	intent := *c.pending
	intent.Promotion = domain.KindPtr(kind)
	if err := c.applyHumanLocked(intent); err != nil {
		return err
	}
	c.pending = nil
	return nil
}

func (c *Controller) applyHumanLocked(intent domain.MoveIntent) error {
	rec, err := c.board.ApplyMove(intent)
	if err != nil {
		c.logger.Warn("human_move_rejected",
			zap.String("session_id", c.gameID),
			zap.String("from", intent.From.String()),
			zap.String("to", intent.To.String()),
			zap.Error(err),
		)
		return err
	}
	c.appendLocked(rec)
	return nil
}

func (c *Controller) appendLocked(rec domain.MoveRecord) {
	c.history = append(c.history, rec)
	c.clearSelectionLocked()
	c.logger.Info("solo_move",
		zap.String("session_id", c.gameID),
		zap.Uint64("generation", c.generation),
		zap.String("color", string(rec.Color)),
		zap.String("uci", rec.UCI),
		zap.String("san", rec.SAN),
	)
	c.refreshLocked()
	c.logger.Debug("solo_turn", zap.String("session_id", c.gameID), zap.String("turn", string(c.turn)))
}

func (c *Controller) undoLocked() error {
	if c.fault != nil {
		return c.fault
	}
	last := -1
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].Color == c.playerColor {
			last = i
			break
		}
	}
	if c.pending != nil {
		c.pending = nil
		c.clearSelectionLocked()
		c.logger.Debug("promotion_cancel", zap.String("session_id", c.gameID))
	}
	if last < 0 {
		return nil
	}

	c.clearSelectionLocked()
	removed := len(c.history) - last
	for i := 0; i < removed; i++ {
		if err := c.board.UndoLastMove(); err != nil {
			c.fault = fmt.Errorf("%w: undo: %v", ErrInconsistentState, err)
			c.logger.Error("solo_undo_failed", zap.String("session_id", c.gameID), zap.Error(err))
			return c.fault
		}
		c.history = c.history[:len(c.history)-1]
	}
	c.generation++
	c.thinking = false
	c.refreshLocked()
	c.logger.Info("solo_undo",
		zap.String("session_id", c.gameID),
		zap.Uint64("generation", c.generation),
		zap.Int("removed", removed),
		zap.Int("plies", len(c.history)),
	)
	return nil
}

func (c *Controller) gameRecordLocked() domain.GameRecord {
	out := c.board.Outcome()
	rec := domain.GameRecord{
		ID:          c.gameID,
		PlayerColor: c.playerColor,
		Result:      out.Result,
		Winner:      out.Winner,
		Method:      out.Method,
		MovesUCI:    make([]string, 0, len(c.history)),
		MovesSAN:    make([]string, 0, len(c.history)),
		FEN:         c.board.FEN(),
		StartedAt:   c.startedAt,
		EndedAt:     c.now(),
	}
	for _, h := range c.history {
		rec.MovesUCI = append(rec.MovesUCI, h.UCI)
		rec.MovesSAN = append(rec.MovesSAN, h.SAN)
	}
	rec.PGN = domain.BuildPGN(rec)
	return rec
}

func (c *Controller) save(rec domain.GameRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := c.archive.Save(ctx, rec); err != nil {
		c.logger.Warn("solo_archive_failed", zap.String("session_id", rec.ID), zap.Error(err))
		return
	}
	c.logger.Debug("solo_archived", zap.String("session_id", rec.ID))
}
