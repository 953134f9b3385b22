// Package httpapi serves the session's snapshot and intents over fasthttp,
// pushes snapshots over a websocket, and provides a matching client.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/internal/obslog"
	"github.com/park285/cheese-solo/internal/session"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

// Session is the presentation contract. *session.Controller implements it.
type Session interface {
	Snapshot() chessdto.Snapshot
	ClickSquare(sq domain.Square) error
	ChoosePromotion(kind domain.PieceKind) error
	CancelPromotion() error
	ToggleColor()
	Undo() error
	Reset()
}

// GameLister lists archived games. archive.Sink implements it.
type GameLister interface {
	Recent(ctx context.Context, limit int) ([]domain.GameRecord, error)
}

type Server struct {
	session     Session
	games       GameLister
	recentLimit int
	logger      *zap.Logger
	srv         *fasthttp.Server
}

type ServerOption func(*Server)

func WithGames(g GameLister, defaultLimit int) ServerOption {
	return func(s *Server) {
		s.games = g
		if defaultLimit > 0 {
			s.recentLimit = defaultLimit
		}
	}
}

func WithServerLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(sess Session, opts ...ServerOption) *Server {
	s := &Server{session: sess, recentLimit: 10, logger: obslog.L()}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "cheese-solo",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes requests; exposed for tests and in-memory listeners.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		switch {
		case ctx.IsGet() && path == "/state":
			s.writeSnapshot(ctx)
		case ctx.IsGet() && path == "/games":
			s.handleGames(ctx)
		case ctx.IsPost() && path == "/click":
			s.handleClick(ctx)
		case ctx.IsPost() && path == "/promotion":
			s.handlePromotion(ctx)
		case ctx.IsPost() && path == "/promotion/cancel":
			s.intent(ctx, "promotion_cancel", s.session.CancelPromotion())
		case ctx.IsPost() && path == "/color/toggle":
			s.session.ToggleColor()
			s.writeSnapshot(ctx)
		case ctx.IsPost() && path == "/undo":
			s.intent(ctx, "undo", s.session.Undo())
		case ctx.IsPost() && path == "/reset":
			s.session.Reset()
			s.writeSnapshot(ctx)
		default:
			writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: "not_found", Message: "unknown route " + path})
		}
	}
}

func (s *Server) handleClick(ctx *fasthttp.RequestCtx) {
	raw := string(ctx.QueryArgs().Peek("square"))
	if raw == "" {
		var req chessdto.ClickRequest
		if body := ctx.PostBody(); len(body) > 0 && json.Unmarshal(body, &req) == nil {
			raw = req.Square
		}
	}
	sq, err := domain.ParseSquare(raw)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: err.Error()})
		return
	}
	s.intent(ctx, "click", s.session.ClickSquare(sq))
}

func (s *Server) handlePromotion(ctx *fasthttp.RequestCtx) {
	raw := string(ctx.QueryArgs().Peek("kind"))
	if raw == "" {
		var req chessdto.PromotionRequest
		if body := ctx.PostBody(); len(body) > 0 && json.Unmarshal(body, &req) == nil {
			raw = req.Kind
		}
	}
	kind, err := domain.ParsePromotion(raw)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: err.Error()})
		return
	}
	s.intent(ctx, "promotion", s.session.ChoosePromotion(kind))
}

func (s *Server) handleGames(ctx *fasthttp.RequestCtx) {
	if s.games == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, chessdto.DomainError{Code: chessdto.CodeArchiveUnavailable, Message: "no archive configured"})
		return
	}
	limit := s.recentLimit
	if v := ctx.QueryArgs().Peek("limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n <= 0 || n > 100 {
			writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: "limit must be 1..100"})
			return
		}
		limit = n
	}
	rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recs, err := s.games.Recent(rctx, limit)
	if err != nil {
		s.logger.Warn("http_games_failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusServiceUnavailable, chessdto.DomainError{Code: chessdto.CodeArchiveUnavailable, Message: err.Error(), Retryable: true})
		return
	}
	resp := chessdto.GamesResponse{Games: make([]chessdto.ArchivedGame, 0, len(recs))}
	for _, r := range recs {
		resp.Games = append(resp.Games, ArchivedGame(r))
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// intent maps a controller result to a response. Rejected intents leave the
// session untouched and come back as 409.
func (s *Server) intent(ctx *fasthttp.RequestCtx, name string, err error) {
	if err == nil {
		s.writeSnapshot(ctx)
		return
	}
	s.logger.Debug("http_intent_ignored", zap.String("intent", name), zap.Error(err))
	if errors.Is(err, session.ErrInconsistentState) {
		writeError(ctx, fasthttp.StatusInternalServerError, chessdto.DomainError{Code: chessdto.CodeInconsistent, Message: err.Error()})
		return
	}
	if errors.Is(err, session.ErrInvalidPromotion) {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: err.Error()})
		return
	}
	writeError(ctx, fasthttp.StatusConflict, chessdto.DomainError{Code: chessdto.CodeIgnored, Message: err.Error()})
}

func (s *Server) writeSnapshot(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, s.session.Snapshot())
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode response", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, e chessdto.DomainError) {
	writeJSON(ctx, status, e)
}

// ArchivedGame converts a stored record to its wire form.
func ArchivedGame(r domain.GameRecord) chessdto.ArchivedGame {
	return chessdto.ArchivedGame{
		ID:          r.ID,
		PlayerColor: string(r.PlayerColor),
		Result:      r.Result,
		Winner:      string(r.Winner),
		Method:      r.Method,
		MovesSAN:    append([]string(nil), r.MovesSAN...),
		PGN:         r.PGN,
		StartedAt:   r.StartedAt,
		EndedAt:     r.EndedAt,
		DurationMS:  r.Duration().Milliseconds(),
	}
}
