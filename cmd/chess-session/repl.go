package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-solo/internal/adapter/sessionpresenter"
	"github.com/park285/cheese-solo/internal/domain"
	"github.com/park285/cheese-solo/internal/httpapi"
	"github.com/park285/cheese-solo/internal/session"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

var errQuit = errors.New("quit")

// driver is the presentation contract as the REPL sees it, either the
// in-process controller or a remote server.
type driver interface {
	State(ctx context.Context) (chessdto.Snapshot, error)
	Click(ctx context.Context, square string) error
	Promote(ctx context.Context, kind string) error
	Cancel(ctx context.Context) error
	Toggle(ctx context.Context) error
	Undo(ctx context.Context) error
	Reset(ctx context.Context) error
	Games(ctx context.Context, limit int) ([]chessdto.ArchivedGame, error)
}

type repl struct {
	d         driver
	presenter *sessionpresenter.Presenter
	// echo prints the state after every command.
	echo bool
}

func newREPL(d driver, p *sessionpresenter.Presenter, echo bool) *repl {
	return &repl{d: d, presenter: p, echo: echo}
}

func (r *repl) Run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	if r.echo {
		r.show(ctx)
	}
	r.presenter.Print("Type 'help' for commands.")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := r.exec(cctx, line)
			cancel()
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				r.presenter.Printf("ignored: %v", err)
			}
		}
	}
}

// exec runs one command line.
func (r *repl) exec(ctx context.Context, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "quit", "exit", "q!":
		return errQuit
	case "help", "?":
		r.presenter.Print(r.presenter.Formatter().Help())
		return nil
	case "show", "board":
		r.show(ctx)
		return nil
	case "moves":
		s, err := r.d.State(ctx)
		if err != nil {
			return err
		}
		r.presenter.Print(r.presenter.Formatter().MoveTable(s))
		return nil
	case "games":
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("games: bad limit %q", args[0])
			}
			limit = n
		}
		games, err := r.d.Games(ctx, limit)
		if err != nil {
			return err
		}
		r.presenter.Print(r.presenter.Formatter().Games(games))
		return nil
	case "undo":
		return r.after(ctx, r.d.Undo(ctx))
	case "reset", "new":
		return r.after(ctx, r.d.Reset(ctx))
	case "flip", "toggle":
		return r.after(ctx, r.d.Toggle(ctx))
	case "cancel":
		return r.after(ctx, r.d.Cancel(ctx))
	case "promote":
		if len(args) != 1 {
			return errors.New("promote: need one of q r b n")
		}
		return r.after(ctx, r.d.Promote(ctx, args[0]))
	case "click":
		if len(args) != 1 {
			return errors.New("click: need a square")
		}
		return r.after(ctx, r.d.Click(ctx, args[0]))
	}

	switch {
	case len(cmd) == 1 && strings.Contains("qrbn", cmd):
		return r.after(ctx, r.d.Promote(ctx, cmd))
	case len(cmd) == 2:
		return r.after(ctx, r.d.Click(ctx, cmd))
	case len(cmd) == 4 || len(cmd) == 5:
		return r.after(ctx, r.move(ctx, cmd))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// move plays a coordinate move as the two clicks it stands for, plus the
// promotion choice when one is given.
func (r *repl) move(ctx context.Context, uci string) error {
	from, to := uci[:2], uci[2:4]
	if _, err := domain.ParseSquare(from); err != nil {
		return err
	}
	if _, err := domain.ParseSquare(to); err != nil {
		return err
	}
	s, err := r.d.State(ctx)
	if err != nil {
		return err
	}
	if s.Selection == nil || s.Selection.Square != from {
		// A click on from would otherwise move the selected piece there.
		if s.Selection != nil {
			if err := r.d.Click(ctx, s.Selection.Square); err != nil {
				return err
			}
		}
		if err := r.d.Click(ctx, from); err != nil {
			return err
		}
		if s, err = r.d.State(ctx); err != nil {
			return err
		}
		if s.Selection == nil || s.Selection.Square != from {
			return fmt.Errorf("no piece of yours on %s", from)
		}
	}
	if err := r.d.Click(ctx, to); err != nil {
		return err
	}
	if len(uci) == 5 {
		return r.d.Promote(ctx, uci[4:])
	}
	return nil
}

func (r *repl) after(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if r.echo {
		r.show(ctx)
	}
	return nil
}

func (r *repl) show(ctx context.Context) {
	s, err := r.d.State(ctx)
	if err != nil {
		r.presenter.Printf("state unavailable: %v", err)
		return
	}
	r.presenter.Show(s)
}

type localDriver struct {
	session *session.Controller
	games   httpapi.GameLister
	limit   int
}

func (d *localDriver) State(context.Context) (chessdto.Snapshot, error) {
	return d.session.Snapshot(), nil
}

func (d *localDriver) Click(_ context.Context, square string) error {
	sq, err := domain.ParseSquare(square)
	if err != nil {
		return err
	}
	return d.session.ClickSquare(sq)
}

func (d *localDriver) Promote(_ context.Context, kind string) error {
	k, err := domain.ParsePromotion(kind)
	if err != nil {
		return err
	}
	return d.session.ChoosePromotion(k)
}

func (d *localDriver) Cancel(context.Context) error { return d.session.CancelPromotion() }

func (d *localDriver) Toggle(context.Context) error {
	d.session.ToggleColor()
	return nil
}

func (d *localDriver) Undo(context.Context) error { return d.session.Undo() }

func (d *localDriver) Reset(context.Context) error {
	d.session.Reset()
	return nil
}

func (d *localDriver) Games(ctx context.Context, limit int) ([]chessdto.ArchivedGame, error) {
	if d.games == nil {
		return nil, errors.New("no archive configured")
	}
	if limit <= 0 {
		limit = d.limit
	}
	recs, err := d.games.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]chessdto.ArchivedGame, 0, len(recs))
	for _, rec := range recs {
		out = append(out, httpapi.ArchivedGame(rec))
	}
	return out, nil
}

type remoteDriver struct {
	client *httpapi.Client
	limit  int
}

func (d *remoteDriver) State(ctx context.Context) (chessdto.Snapshot, error) {
	s, err := d.client.State(ctx)
	if err != nil {
		return chessdto.Snapshot{}, err
	}
	return *s, nil
}

func (d *remoteDriver) Click(ctx context.Context, square string) error {
	_, err := d.client.Click(ctx, square)
	return err
}

func (d *remoteDriver) Promote(ctx context.Context, kind string) error {
	_, err := d.client.Promote(ctx, kind)
	return err
}

func (d *remoteDriver) Cancel(ctx context.Context) error {
	_, err := d.client.CancelPromotion(ctx)
	return err
}

func (d *remoteDriver) Toggle(ctx context.Context) error {
	_, err := d.client.ToggleColor(ctx)
	return err
}

func (d *remoteDriver) Undo(ctx context.Context) error {
	_, err := d.client.Undo(ctx)
	return err
}

func (d *remoteDriver) Reset(ctx context.Context) error {
	_, err := d.client.Reset(ctx)
	return err
}

func (d *remoteDriver) Games(ctx context.Context, limit int) ([]chessdto.ArchivedGame, error) {
	if limit <= 0 {
		limit = d.limit
	}
	return d.client.Games(ctx, limit)
}
