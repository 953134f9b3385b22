package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/cheese-solo/internal/adapter/sessionpresenter"
	"github.com/park285/cheese-solo/internal/archive"
	"github.com/park285/cheese-solo/internal/rules"
	"github.com/park285/cheese-solo/internal/session"
)

func newTestREPL(t *testing.T) (*repl, *session.ManualScheduler, *session.Controller, *bytes.Buffer) {
	t.Helper()
	sched := session.NewManualScheduler()
	sink := archive.NewMemory()
	ctrl := session.New(func() session.Board { return rules.NewGame() },
		session.WithScheduler(sched),
		session.WithRand(nil),
		session.WithArchive(sink),
	)
	var out bytes.Buffer
	p := sessionpresenter.NewPresenter(&out, nil)
	return newREPL(&localDriver{session: ctrl, games: sink, limit: 5}, p, true), sched, ctrl, &out
}

func TestExec_CoordinateMove(t *testing.T) {
	r, sched, ctrl, out := newTestREPL(t)
	ctx := context.Background()
	if err := r.exec(ctx, "E2E4"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if h := ctrl.History(); len(h) != 1 || h[0].UCI != "e2e4" {
		t.Fatalf("unexpected history %+v", h)
	}
	if !strings.Contains(out.String(), "Computer is thinking...") {
		t.Fatalf("echo missing:\n%s", out.String())
	}
	sched.Fire()
	if err := r.exec(ctx, "undo"); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(ctrl.History()) != 0 {
		t.Fatalf("undo should clear both plies")
	}
}

func TestExec_ClicksAndErrors(t *testing.T) {
	r, _, ctrl, _ := newTestREPL(t)
	ctx := context.Background()
	if err := r.exec(ctx, "g1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if s := ctrl.Snapshot(); s.Selection == nil || s.Selection.Square != "g1" {
		t.Fatalf("g1 not selected: %+v", s.Selection)
	}
	if err := r.exec(ctx, "   "); err != nil {
		t.Fatalf("blank line: %v", err)
	}
	for _, bad := range []string{"frobnicate", "z9", "e2e9", "promote", "games x"} {
		if err := r.exec(ctx, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if err := r.exec(ctx, "q"); !errors.Is(err, session.ErrNoPendingPromotion) {
		t.Fatalf("expected ErrNoPendingPromotion, got %v", err)
	}
	if err := r.exec(ctx, "quit"); !errors.Is(err, errQuit) {
		t.Fatalf("expected errQuit, got %v", err)
	}
}

func TestExec_FlipAndGames(t *testing.T) {
	r, _, ctrl, out := newTestREPL(t)
	ctx := context.Background()
	if err := r.exec(ctx, "flip"); err != nil {
		t.Fatalf("flip: %v", err)
	}
	if ctrl.PlayerColor() != "black" {
		t.Fatalf("flip did not switch colour")
	}
	out.Reset()
	if err := r.exec(ctx, "games 3"); err != nil {
		t.Fatalf("games: %v", err)
	}
	if !strings.Contains(out.String(), "No archived games.") {
		t.Fatalf("unexpected games output %q", out.String())
	}
}

func TestRun_StopsOnQuit(t *testing.T) {
	r, _, ctrl, out := newTestREPL(t)
	r.Run(context.Background(), strings.NewReader("e2e4\nquit\ne7e5\n"))
	if len(ctrl.History()) != 1 {
		t.Fatalf("commands after quit should not run")
	}
	if !strings.Contains(out.String(), "Type 'help' for commands.") {
		t.Fatalf("missing banner:\n%s", out.String())
	}
}

func TestExec_CoordinateMoveReplacesSelection(t *testing.T) {
	r, _, ctrl, _ := newTestREPL(t)
	ctx := context.Background()
	if err := r.exec(ctx, "g1"); err != nil {
		t.Fatalf("select g1: %v", err)
	}
	// f3 is a knight destination from g1; with no piece there the move is refused.
	if err := r.exec(ctx, "f3f4"); err == nil {
		t.Fatalf("expected an error for a move from an empty square")
	}
	if h := ctrl.History(); len(h) != 0 {
		t.Fatalf("selected knight was moved: %+v", h)
	}
	if s := ctrl.Snapshot(); s.Selection != nil {
		t.Fatalf("selection should be cleared, got %+v", s.Selection)
	}

	if err := r.exec(ctx, "b1"); err != nil {
		t.Fatalf("select b1: %v", err)
	}
	if err := r.exec(ctx, "e2e4"); err != nil {
		t.Fatalf("e2e4 with b1 selected: %v", err)
	}
	if h := ctrl.History(); len(h) != 1 || h[0].UCI != "e2e4" {
		t.Fatalf("unexpected history %+v", h)
	}
}
