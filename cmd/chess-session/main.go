package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/park285/cheese-solo/internal/adapter/sessionpresenter"
	appcfg "github.com/park285/cheese-solo/internal/config"
	"github.com/park285/cheese-solo/internal/httpapi"
	"github.com/park285/cheese-solo/internal/obslog"
	"github.com/park285/cheese-solo/internal/session"
	"github.com/park285/cheese-solo/internal/sessionbuilder"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred profile and log flushes happen.
func run() error {
	serve := flag.Bool("serve", false, "serve the session over HTTP instead of the terminal")
	remote := flag.String("remote", "", "drive a session served at this base URL (e.g. http://127.0.0.1:8088)")
	watch := flag.String("watch", "", "websocket URL for pushed snapshots in remote mode (e.g. ws://127.0.0.1:8089/ws)")
	unicode := flag.Bool("unicode", false, "draw pieces with chess glyphs")
	prof := flag.String("profile", "", "write a cpu or mem profile to the working directory")
	flag.Parse()

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		return fmt.Errorf("unknown -profile %q (cpu|mem)", *prof)
	}

	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if !*serve {
		// REPL 화면을 로그가 덮지 않도록 파일로만 기록
		cfg.Log.ToConsole = false
		cfg.Log.ToFile = true
	}
	if err := obslog.Init(cfg.Log); err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	presenter := sessionpresenter.NewPresenter(os.Stdout, &sessionpresenter.Formatter{Unicode: *unicode})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *remote != "":
		return runRemote(ctx, *remote, *watch, presenter, logger)
	case *serve:
		return runServer(ctx, cfg, logger)
	default:
		return runLocal(ctx, cfg, presenter, logger)
	}
}

func runLocal(ctx context.Context, cfg *appcfg.AppConfig, presenter *sessionpresenter.Presenter, logger *zap.Logger) error {
	deps, err := sessionbuilder.New(cfg, logger, []session.Observer{presenter.Show})
	if err != nil {
		return fmt.Errorf("session init error: %w", err)
	}
	defer deps.Close()

	stopPush := startPushServer(cfg.PushAddr, deps.Hub, logger)
	defer stopPush()

	d := &localDriver{session: deps.Session, games: deps.Games(), limit: cfg.Archive.RecentLimit}
	newREPL(d, presenter, false).Run(ctx, os.Stdin)
	return nil
}

func runServer(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) error {
	deps, err := sessionbuilder.New(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("session init error: %w", err)
	}
	defer deps.Close()

	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = "127.0.0.1:8088"
	}
	srv := httpapi.NewServer(deps.Session, httpapi.WithGames(deps.Games(), cfg.Archive.RecentLimit), httpapi.WithServerLogger(logger))
	stopPush := startPushServer(cfg.PushAddr, deps.Hub, logger)
	defer stopPush()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("http_serve_failed", zap.Error(serveErr))
			serveErr = fmt.Errorf("http serve: %w", serveErr)
		}
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	return serveErr
}

func runRemote(ctx context.Context, baseURL, wsURL string, presenter *sessionpresenter.Presenter, logger *zap.Logger) error {
	client := httpapi.NewClient(baseURL, httpapi.WithTimeout(8*time.Second), httpapi.WithRetry(2))
	d := &remoteDriver{client: client, limit: 10}
	if wsURL != "" {
		go func() {
			err := httpapi.Watch(ctx, wsURL, 5, presenter.Show)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("push_watch_stopped", zap.Error(err))
			}
		}()
	}
	// Without a push stream the REPL prints each response itself.
	newREPL(d, presenter, wsURL == "").Run(ctx, os.Stdin)
	return nil
}

// startPushServer serves hub on addr/ws when addr is set.
func startPushServer(addr string, hub *httpapi.Hub, logger *zap.Logger) func() {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("push_listen", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("push_serve_failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-serve] [-remote URL [-watch WS_URL]] [-unicode] [-profile cpu|mem]\n", os.Args[0])
		flag.PrintDefaults()
	}
}
