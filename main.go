package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"natbwdash/internal/config"
	"natbwdash/internal/log"
	"natbwdash/internal/models"
	"natbwdash/internal/poller"
	"natbwdash/internal/reporting"
	"natbwdash/internal/server"
	"natbwdash/internal/statsapi"
	"natbwdash/internal/tui"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	var cfg config.Config
	cfg.Register(flag.CommandLine)
	flag.Parse()
	if err := config.ApplyEnv(flag.CommandLine, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	// The terminal dashboard owns the screen, only log there to a file.
	var logOut io.Writer = os.Stderr
	if cfg.Mode == config.ModeTUI {
		logOut = io.Discard
	}
	if err := cfg.Log.Setup(logOut); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := statsapi.NewClient(cfg.URL)
	client.Timeout = cfg.Timeout

	var err error
	switch cfg.Mode {
	case config.ModeTUI:
		err = runTUI(ctx, cfg, client)
	case config.ModeServe:
		srv := server.New(client, cfg.Layout(), cfg.URL)
		srv.Interval = cfg.Interval
		err = srv.ListenAndServe(ctx, cfg.Listen)
	case config.ModeReport:
		err = runReport(ctx, cfg, client)
	}
	if err != nil {
		log.Error().Err(err).Str("mode", cfg.Mode).Msg("exiting")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(ctx context.Context, cfg config.Config, client *statsapi.Client) error {
	renderer := tui.NewRenderer()
	sched := poller.NewScheduler(client, renderer)
	sched.Interval = cfg.Interval
	sched.State = poller.NewViewState(models.OrderKey(cfg.OrderBy))

	model := tui.NewDashboardModel(sched, sched.Board, renderer, cfg.Layout(), cfg.URL)
	sched.Suppressors = model.Suppressors()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runReport(ctx context.Context, cfg config.Config, client *statsapi.Client) error {
	key := models.OrderKey(cfg.OrderBy)
	stats, err := client.Fetch(ctx, key)
	if err != nil {
		return err
	}
	snap := models.Snapshot{Seq: 1, OrderBy: key, Stats: stats, FetchedAt: time.Now()}
	filename, err := reporting.WriteReport(cfg.Report, cfg.URL, snap, cfg.Layout())
	if err != nil {
		return err
	}
	log.Info().Str("file", filename).Int("hosts", len(stats)).Msg("report written")
	fmt.Println(filename)
	return nil
}
