package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/apply-pipeline/internal/config"
	"github.com/jonathan/apply-pipeline/internal/email"
	"github.com/jonathan/apply-pipeline/internal/gist"
	"github.com/jonathan/apply-pipeline/internal/ingest"
	"github.com/jonathan/apply-pipeline/internal/llm"
	"github.com/jonathan/apply-pipeline/internal/pipeline"
	"github.com/jonathan/apply-pipeline/internal/render"
	"github.com/jonathan/apply-pipeline/internal/scrape"
	"github.com/jonathan/apply-pipeline/internal/store"
	"github.com/jonathan/apply-pipeline/internal/types"
	"github.com/jonathan/apply-pipeline/internal/writer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline loop until interrupted",
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if err := st.SeedSettings(ctx, map[string]string{
		"min_content_chars":     strconv.Itoa(cfg.MinContentChars),
		"poll_interval_seconds": strconv.Itoa(int(cfg.PollInterval().Seconds())),
	}); err != nil {
		return err
	}

	profile, err := types.LoadUserProfile(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("failed to load user profile: %w", err)
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	fullName := cfg.FullName
	if fullName == "" {
		fullName = profile.FullName
	}

	gate := ingest.New(st, sourceList(cfg))

	advancer := pipeline.NewAdvancer(
		st,
		&scrape.Scraper{Timeout: scrape.DefaultTimeout, Verbose: cfg.Verbose},
		writer.New(client, profile),
		render.New(cfg.OutputDir, cfg.FileName),
		gate,
		fullName,
		cfg.MinContentChars,
	)

	notifier := pipeline.NewNotifier(st, emailer(cfg))
	sched := pipeline.NewScheduler(gate, advancer, notifier, st, cfg.PollInterval())

	log.Printf("[RUN] Pipeline starting, database connected")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Printf("[RUN] Pipeline stopped")
	return nil
}

// sourceList returns the gist-backed source list, or nil when disabled.
func sourceList(cfg *config.Config) ingest.SourceList {
	if !cfg.Gist.Enabled {
		return nil
	}
	return gist.New(cfg.Gist.Token, cfg.Gist.ID, cfg.Gist.File)
}

// emailer returns the SMTP deliverer, or nil when delivery is disabled.
func emailer(cfg *config.Config) pipeline.Emailer {
	if !cfg.Email.Enabled {
		return nil
	}
	return email.NewDeliverer(&email.Mailer{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
	})
}
