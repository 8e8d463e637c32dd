package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/server"
	"github.com/platinummonkey/protodoc/pkg/site"
	"github.com/platinummonkey/protodoc/pkg/storage"
	"github.com/platinummonkey/protodoc/pkg/watcher"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate documentation as proto files change",
		Long: `Runs an initial build, then watches the proto paths and regenerates the
affected pages on every change. Optionally serves the docs directory with
health and metrics endpoints and rebuilds everything on a cron schedule.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().Bool("serve", false, "serve the docs directory while watching")
	cmd.Flags().String("addr", "", "preview server address (implies --serve)")
	cmd.Flags().Duration("debounce", 0, "quiet period before a changed file is processed")
	cmd.Flags().String("rebuild-schedule", "", "cron schedule for full rebuilds, e.g. \"@every 1h\"")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	health := observability.NewHealthChecker(Version)

	env, err := newEnvironment(cmd, metrics)
	if err != nil {
		return err
	}
	log := env.log
	out := cmd.OutOrStdout()

	flags := cmd.Flags()
	if flags.Changed("debounce") {
		env.config.Watch.Debounce, _ = flags.GetDuration("debounce")
	}
	if flags.Changed("rebuild-schedule") {
		env.config.Watch.RebuildSchedule, _ = flags.GetString("rebuild-schedule")
	}
	if flags.Changed("addr") {
		env.config.Watch.ServeAddr, _ = flags.GetString("addr")
	}
	if err := env.config.Validate(); err != nil {
		return err
	}
	serve, _ := flags.GetBool("serve")
	addr := env.config.ServeAddr(serve)

	build := func(ctx context.Context, force bool) {
		start := time.Now()
		result, err := env.site.Build(ctx, force)
		reportBuild(out, health, result, err, time.Since(start))
		if err != nil && !errors.Is(err, site.ErrNoSources) {
			log.WithError(err).Error("Build failed")
		}
	}

	build(ctx, false)

	watchConfig, err := env.site.WatchConfig()
	if err != nil {
		return err
	}
	watchConfig.Debounce = env.config.Watch.Debounce

	w, err := watcher.New(watchConfig, func(ctx context.Context, event watcher.Event) {
		start := time.Now()
		result, err := env.site.HandleEvent(ctx, event)
		if result == nil && err == nil {
			return
		}
		reportBuild(out, health, result, err, time.Since(start))
		if err != nil {
			log.WithError(err).WithField("file", event.Path).Error("Failed to process change")
		}
	}, watcher.WithLogger(log), watcher.WithObserver(metrics))
	if err != nil {
		return err
	}

	var srv *server.Server
	if addr != "" {
		pages, err := storage.NewFileSystemStorage(env.site.OutputDir())
		if err != nil {
			return err
		}
		srv, err = server.New(server.Config{
			Addr:         addr,
			DocsDir:      env.docsDir,
			DocExtension: env.config.DocExtension,
			Pages:        pages,
			Health:       health,
			Registry:     registry,
			Metrics:      metrics,
			Logger:       log,
		})
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if schedule := env.config.Watch.RebuildSchedule; schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(schedule, func() {
			log.Info("Running scheduled rebuild")
			build(gctx, true)
		}); err != nil {
			return fmt.Errorf("invalid rebuild schedule: %w", err)
		}
		c.Start()
		defer func() {
			<-c.Stop().Done()
		}()
		log.WithField("schedule", schedule).Info("Scheduled full rebuilds")
	}

	g.Go(func() error {
		return w.Run(gctx)
	})
	if srv != nil {
		g.Go(func() error {
			return srv.Run(gctx)
		})
		fmt.Fprintf(out, "Serving %s on http://%s\n", env.docsDir, addr)
	}

	noticeColor.Fprintf(out, "Watching %v for changes (press Ctrl+C to stop)\n", env.config.ProtoPaths)

	err = g.Wait()
	if saveErr := env.files.Save(); saveErr != nil {
		log.WithError(saveErr).Warn("Failed to save file cache")
	}
	stats := env.memo.Stats()
	log.WithFields(logrus.Fields{
		"memo_hits":   stats.Hits,
		"memo_misses": stats.Misses,
	}).Debug("Watch stopped")
	return err
}

// reportBuild prints a build summary and records it for readiness
func reportBuild(out io.Writer, health *observability.HealthChecker, result *site.BuildResult, err error, elapsed time.Duration) {
	printSummary(out, result, elapsed)

	var generated, failed int
	if result != nil {
		generated = len(result.Generated)
		failed = len(result.Failed)
	}
	health.RecordBuild(generated, failed, err)
}
