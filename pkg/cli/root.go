package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/protodoc/pkg/cache"
	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/nav"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/site"
)

// Version is set at build time
var Version = "dev"

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "protodoc",
		Short:         "Generate Markdown API documentation from Protocol Buffer files",
		Long:          `protodoc turns .proto files into cross-linked Markdown pages and keeps an mkdocs navigation up to date`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default: protodoc.yaml in the working directory)")
	flags.StringSliceP("proto-path", "p", nil, "proto file or directory (repeatable)")
	flags.StringP("output-dir", "o", "", "output directory, relative to the docs directory")
	flags.String("site-config", "", "mkdocs.yml whose nav is updated")
	flags.String("docs-dir", "", "docs directory (default: docs_dir from the site config)")
	flags.String("cache-file", "", "change cache file")
	flags.Int("workers", 0, "parallel page renders")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.Bool("no-color", false, "disable colored output")

	root.AddCommand(newGenerateCommand())
	root.AddCommand(newWatchCommand())

	return root
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig layers the config file, the environment and the flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	var (
		cfg *config.Config
		err error
	)
	if path, _ := flags.GetString("config"); path != "" {
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()

	if flags.Changed("proto-path") {
		cfg.ProtoPaths, _ = flags.GetStringSlice("proto-path")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("site-config") {
		cfg.SiteConfig, _ = flags.GetString("site-config")
	}
	if flags.Changed("docs-dir") {
		cfg.DocsDir, _ = flags.GetString("docs-dir")
	}
	if flags.Changed("cache-file") {
		cfg.CacheFile, _ = flags.GetString("cache-file")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// environment is everything a command needs to build the site
type environment struct {
	config  *config.Config
	log     *logrus.Logger
	docsDir string
	files   *cache.FileCache
	memo    *cache.ExtractMemo
	site    *site.Site
}

// newEnvironment wires the site from cmd's configuration. metrics may be
// nil.
func newEnvironment(cmd *cobra.Command, metrics *observability.Metrics) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	siteConfig := cfg.SiteConfig
	docsDir := cfg.DocsDir
	if _, err := os.Stat(siteConfig); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Warnf("Site config %s not found, navigation will not be updated", siteConfig)
		siteConfig = ""
	} else if docsDir == "" {
		sc, err := nav.LoadSiteConfig(siteConfig)
		if err != nil {
			return nil, err
		}
		docsDir = sc.DocsDir()
	}
	if docsDir == "" {
		docsDir = "docs"
	}
	if docsDir, err = filepath.Abs(docsDir); err != nil {
		return nil, err
	}

	files, err := cache.NewFileCache(cfg.CacheFile, log)
	if err != nil {
		return nil, err
	}

	var (
		memoObserver cache.MemoObserver
		observer     docs.Observer
	)
	if metrics != nil {
		memoObserver = metrics
		observer = metrics
	}
	memo := cache.NewExtractMemo(cfg.MemoCacheConfig(), memoObserver)

	s, err := site.New(site.Config{
		ProtoPaths:   cfg.ProtoPaths,
		OutputDir:    cfg.ResolveOutputDir(docsDir),
		DocExtension: cfg.DocExtension,
		Workers:      cfg.Workers,
		SiteConfig:   siteConfig,
		DocsDir:      docsDir,
	},
		site.WithLogger(log),
		site.WithFileCache(files),
		site.WithExtractor(memo),
		site.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"proto_paths": cfg.ProtoPaths,
		"docs_dir":    docsDir,
		"output_dir":  s.OutputDir(),
		"cache_file":  files.Path(),
	}).Debug("Configuration loaded")

	return &environment{
		config:  cfg,
		log:     log,
		docsDir: docsDir,
		files:   files,
		memo:    memo,
		site:    s,
	}, nil
}
