package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"shortlink/internal/codegen"
	"shortlink/internal/config"
	"shortlink/internal/domain"
	"shortlink/internal/repository"
	"shortlink/internal/service"
	"shortlink/internal/storage"
	"shortlink/pkg/logger"

	"github.com/spf13/cobra"
)

// application carries what every subcommand needs once the root command
// has loaded config and opened the store
type application struct {
	cfg   *config.Config
	repo  repository.LinkRepository
	links *service.LinkService

	storeOverride string
	verbose       bool
}

func (a *application) close() {
	if a.repo != nil {
		a.repo.Close()
		a.repo = nil
	}
}

// setup loads configuration and opens the store
func (a *application) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.storeOverride != "" {
		cfg.Store.Driver = a.storeOverride
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level)

	repo, err := storage.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	a.repo = repo
	a.links = service.NewLinkService(
		repo,
		codegen.New(),
		log.Logger,
		service.WithCodeLength(cfg.App.ShortCodeLength),
		service.WithMaxAttempts(cfg.App.MaxCodeAttempts),
	)

	return nil
}

func (a *application) shortURL(code string) string {
	return fmt.Sprintf("%s/%s", a.cfg.App.BaseURL, code)
}

func newRootCmd(app *application) *cobra.Command {
	root := &cobra.Command{
		Use:   "shortlinkctl",
		Short: "Create, resolve and inspect short links",
		Long: `shortlinkctl talks to the configured link store directly.

Configuration comes from configs/config.yaml, .env and SHORTLINK_*
environment variables, exactly as for the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&app.storeOverride, "store", "", "store driver override (postgres, sqlite, redis)")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log service activity to stderr")

	root.AddCommand(
		newCreateCmd(app),
		newResolveCmd(app),
		newStatsCmd(app),
		newMigrateCmd(app),
	)

	return root
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &application{}
	defer app.close()

	root := newRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		return exitCode(err)
	}
	return 0
}

// exitCode distinguishes "the link store said no" from everything else
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDuplicateCode):
		return 2
	default:
		return 1
	}
}
