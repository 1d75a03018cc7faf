package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/config"
	"github.com/BuzzLyutic/task-cli/internal/repo"
	"github.com/BuzzLyutic/task-cli/internal/store"
)

const notFoundMessage = "Task with given hash not found."

// BackendFactory builds the storage backend for the resolved config. The
// returned cleanup func releases backend resources.
type BackendFactory func(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Backend, func(), error)

// Options are the injectable dependencies of the command tree.
type Options struct {
	Config  config.Config
	Logger  *zap.Logger
	Now     func() time.Time
	Backend BackendFactory
}

type app struct {
	cfg     config.Config
	logger  *zap.Logger
	now     func() time.Time
	backend BackendFactory
}

func NewRootCommand(opts Options) *cobra.Command {
	a := &app{
		cfg:     opts.Config,
		logger:  opts.Logger,
		now:     opts.Now,
		backend: opts.Backend,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.backend == nil {
		a.backend = DefaultBackend
	}

	root := &cobra.Command{
		Use:           "tasks",
		Short:         "tasks - manage a personal task list",
		Long:          "Create, update, delete and list tasks kept in a local JSON file or a PostgreSQL table.",
		Example:       `  tasks add --name "Pay rent" --deadline 2024-05-01 --description "Monthly rent"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.cfg.Validate()
		},
	}
	root.SetUsageTemplate(root.UsageTemplate() + "\nMulti-word values must be encased in quotes, like \"that\".\n")

	root.PersistentFlags().StringVar(&a.cfg.StorageFile, "file", a.cfg.StorageFile, "path to the task storage file")
	root.PersistentFlags().StringVar(&a.cfg.Storage, "storage", a.cfg.Storage, `storage backend: "file" or "postgres"`)

	root.AddCommand(
		a.addCommand(),
		a.updateCommand(),
		a.deleteCommand(),
		a.listCommand(),
		a.serveCommand(),
	)
	return root
}

// session runs fn against a store backed by the configured storage.
func (a *app) session(ctx context.Context, fn func(*store.Store) error) error {
	backend, cleanup, err := a.backend(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return store.Session(ctx, backend, fn, a.storeOptions()...)
}

func (a *app) storeOptions() []store.Option {
	return []store.Option{store.WithLogger(a.logger), store.WithClock(a.now)}
}

func (a *app) printNotFound(cmd *cobra.Command) {
	fmt.Fprintln(cmd.OutOrStdout(), notFoundMessage)
}
