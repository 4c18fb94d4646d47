package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App represents the CLI application.
type App struct {
	root     *cobra.Command
	rootOpts *serveOptions
	stdout   io.Writer
	stderr   io.Writer
}

// New creates the CLI. Running it without a subcommand starts the server.
func New() *App {
	app := &App{
		rootOpts: &serveOptions{},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "pokedex-api",
		Short: "Caching proxy in front of the public Pokémon catalog",
		Long: `pokedex-api serves paged listings, name search and detail lookups of the
Pokémon catalog, caching every upstream response in memory, plus per-identity
favorites with a live event stream.

Configuration comes from the environment (PORT, POKEAPI_BASE_URL, CACHE_TTL, ...);
flags take precedence and are accepted both here and on the serve command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runServe(cmd, app.rootOpts)
		},
	}
	app.rootOpts.bind(app.root)

	app.root.AddCommand(app.newServeCmd(), app.newVersionCmd())
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI; SIGINT and SIGTERM cancel the command context.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "pokedex-api version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
		},
	}
}
