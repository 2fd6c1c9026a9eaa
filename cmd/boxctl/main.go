package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/accounts"
	"github.com/compose-network/boxctl/internal/logger"
	"github.com/compose-network/boxctl/internal/networks"
	"github.com/compose-network/boxctl/internal/retrieve"
	"github.com/compose-network/boxctl/internal/upgrade"
	"github.com/spf13/cobra"
)

const appName = "boxctl"

type rootFlags struct {
	envFile        string
	catalog        string
	logLevel       string
	artifactsDir   string
	deploymentsDir string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Environ(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args, environ []string, stdout, stderr io.Writer) int {
	var cfg configs.Config

	rootCmd := newRootCommand(&cfg, environ, stderr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func newRootCommand(cfg *configs.Config, environ []string, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Read and upgrade Box contracts deployed behind a proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			logger.Initialize(level, stderr)

			loaded, err := loadConfig(flags, environ)
			if err != nil {
				slog.With("err", err.Error()).Error("unable to load configuration")
				return err
			}
			*cfg = loaded

			slog.With("config", *cfg).Debug("configuration loaded")

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", configs.DefaultDotEnvFile, "Dotenv file read before the process environment")
	rootCmd.PersistentFlags().StringVar(&flags.catalog, "config", "", "Network catalog merged over the built-in one")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.artifactsDir, "artifacts", "", "Compiled artifacts directory (overrides the catalog)")
	rootCmd.PersistentFlags().StringVar(&flags.deploymentsDir, "deployments", "", "Deployment manifests directory (overrides the catalog)")

	rootCmd.AddCommand(retrieve.NewCommand(cfg))
	rootCmd.AddCommand(upgrade.NewCommand(cfg))
	rootCmd.AddCommand(accounts.NewCommand(cfg))
	rootCmd.AddCommand(networks.NewCommand(cfg))

	return rootCmd
}

func loadConfig(flags rootFlags, environ []string) (configs.Config, error) {
	catalog, err := configs.LoadCatalog(flags.catalog)
	if err != nil {
		return configs.Config{}, err
	}

	env, err := configs.ReadEnvironment(flags.envFile, configs.EnvironmentFromPairs(environ))
	if err != nil {
		return configs.Config{}, err
	}

	cfg := configs.Load(catalog, env)
	if flags.artifactsDir != "" {
		cfg.ArtifactsDir = flags.artifactsDir
	}
	if flags.deploymentsDir != "" {
		cfg.DeploymentsDir = flags.deploymentsDir
	}

	return cfg, nil
}
