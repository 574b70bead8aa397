// Package cli builds the i18nloader command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nimburion/i18nloader/pkg/config"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/version"
)

// DefaultEnvPrefix prefixes every environment variable read by the CLI.
const DefaultEnvPrefix = "I18N"

// CommandOptions configures the root command.
type CommandOptions struct {
	Name        string
	Description string
	ConfigPath  string
	EnvPrefix   string

	// Optional: additional custom commands
	CustomCommands []*cobra.Command
}

// runtimeFlags are the persistent flags shared by every subcommand.
type runtimeFlags struct {
	configPath string
	envPrefix  string
	logLevel   string
	name       string
}

// NewCommand creates the root command with every subcommand attached.
func NewCommand(opts CommandOptions) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "i18nloader"
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = DefaultEnvPrefix
	}

	flags := &runtimeFlags{envPrefix: opts.EnvPrefix, name: opts.Name}
	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config-file", "c", opts.ConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newVersionCommand(opts.Name),
		newMessagesCommand(flags),
		newNormalizeCommand(),
		newResolveCommand(flags),
		newSweepCommand(flags),
		newServeCommand(flags),
		newPublishCommand(flags),
		newHealthcheckCommand(flags),
		newConfigCommand(flags),
	)
	for _, customCmd := range opts.CustomCommands {
		rootCmd.AddCommand(customCmd)
	}
	return rootCmd
}

func newVersionCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current(name)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Service:    %s\n", info.Service)
			fmt.Fprintf(out, "Version:    %s\n", info.Version)
			fmt.Fprintf(out, "Commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "Build Time: %s\n", info.BuildTime)
		},
	}
}

// LoadConfigAndLogger loads configuration from cfgPath and the environment
// and creates the zap logger it describes, writing to logOut.
func LoadConfigAndLogger(cfgPath, envPrefix, levelOverride string, logOut io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.NewViperLoader(cfgPath, envPrefix).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if level := strings.TrimSpace(levelOverride); level != "" {
		cfg.Observability.LogLevel = strings.ToLower(level)
	}

	level, err := logger.ParseLogLevel(cfg.Observability.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	format, err := logger.ParseLogFormat(cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewZapLogger(logger.Config{Level: level, Format: format, Output: logOut})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	logConfigIfDebug(log, cfg)
	return cfg, log, nil
}

func (f *runtimeFlags) load(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	return LoadConfigAndLogger(f.configPath, f.envPrefix, f.logLevel, cmd.ErrOrStderr())
}

// Execute runs the command and exits with appropriate code.
func Execute(ctx context.Context, cmd *cobra.Command) {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logConfigIfDebug(log logger.Logger, cfg *config.Config) {
	if log == nil || cfg == nil {
		return
	}
	if !strings.EqualFold(cfg.Observability.LogLevel, string(logger.DebugLevel)) {
		return
	}
	log.Debug("effective configuration", "config", cfg.String())
}
