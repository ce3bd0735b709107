package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cmdpkg "github.com/berrythewa/xselq/internal/cli/cmd"
	"github.com/berrythewa/xselq/internal/common"
	"github.com/berrythewa/xselq/internal/config"
)

var (
	// Flags that apply to all commands
	cfgFile   string
	display   string
	verbose   bool
	quiet     bool
	useJSON   bool
	showAtoms bool
	colorMode string
	attempts  int
	delay     time.Duration
	record    bool

	logger *zap.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "xselq [SELECTION ...]",
	Short: "Show X selection owners and the targets they offer",
	Long: `xselq queries X11 selections (PRIMARY, SECONDARY, CLIPBOARD or any other
name) and reports the window owning each one, that window's name and the
targets the owner advertises.

With no arguments PRIMARY, SECONDARY and CLIPBOARD are queried, unless the
config file lists other selections.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdpkg.RunQuery(cmd.Context(), args, cmd.OutOrStdout())
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger, err = common.NewLogger(loaded, common.LoggerOptions{Verbose: verbose, Quiet: quiet})
		if err != nil {
			return fmt.Errorf("failed to setup logger: %w", err)
		}

		logger.Debug("Configuration loaded",
			zap.String("config_file", loaded.SystemPaths.ConfigFile),
			zap.String("display", loaded.Display),
			zap.Int("poll_attempts", loaded.Poll.Attempts),
			zap.Duration("poll_delay", loaded.Poll.Delay()),
			zap.Bool("history", loaded.History.Enabled))

		// Share cfg and logger with cmd package
		cmdpkg.SetConfig(loaded)
		cmdpkg.SetZapLogger(logger)
		cmdpkg.SetOutputOptions(cmdpkg.OutputOptions{
			JSON:      loaded.Output.JSON,
			ShowAtoms: showAtoms,
			Color:     loaded.Output.Color,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/xselq/config.yaml)")
	flags.StringVarP(&display, "display", "d", "", "X display to connect to (default is $DISPLAY)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log protocol steps to stderr")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	flags.BoolVar(&useJSON, "json", false, "output in JSON format")
	flags.BoolVar(&showAtoms, "show-atoms", false, "print atom ids next to target names")
	flags.StringVar(&colorMode, "color", "auto", "colorize output: auto, always or never")
	flags.IntVar(&attempts, "attempts", 5, "times to poll for the owner's TARGETS answer")
	flags.DurationVar(&delay, "delay", 100*time.Millisecond, "pause between polls for the TARGETS answer")
	flags.BoolVar(&record, "record", false, "store results in the history database")

	RootCmd.AddCommand(cmdpkg.GetCommands()...)
}

// loadConfig reads the config file, applies explicitly set flags and
// validates the result. Commands annotated with cmd.LenientConfig fall
// back to the defaults when the file cannot be used, so a broken file can
// still be located and rewritten.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
	} else {
		applyFlags(cmd, loaded)
		err = loaded.Validate()
	}
	if err == nil {
		return loaded, nil
	}
	if _, lenient := cmd.Annotations[cmdpkg.LenientConfig]; !lenient {
		return nil, err
	}

	defaults := config.DefaultConfig()
	if cfgFile != "" {
		defaults.SystemPaths.ConfigFile = cfgFile
	}
	applyFlags(cmd, defaults)
	if verr := defaults.Validate(); verr != nil {
		return nil, verr
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring config: %v\n", err)
	return defaults, nil
}

// applyFlags lets explicitly set flags win over the config file
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("display") {
		c.Display = display
	}
	if flags.Changed("json") {
		c.Output.JSON = useJSON
	}
	if flags.Changed("color") {
		c.Output.Color = colorMode
	}
	if flags.Changed("attempts") {
		c.Poll.Attempts = attempts
	}
	if flags.Changed("delay") {
		c.Poll.DelayMs = delay.Milliseconds()
	}
	if flags.Changed("record") {
		c.History.Enabled = record
	}
}

// SetVersionInfo records build information for the version command
func SetVersionInfo(version, buildTime, commit string) {
	cmdpkg.SetVersionInfo(version, buildTime, commit)
}

// Execute runs the root command and exits non-zero on failure.
// SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", RootCmd.Name(), err)
		os.Exit(1)
	}
}
