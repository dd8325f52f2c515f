package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/datachannel/internal/config"
	"github.com/zjrosen/datachannel/internal/demo"
	"github.com/zjrosen/datachannel/internal/dispatch"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/tracing"
	"github.com/zjrosen/datachannel/internal/ui"
	"github.com/zjrosen/datachannel/internal/viewmodel"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in the first frame.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// debugEnv turns on debug logging when set to a true value.
const debugEnv = "DATACHANNEL_DEBUG"

// shutdownTimeout bounds how long we wait for cancelled jobs on exit.
const shutdownTimeout = 2 * time.Second

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
	cfgErr  error
)

var rootCmd = &cobra.Command{
	Use:     "datachannel",
	Short:   "Event-triggered job coordination demo",
	Long:    `A terminal UI over a notes backend that shows how events launch jobs, report progress and queue messages until they are dismissed.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .datachannel/config.yaml or ~/.config/datachannel/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write debug logs to log_path (also "+debugEnv+"=1)")
	rootCmd.Flags().Bool("no-footer", false, "hide the active event footer")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cfg, cfgErr = loadConfig(viper.GetViper(), cfgFile)
}

// loadConfig resolves the config file, writing a default one when nothing
// exists yet, and decodes it into v.
func loadConfig(v *viper.Viper, explicit string) (config.Config, error) {
	config.SetDefaults(v)

	path, found := config.ResolvePath(explicit)
	if !found {
		if explicit != "" {
			return config.Config{}, fmt.Errorf("config file %s: %w", explicit, os.ErrNotExist)
		}
		// If the write fails we carry on with defaults and no file.
		if err := config.WriteDefaultConfig(path); err == nil {
			found = true
		}
	}

	if found {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return config.Load(v)
}

// debugEnabled reports whether debug logging was requested by flag, env or
// config.
func debugEnabled(c config.Config) bool {
	if c.Debug {
		return true
	}
	if raw, ok := os.LookupEnv(debugEnv); ok {
		on, err := strconv.ParseBool(raw)
		return err == nil && on
	}
	return false
}

// startLogging initializes the file logger when debugging. The returned
// cleanup is never nil.
func startLogging(c config.Config) func() {
	if !debugEnabled(c) {
		return func() {}
	}
	cleanup, err := log.InitWithTeaLog(c.LogPath, "datachannel")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return func() {}
	}
	log.Info(log.CatConfig, "debug logging enabled", "path", c.LogPath, "version", version)
	return cleanup
}

// newOwner builds the demo repository and its state owner on exec.
func newOwner(c config.Config, exec dispatch.Executor, tracer *tracing.Provider) *viewmodel.Owner[demo.State] {
	repo := demo.NewRepository(demo.Options{
		Latency:   c.Demo.Latency,
		CacheTTL:  c.Demo.CacheTTL,
		FailEvery: c.Demo.FailRate,
		Seed:      c.Demo.Seed,
	})
	return demo.NewOwner(exec, repo,
		viewmodel.WithDispatchOptions[demo.State](dispatch.WithTracer(tracer.Tracer())))
}

func runApp(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	if hide, _ := cmd.Flags().GetBool("no-footer"); hide {
		cfg.UI.DebugFooter = false
	}

	cleanup := startLogging(cfg)
	defer cleanup()

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	exec := ui.NewProgramExecutor()
	owner := newOwner(cfg, exec, provider)

	model := ui.New(ctx, owner, ui.Options{
		ToastDuration: cfg.UI.ToastDuration,
		MarkdownStyle: cfg.UI.MarkdownStyle,
		DebugFooter:   cfg.UI.DebugFooter,
		Debug:         debugEnabled(cfg),
		AutoLoad:      true,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	exec.Bind(p)

	_, runErr := p.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) {
		runErr = nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := owner.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatDispatch, "jobs did not stop", err)
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatTrace, "tracing shutdown failed", err)
	}

	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
