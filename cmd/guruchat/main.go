package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/guruchat/internal/api"
	"github.com/comigor/guruchat/internal/chat"
	"github.com/comigor/guruchat/internal/config"
	"github.com/comigor/guruchat/internal/gesture"
	"github.com/comigor/guruchat/internal/history"
	"github.com/comigor/guruchat/internal/logger"
	"github.com/comigor/guruchat/internal/tui"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "guruchat",
	Short:         "Chat with a panel of masters and manage your chat history",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the history and chat HTTP API",
	RunE:  runServe,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal chat with the swipeable history drawer",
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.L.Error("command failed", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger.SetLevel(cfg.Log.Level)
	return cfg, nil
}

// openStore returns the history store, journaled to SQLite when a database
// path is configured. A database that cannot be opened leaves the history in
// memory. The returned closer is nil for a memory-only store.
func openStore(cfg config.HistoryConfig) (*history.Store, io.Closer) {
	if cfg.DBPath == "" {
		return history.New(history.DefaultSeed()), nil
	}
	journal, err := history.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "path", cfg.DBPath, "error", err)
		return history.New(history.DefaultSeed()), nil
	}
	return history.New(history.DefaultSeed(), history.WithJournal(journal)), journal
}

func gestureOptions(cfg config.GestureConfig) []gesture.Option {
	policy := gesture.CommitOnAllTerminals
	if cfg.TerminalPolicy == config.TerminalPolicyRevert {
		policy = gesture.RevertOnInterrupt
	}
	return []gesture.Option{
		gesture.WithThresholds(gesture.Thresholds{
			Jitter:        cfg.Jitter,
			MaxReveal:     cfg.MaxReveal,
			RevealCommit:  cfg.RevealCommit,
			RestingOpen:   cfg.RestingOpen,
			TapMax:        cfg.TapMax,
			DeleteVisible: cfg.DeleteVisible,
		}),
		gesture.WithTerminalPolicy(policy),
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closer := openStore(cfg.History)
	if closer != nil {
		defer closer.Close()
	}

	server := api.New(store, chat.FromConfig(cfg.LLM), cfg.Chat.DefaultAuthor)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", serverAddr, "entries", store.Len())
	if err := http.ListenAndServe(serverAddr, server.Handler()); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal owns stdout.
	if cfg.Log.File != "" {
		f, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
	} else {
		logger.SetOutput(io.Discard)
	}

	store, closer := openStore(cfg.History)
	if closer != nil {
		defer closer.Close()
	}

	return tui.Run(tui.Options{
		Store:         store,
		Replier:       chat.FromConfig(cfg.LLM),
		ReplyDelay:    cfg.Chat.ReplyDelay,
		DefaultAuthor: cfg.Chat.DefaultAuthor,
		CellWidth:     cfg.TUI.CellWidth,
		Gesture:       gestureOptions(cfg.Gesture),
	})
}
