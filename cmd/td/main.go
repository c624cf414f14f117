package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/config"
	"github.com/adi-analytics/ticketdesk/internal/debug"
	"github.com/adi-analytics/ticketdesk/internal/storage"
	"github.com/adi-analytics/ticketdesk/internal/telemetry"
)

var (
	actor       string
	jsonOutput  bool
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output
	logFormat   string
	backendFlag string

	logger *slog.Logger
	store  storage.Storage
)

// skipStoreAnnotation marks commands that run without opening the database.
const skipStoreAnnotation = "td/skip-store"

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.AddGroup(&cobra.Group{ID: "tickets", Title: "Working With Tickets:"})
	rootCmd.AddGroup(&cobra.Group{ID: "server", Title: "Web UI:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&actor, "actor", "", "Actor name for ticket events (default: $TD_ACTOR, git user.name, $USER)")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: json or text (default from log.format)")
	flags.StringVar(&backendFlag, "backend", "", "Storage backend: dolt-server, dolt-embedded or memory")

	_ = config.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = config.BindPFlag(config.KeyDBBackend, flags.Lookup("backend"))

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	// Assigned here rather than in the rootCmd literal to avoid an
	// initialization cycle (the hook calls skipsStore, which references rootCmd).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)

		logger = debug.NewLogger(os.Stderr, config.GetString(config.KeyLogFormat), config.GetString(config.KeyLogLevel))
		slog.SetDefault(logger)

		ctx := cmd.Context()
		if err := telemetry.Init(ctx, "td", Version); err != nil {
			debug.Logf("telemetry disabled: %v\n", err)
		}

		if skipsStore(cmd) {
			return nil
		}
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		store = s
		return nil
	}
}

var rootCmd = &cobra.Command{
	Use:           "td",
	Short:         "td - analytics request intake and project tracking",
	Long:          `Collects analytics requests through a web form and lets project managers triage them in an editable grid.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("td version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
			store = nil
		}
		telemetry.Shutdown(context.Background())
	},
}

func skipsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipStoreAnnotation] == "true" {
			return true
		}
	}
	return cmd == rootCmd || cmd.Name() == "help" || cmd.Name() == "completion"
}

func noStore() map[string]string {
	return map[string]string{skipStoreAnnotation: "true"}
}

// getActor returns the actor recorded on events.
// Priority: --actor flag > actor config (TD_ACTOR) > git config user.name > $USER > "unknown"
func getActor() string {
	if actor != "" {
		return actor
	}
	if a := config.GetString(config.KeyActor); a != "" {
		return a
	}
	if out, err := exec.Command("git", "config", "user.name").Output(); err == nil {
		if gitUser := strings.TrimSpace(string(out)); gitUser != "" {
			return gitUser
		}
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
