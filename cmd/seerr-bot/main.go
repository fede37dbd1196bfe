// Seerr-bot is a Discord bot for requesting movies and TV shows
// through a Seerr media-request server.
//
// A language-model agent interprets free-text chat messages, calls
// tools against the Seerr API (and optionally OMDb for verification),
// and replies in chat. Configuration is loaded from a single YAML file
// discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	seerr-bot serve            Connect to Discord and serve requests
//	seerr-bot ask <question>   Run a single agent turn (for testing)
//	seerr-bot version          Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/s0up4200/seerr-bot/internal/agent"
	"github.com/s0up4200/seerr-bot/internal/buildinfo"
	"github.com/s0up4200/seerr-bot/internal/config"
	"github.com/s0up4200/seerr-bot/internal/discord"
	"github.com/s0up4200/seerr-bot/internal/llm"
	"github.com/s0up4200/seerr-bot/internal/omdb"
	"github.com/s0up4200/seerr-bot/internal/seerr"
	"github.com/s0up4200/seerr-bot/internal/session"
	"github.com/s0up4200/seerr-bot/internal/tools"
)

// main constructs the OS-level environment and delegates to [run],
// keeping os.Exit and os.Args out of the application logic so the full
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments and dispatches to a subcommand. Arguments are
// parsed by hand: the flag package's global state interferes with
// calling run concurrently from tests, and the surface is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	// Secrets land in the environment before config expansion sees it.
	_ = godotenv.Load()

	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			}
		}
	}

	switch command {
	case "", "help":
		return printUsage(stdout)
	case "version":
		return runVersion(stdout, outputFmt)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: seerr-bot ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "serve":
		return runServe(ctx, stdout, configPath)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "seerr-bot - Discord media request bot")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: seerr-bot [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Connect to Discord and serve requests")
	fmt.Fprintln(w, "  ask          Run a single agent turn (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/seerr-bot/config.yaml, /etc/seerr-bot/config.yaml")
	return nil
}

// loadConfig resolves and loads the config file.
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}

// buildLoop wires the clients, registry, and agent loop from config.
func buildLoop(cfg *config.Config, logger *slog.Logger) (*agent.Loop, *llm.AnthropicClient) {
	catalog := seerr.NewClient(cfg.Seerr.URL, cfg.Seerr.APIKey)

	var xref *omdb.Client
	if cfg.OMDb.Configured() {
		xref = omdb.NewClient(cfg.OMDb.URL, cfg.OMDb.APIKey)
	} else {
		logger.Info("omdb not configured, verify_imdb disabled")
	}

	registry := tools.NewRegistry(catalog, xref, logger)
	client := llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.MaxTokens, logger)
	return agent.NewLoop(client, registry, cfg.Anthropic.Model, cfg.Agent.MaxIterations, logger), client
}

// runAsk handles "seerr-bot ask <question>": one agent turn with no
// Discord connection and no session store. Useful for smoke tests.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn, "text")

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	loop, _ := buildLoop(cfg, logger)
	result := loop.Process(ctx, "cli", strings.Join(args, " "), nil)

	fmt.Fprintln(stdout, result.Text)
	if result.Aborted {
		return fmt.Errorf("agent run aborted after %d iteration(s)", result.Iterations)
	}
	return nil
}

// runServe handles "seerr-bot serve": connect the gateway, start the
// session sweeper, and bridge messages until SIGINT/SIGTERM.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Discord.Configured() {
		return fmt.Errorf("discord.token is required for serve")
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		level, _ = config.ParseLogLevel(cfg.LogLevel)
	}
	logger = newLogger(stdout, level, cfg.LogFormat)
	logger.Info("starting", "version", buildinfo.String(), "config", cfgPath)

	loop, client := buildLoop(cfg, logger)

	// Fail fast on a bad completion key rather than at the first
	// user message.
	if err := client.Ping(ctx); err != nil {
		logger.Warn("completion endpoint ping failed", "error", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessions := session.NewStore(cfg.Session.TTL(), logger)
	sessions.StartSweeper(ctx, cfg.Session.SweepInterval())

	gateway := discord.NewGateway(cfg.Discord.Token, logger)
	bridge := discord.NewBridge(discord.BridgeConfig{
		Gateway:  gateway,
		Rest:     discord.NewRestClient(cfg.Discord.Token),
		Runner:   loop,
		Sessions: sessions,
		Channels: cfg.Discord.Channels,
		Logger:   logger,
	})

	go bridge.Start(ctx)

	// Run blocks until ctx is cancelled, reconnecting as needed.
	if err := gateway.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("gateway failed: %w", err)
	}

	logger.Info("seerr-bot stopped")
	return nil
}

// newLogger creates a structured logger writing to w. Format must be
// "text" or "json"; anything else falls back to text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
