package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rankteam/internal/config"
	"github.com/okian/rankteam/internal/teamctl"
	"github.com/okian/rankteam/pkg/logger"
)

const commandTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	tc := teamctl.FromConfig(cfg)

	global := flag.NewFlagSet("teamctl", flag.ContinueOnError)
	var (
		baseURL = global.String("url", tc.BaseURL, "Rank service base URL")
		apiKey  = global.String("key", tc.APIKey, "API key for registration")
		timeout = global.Duration("timeout", tc.Timeout, "Request timeout")
		logFile = global.String("log", "", "Also append logs to this file")
		verbose = global.Bool("verbose", false, "Enable debug logging")
	)
	global.Usage = func() { teamctl.ShowHelp(os.Stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	tc.BaseURL, tc.APIKey, tc.Timeout = *baseURL, *apiKey, *timeout

	closeLog, err := teamctl.SetupLogging(*logFile, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closeLog() }()

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = logger.SetLevelString("info")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	rest := global.Args()
	if len(rest) == 0 {
		teamctl.ShowHelp(os.Stderr)
		return 2
	}

	switch rest[0] {
	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		id := fs.String("id", "", "Identity to register")
		tier := fs.String("tier", "", "Tier, e.g. GOLD")
		division := fs.String("division", "", "Division IV..I, empty for none")
		if err := fs.Parse(rest[1:]); err != nil {
			return 2
		}
		if _, err := teamctl.Register(ctx, os.Stdout, tc, *id, *tier, *division); err != nil {
			logger.Get().Error(ctx, "register failed", logger.Error(err))
			return 1
		}
	case "team":
		fs := flag.NewFlagSet("team", flag.ContinueOnError)
		members := fs.String("members", "", "Members as id:name,id:name")
		exclude := fs.String("exclude", "", "Mentions or ids to leave out")
		token := fs.String("token", "", "Freshness token (random when empty)")
		if err := fs.Parse(rest[1:]); err != nil {
			return 2
		}
		if _, err := teamctl.Team(ctx, os.Stdout, tc, teamctl.TeamArgs{
			Members: *members,
			Exclude: *exclude,
			Token:   *token,
		}); err != nil {
			logger.Get().Error(ctx, "team failed", logger.Error(err))
			return 1
		}
	case "help", "-h", "--help":
		teamctl.ShowHelp(os.Stdout)
	default:
		os.Stderr.WriteString("unknown command: " + rest[0] + "\n")
		teamctl.ShowHelp(os.Stderr)
		return 2
	}
	return 0
}
