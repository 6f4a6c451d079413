// Command vibemk is an MCP server exposing CheckMK monitoring operations
// as tools. It speaks JSON-RPC on stdin/stdout, so all logging goes to
// stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vibemk/vibemk-go/checkmk"
	"github.com/vibemk/vibemk-go/handlers"
	"github.com/vibemk/vibemk-go/mcp"
	"github.com/vibemk/vibemk-go/tools"
)

const version = "1.0.0"

const configHelp = "Set the following environment variables:\n" +
	"- `CHECKMK_SERVER_URL`: Base URL of the CheckMK server\n" +
	"- `CHECKMK_SITE`: Site name\n" +
	"- `CHECKMK_USERNAME`: Automation user\n" +
	"- `CHECKMK_PASSWORD`: Automation secret"

var cli struct {
	EnvFile  string `help:"Load environment variables from this file before reading the configuration." type:"existingfile" optional:""`
	Config   string `help:"Optional YAML configuration file overriding environment variables." type:"existingfile" optional:""`
	LogLevel string `help:"Log verbosity." enum:"debug,info,warn,error" default:"info"`
	Version  bool   `help:"Print the version and exit."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("vibemk"),
		kong.Description("MCP server for CheckMK monitoring."),
		kong.UsageOnError(),
	)

	if cli.Version {
		fmt.Println("vibemk " + version)
		return
	}

	logger, err := newLogger(cli.LogLevel)
	kctx.FatalIfErrorf(err)
	defer logger.Sync()

	if cli.EnvFile != "" {
		kctx.FatalIfErrorf(godotenv.Load(cli.EnvFile))
	} else {
		// A .env next to the working directory is picked up when present.
		_ = godotenv.Load()
	}

	cfg := checkmk.FromEnv()
	if cli.Config != "" {
		cfg, err = checkmk.LoadFile(cli.Config, cfg)
		kctx.FatalIfErrorf(err)
	}

	// The client is built even when the configuration is incomplete:
	// tools/list must work without a reachable site, and config errors
	// surface through the initializer on first tools/call.
	client := checkmk.NewClient(cfg, checkmk.WithLogger(logger))
	toolbox := tools.Box(handlers.All(client)...)

	server := mcp.NewServer(
		mcp.ServerInfo{Name: "vibemk", Version: version},
		toolbox,
		os.Stdin, os.Stdout,
		mcp.WithLogger(logger),
		mcp.WithInitializer(func(ctx context.Context) error {
			return cfg.Validate()
		}, configHelp),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting vibemk MCP server",
		zap.String("version", version),
		zap.Int("tools", len(toolbox.All())))

	if err := server.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
