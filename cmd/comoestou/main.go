package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/terraincognita07/comoestou/internal/cli"
	"github.com/terraincognita07/comoestou/internal/config"
	"github.com/terraincognita07/comoestou/internal/logger"
)

type commandLine struct {
	Config string `help:"Path to the YAML config file. Defaults to ./config.yaml when present." type:"path"`

	Serve         serveCmd             `cmd:"" help:"Run the HTTP API." default:"1"`
	Migrate       cli.MigrateCmd       `cmd:"" help:"Apply pending database migrations."`
	ResetPassword cli.ResetPasswordCmd `cmd:"" name:"reset-password" help:"Set a new password for an account."`
	Summary       cli.SummaryCmd       `cmd:"" help:"Print the mood week and open days of an account."`
}

func newParser(command *commandLine) (*kong.Kong, error) {
	return kong.New(command,
		kong.Name("comoestou"),
		kong.Description("Mood journal with day-bucketed charts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
}

func main() {
	var command commandLine
	parser, err := newParser(&command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := config.Load(command.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := logger.Init(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger init failed: %v\n", err)
		os.Exit(1)
	}

	if err := kctx.Run(&cli.Context{Config: cfg}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
