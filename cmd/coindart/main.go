package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Play    PlayCmd          `cmd:"" default:"withargs" help:"Keep score in the terminal"`
	Serve   ServeCmd         `cmd:"" help:"Serve the scoreboard over HTTP and WebSocket"`
	Stats   StatsCmd         `cmd:"" help:"Show a player's recorded statistics"`
	History HistoryCmd       `cmd:"" help:"List recorded games, newest first"`
	Export  ExportCmd        `cmd:"" help:"Write all stored data as JSON"`
	Import  ImportCmd        `cmd:"" help:"Replace stored data from a JSON export"`
	Clear   ClearCmd         `cmd:"" help:"Delete all stored data"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("coindart"),
		kong.Description("Darts scorekeeper where every player races to exactly zero"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
