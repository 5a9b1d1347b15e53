package main

import (
	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"

	"github.com/lifeboard/lifeboard/internal/config"
)

var version = "dev"

type CLI struct {
	Config config.Config `embed:""`

	Version kong.VersionFlag `help:"Print version and exit."`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API server."`
	Migrate MigrateCmd `cmd:"" help:"Apply database migrations and exit."`
	Stats   StatsCmd   `cmd:"" help:"Print a user's habit streaks."`
	Backup  BackupCmd  `cmd:"" help:"Write an encrypted snapshot of the database."`
	Restore RestoreCmd `cmd:"" help:"Replace the database with an encrypted snapshot."`
}

// AfterApply rejects bad shared settings before any command runs.
func (c *CLI) AfterApply() error {
	return c.Config.Validate()
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("lifeboard"),
		kong.Description("Personal productivity backend: habits, tasks, notes and day summaries."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, options()...)
	err := ctx.Run(&cli.Config)
	ctx.FatalIfErrorf(err)
}
