package main

import (
	"context"
	"fmt"

	"github.com/lifeboard/lifeboard/internal/config"
	"github.com/lifeboard/lifeboard/internal/database"
)

type MigrateCmd struct {
	Status bool `help:"Only show migration status."`
}

func (c *MigrateCmd) Run(cfg *config.Config) error {
	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	if c.Status {
		statuses, err := database.Status(ctx, db)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, s := range statuses {
			fmt.Printf("%-10s %s\n", s.State, s.Source.Path)
		}
		return nil
	}

	results, err := database.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("applied %s in %s\n", r.Source.Path, r.Duration)
	}
	fmt.Printf("Successfully applied %d migration(s).\n", len(results))
	return nil
}
