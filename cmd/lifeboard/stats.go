package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lifeboard/lifeboard/internal/config"
	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/habit"
	"github.com/lifeboard/lifeboard/internal/store"
)

type StatsCmd struct {
	Email string `arg:"" help:"Email of the user to report on."`
}

func (c *StatsCmd) Run(cfg *config.Config) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := store.NewUserStore(db).GetByEmail(c.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user with email %s", c.Email)
	}

	tracker := habit.NewTracker(db, cfg.Policy())
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "HABIT\tTODAY\tCURRENT\tLONGEST\tTOTAL\tLAST\n")

	for page := 1; ; page++ {
		res, err := tracker.List(user.ID, store.HabitQuery{SortBy: "name", Page: page, Limit: store.MaxHabitLimit})
		if err != nil {
			return err
		}
		for _, h := range res.Habits {
			last := "-"
			if h.LastDone != nil {
				last = h.LastDone.String()
			}
			done := " "
			if h.TodayDone {
				done = "x"
			}
			fmt.Fprintf(tw, "%s %s\t%s\t%d\t%d\t%d\t%s\n",
				h.Icon, h.Name, done, h.CurrentStreak, h.LongestStreak, h.TotalDays, last)
		}
		if page >= res.Pagination.TotalPages {
			break
		}
	}
	return tw.Flush()
}
