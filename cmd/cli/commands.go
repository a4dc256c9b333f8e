package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/habit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/habit-tracker/pkg/ports"
)

// Context is shared by every command.
type Context struct {
	Repo    ports.HabitRepository
	Service *services.HabitService
	Out     io.Writer
}

type ExportCmd struct{}

func (c *ExportCmd) Run(ctx *Context) error {
	dump, err := ctx.Repo.Dump(context.Background())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	encoder := json.NewEncoder(ctx.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dump)
}

type ImportCmd struct {
	File string `help:"JSON file to import." type:"existingfile" required:""`
}

func (c *ImportCmd) Run(ctx *Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.File, err)
	}
	defer f.Close()

	var dump domain.Dump
	if err := json.NewDecoder(f).Decode(&dump); err != nil {
		return fmt.Errorf("decode %s: %w", c.File, err)
	}

	count, err := ctx.Repo.Restore(context.Background(), &dump)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	slog.Info("Import finished", "file", c.File, "habits_imported", count, "habits_in_file", len(dump.Habits))
	fmt.Fprintf(ctx.Out, "Imported %d habits.\n", count)
	return nil
}

type SummaryCmd struct{}

func (c *SummaryCmd) Run(ctx *Context) error {
	summary, err := ctx.Service.GetSummary(context.Background())
	if err != nil {
		return err
	}
	if len(summary) == 0 {
		fmt.Fprintln(ctx.Out, "No days recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCOMPLETED\tPOSSIBLE")
	for _, s := range summary {
		fmt.Fprintf(w, "%s\t%d\t%d\n", s.Date, s.Completed, s.Amount)
	}
	return w.Flush()
}

type DayCmd struct {
	Date string `arg:"" help:"Date to show (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *DayCmd) Run(ctx *Context) error {
	var date domain.Date
	if c.Date == "today" {
		date = ctx.Service.Today()
	} else {
		var err error
		date, err = domain.ParseDate(c.Date, ctx.Service.Location())
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD or 'today': %w", err)
		}
	}

	detail, err := ctx.Service.GetDay(context.Background(), date)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Habits for %s (%s):\n\n", date, date.WeekDay())
	if len(detail.PossibleHabits) == 0 {
		fmt.Fprintln(ctx.Out, "  No habits scheduled")
		return nil
	}

	done := make(map[string]bool, len(detail.CompletedHabits))
	for _, id := range detail.CompletedHabits {
		done[id] = true
	}
	for _, h := range detail.PossibleHabits {
		mark := "[ ]"
		if done[h.ID] {
			mark = "[x]"
		}
		fmt.Fprintf(ctx.Out, "  %s %s\n", mark, h.Title)
	}
	return nil
}
