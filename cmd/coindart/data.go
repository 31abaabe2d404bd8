package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/coindart/cmd/coindart/shared"
	"github.com/lox/coindart/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// withStore runs fn against the configured store.
func withStore(g *Globals, fn func(ctx context.Context, st store.Store) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := shared.SetupLogger(os.Stderr, cfg.Level())
	ctx, cancel := shared.SetupSignalHandler(context.Background(), logger)
	defer cancel()

	st, err := requireStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)
	return fn(ctx, st)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// StatsCmd prints a player's statistics
type StatsCmd struct {
	Player []string `arg:"" help:"Player name"`
	JSON   bool     `help:"Print JSON"`
}

func (c *StatsCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st store.Store) error {
		name := strings.Join(c.Player, " ")
		stats, err := st.ReadPlayerStatistics(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no games recorded for %s", name)
		}
		if err != nil {
			return err
		}
		if c.JSON {
			return printJSON(os.Stdout, stats)
		}

		fmt.Println(titleStyle.Render(stats.Name))
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Games\t%d\n", stats.TotalGames)
		fmt.Fprintf(tw, "Wins\t%d (%.1f%%)\n", stats.TotalWins, stats.WinRate)
		fmt.Fprintf(tw, "Average score\t%.1f\n", stats.AverageScore)
		fmt.Fprintf(tw, "Best game\t%d\n", stats.BestGame)
		fmt.Fprintf(tw, "Penalties\t%.1f\n", stats.TotalPenalties)
		fmt.Fprintf(tw, "Recent average\t%.1f\n", stats.RecentAverage)
		fmt.Fprintf(tw, "Improvement\t%+d\n", stats.Improvement)
		fmt.Fprintf(tw, "Games this month\t%d\n", stats.GamesThisMonth)
		return tw.Flush()
	})
}

// HistoryCmd lists recorded games
type HistoryCmd struct {
	Limit int  `short:"n" default:"10" help:"Number of games to show (0 for all)"`
	JSON  bool `help:"Print JSON"`
}

func (c *HistoryCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st store.Store) error {
		records, err := st.History(ctx, c.Limit)
		if err != nil {
			return err
		}
		if c.JSON {
			return printJSON(os.Stdout, records)
		}
		if len(records) == 0 {
			fmt.Println(dimStyle.Render("No games recorded"))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tROUND\tWINNER\tPLAYERS\tDURATION")
		for _, rec := range records {
			names := make([]string, len(rec.Players))
			for i, p := range rec.Players {
				names[i] = fmt.Sprintf("%s %d", p.Name, p.FinalScore)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
				rec.RecordedAt.Local().Format(time.DateTime), rec.Round, rec.Winner,
				strings.Join(names, ", "), rec.Duration.Round(time.Second))
		}
		return tw.Flush()
	})
}

// ExportCmd writes the stored data
type ExportCmd struct {
	Output string `short:"o" default:"-" help:"Output file, - for stdout"`
}

func (c *ExportCmd) Run(g *Globals) error {
	return withStore(g, func(ctx context.Context, st store.Store) error {
		data, err := st.Export(ctx)
		if err != nil {
			return err
		}
		if c.Output == "-" {
			return printJSON(os.Stdout, data)
		}
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		if err := printJSON(f, data); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
}

// ImportCmd replaces the stored data with an export
type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Export file to import"`
}

func (c *ImportCmd) Run(g *Globals) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	var data store.Export
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse %s: %w", c.File, err)
	}
	return withStore(g, func(ctx context.Context, st store.Store) error {
		if err := st.Import(ctx, data); err != nil {
			return err
		}
		fmt.Printf("Imported %d games and %d profiles\n", len(data.History), len(data.Profiles))
		return nil
	})
}

// ClearCmd deletes all stored data
type ClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (c *ClearCmd) Run(g *Globals) error {
	if !c.Yes {
		fmt.Print("Delete all recorded games and profiles? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted")
			return nil
		}
	}
	return withStore(g, func(ctx context.Context, st store.Store) error {
		if err := st.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Cleared")
		return nil
	})
}
