package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/talgya/idle-galaxy/internal/api"
	"github.com/talgya/idle-galaxy/internal/engine"
	"github.com/talgya/idle-galaxy/internal/store"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulation until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.run(ctx, cmd.OutOrStdout())
		},
	}
}

func (a *app) run(ctx context.Context, out io.Writer) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	titleColor.Fprintln(out, "╭──────────────────────╮")
	titleColor.Fprintln(out, "│  Idle Galaxy         │")
	titleColor.Fprintln(out, "╰──────────────────────╯")
	if a.seeded {
		infoColor.Fprintln(out, "No save found, a new galaxy awaits.")
	}

	rep := a.sim.Scheduler.Start()
	if rep.Chunks > 0 {
		infoColor.Fprintf(out, "Welcome back! You were away %s (%d catch-up steps).\n",
			engine.FormatAway(rep.Elapsed), rep.Chunks)
	}

	var wg sync.WaitGroup
	apiCtx, cancelAPI := context.WithCancel(ctx)
	defer cancelAPI()
	if a.cfg.API.Enabled {
		srv := &api.Server{
			Sim:      a.sim,
			Port:     a.cfg.API.Port,
			Gatherer: a.registry,
			Limiter:  api.NewRateLimiter(600, time.Minute),
			AdminKey: a.cfg.API.AdminKey,
			Logger:   a.log,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(apiCtx); err != nil {
				a.log.Error("HTTP API stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	a.log.Info("shutting down")
	a.sim.Scheduler.Stop()
	cancelAPI()
	wg.Wait()

	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.save(saveCtx); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintln(out, "Game saved.")
	return nil
}

func fastForwardCmd() *cobra.Command {
	var hours float64
	cmd := &cobra.Command{
		Use:   "fastforward",
		Short: "Advance the saved game by a number of hours and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
				return fmt.Errorf("--hours must be a positive number")
			}
			ctx := cmd.Context()
			a, err := setup(ctx, configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.fastForward(ctx, cmd.OutOrStdout(), hours)
		},
	}
	cmd.Flags().Float64Var(&hours, "hours", 1, "Hours of game time to simulate")
	return cmd
}

func (a *app) fastForward(ctx context.Context, out io.Writer, hours float64) error {
	before := store.Totals(a.sim.Store.Get())
	start := time.Now()
	a.sim.ProcessTime(hours)
	after := store.Totals(a.sim.Store.Get())

	if err := a.save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Simulated %s of game time in %s.\n",
		engine.FormatAway(time.Duration(hours*float64(time.Hour))), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "   Population: %s → %s\n",
		humanize.Commaf(math.Round(before.Population)), humanize.Commaf(math.Round(after.Population)))
	fmt.Fprintf(out, "   Credits:    %s → %s\n",
		humanize.CommafWithDigits(before.Credits, 2), humanize.CommafWithDigits(after.Credits, 2))
	return nil
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print systems and the home economy of the saved game",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.report(cmd.OutOrStdout())
		},
	}
}

func (a *app) report(out io.Writer) error {
	st := a.sim.Store.Get()
	totals := store.Totals(st)

	color.New(color.FgCyan, color.Bold).Fprintln(out, "Galaxy")
	fmt.Fprintf(out, "   Credits: %s   Population: %s   Systems: %d colonized / %d known\n",
		humanize.CommafWithDigits(totals.Credits, 2), humanize.Commaf(math.Round(totals.Population)),
		totals.Colonized, totals.Systems)
	fmt.Fprintf(out, "   Last played: %s   Unread notifications: %d\n\n",
		humanize.Time(st.LastPlayed), totals.Unread)

	table := tablewriter.NewTable(out,
		tablewriter.WithHeader([]string{"System", "State", "Population", "Floor", "Ceiling", "SoL", "Facilities", "Trade"}),
	)
	for _, sum := range store.Summaries(st) {
		row := []string{
			sum.Name,
			string(sum.State),
			fmt.Sprintf("%.0f", sum.Population),
			fmt.Sprintf("%.0f", sum.PopulationFloor),
			fmt.Sprintf("%.0f", sum.PopulationCeil),
			fmt.Sprintf("%.1f", sum.StandardOfLiving),
			fmt.Sprintf("%d", sum.Facilities),
			fmt.Sprintf("%d", sum.TradeTier),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	rep, ok := a.sim.Economy(st.HomeSystemID)
	if !ok {
		return nil
	}
	color.New(color.FgCyan, color.Bold).Fprintln(out, "\nHome economy (per hour)")
	econ := tablewriter.NewTable(out,
		tablewriter.WithHeader([]string{"Resource", "Gross", "Draw", "Consumption", "Net", "Stock"}),
	)
	for _, l := range rep.Lines {
		row := []string{
			string(l.Resource),
			fmt.Sprintf("%.2f", l.Gross),
			fmt.Sprintf("%.2f", l.Draw),
			fmt.Sprintf("%.2f", l.Consumption),
			fmt.Sprintf("%+.2f", l.Net),
			fmt.Sprintf("%.1f", l.Stock),
		}
		if err := econ.Append(row); err != nil {
			return err
		}
	}
	return econ.Render()
}

func resetPrestigeCmd() *cobra.Command {
	var tokens int
	cmd := &cobra.Command{
		Use:   "reset-prestige",
		Short: "Start over with prestige tokens earned from the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("tokens") {
				tokens = prestigeAward(engine.Score(a.sim.Store.Get()))
			}
			return a.resetPrestige(ctx, cmd.OutOrStdout(), tokens)
		},
	}
	cmd.Flags().IntVar(&tokens, "tokens", 0, "Tokens to award (default: derived from peak population)")
	return cmd
}

// prestigeAward grants one token per thousand population, square-rooted.
func prestigeAward(score float64) int {
	if score <= 0 {
		return 0
	}
	return int(math.Floor(math.Sqrt(score / 1000)))
}

func (a *app) resetPrestige(ctx context.Context, out io.Writer, tokens int) error {
	if tokens < 0 {
		return errors.New("--tokens must not be negative")
	}
	p, err := a.sim.ResetForPrestige(tokens, time.Now())
	if err != nil {
		return err
	}
	if err := a.save(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Fprintf(out, "Prestige %d complete: %d tokens, high score %s.\n",
		p.Count, p.Tokens, humanize.Commaf(math.Round(p.HighScore)))
	return nil
}
