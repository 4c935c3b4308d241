package ui

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/planboard/internal/planner"
)

func (a *App) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect the saved plan",
	}

	var day string
	var week bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved plan",
		Long: `Print the user's saved plan grouped by day.

Overlapping blocks are marked with "!" and completed blocks with "✓".
--date accepts today, tomorrow, yesterday, a weekday name or YYYY-MM-DD.

Example:
  planboard plan show --user alice
  planboard plan show --date monday --week`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := PlanRange(day, week, time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			plans, closeFn, err := a.openPlans(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := plans.LoadPlan(ctx)
			if errors.Is(err, planner.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved plan.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading plan: %w", err)
			}
			PrintPlan(cmd.OutOrStdout(), p, r)
			return nil
		},
	}
	show.Flags().StringVar(&day, "date", "", "Only print this day")
	show.Flags().BoolVar(&week, "week", false, "Print the whole week of --date (default this week)")

	cmd.AddCommand(show)
	return cmd
}

func (a *App) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and restore saved plan snapshots",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			plans, closeFn, err := a.openPlans(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if limit <= 0 {
				limit = a.config.Planner.HistoryLimit
			}
			entries, err := plans.ListHistory(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing history: %w", err)
			}
			PrintHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of snapshots (default from config)")

	show := &cobra.Command{
		Use:   "show <ts>",
		Short: "Print one snapshot",
		Long: `Print the snapshot saved at the given timestamp.

Timestamps are the unix milliseconds printed by 'planboard history list'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			plans, closeFn, err := a.openPlans(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := plans.GetSnapshot(ctx, ts)
			if err != nil {
				return fmt.Errorf("loading snapshot %d: %w", ts, err)
			}
			PrintPlan(cmd.OutOrStdout(), p, DateRange{})
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <ts>",
		Short: "Make a snapshot the current plan",
		Long: `Replace the saved plan with the snapshot saved at the given timestamp.

The restored plan is saved as a new snapshot, so the plan it replaces stays
in the history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			plans, closeFn, err := a.openPlans(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ctl := planner.New(clockwork.NewRealClock(), planner.WithStore(plans))
			if err := ctl.Restore(ctx, ts); err != nil {
				return err
			}
			if err := ctl.SaveNow(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %d (%d tasks).\n", ts, len(ctl.Tasks()))
			return nil
		},
	}

	cmd.AddCommand(list, show, restore)
	return cmd
}
