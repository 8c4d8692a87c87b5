package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Points Commands ────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskUndoCmd)
	rootCmd.AddCommand(referralCmd)
	referralCmd.AddCommand(referralAddCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	resetCmd.Flags().Bool("force", false, "Confirm wiping all points data")
}

// printOutcome renders an engine result: ✅ with the message and new balance
// on success, a plain explanation on rejection.
func printOutcome(res domain.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.OK {
		fmt.Fprintln(os.Stdout, res.Message)
		return nil
	}
	fmt.Fprintf(os.Stdout, "✅ %s\n", res.Message)
	fmt.Fprintf(os.Stdout, "   Balance: %d point(s)\n", res.Balance.Available)
	return nil
}

// ─── checkin ────────────────────────────────────────────────────────────────

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record today's check-in",
	Long:  `Record today's daily check-in: +1 point, streak increment, and a bonus at every seventh consecutive day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		res, err := engine.CheckIn()
		return printOutcome(res, err)
	},
}

// ─── undo ───────────────────────────────────────────────────────────────────

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo today's check-in",
	Long:  `Reverse today's check-in, rolling back the streak increment and any streak bonus it just earned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		res, err := engine.UndoCheckIn()
		return printOutcome(res, err)
	},
}

// ─── task ───────────────────────────────────────────────────────────────────

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage routine task points",
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete TASK_ID",
	Short: "Award a point for a completed routine task",
	Long:  `Award a point for finishing a routine task. At most 5 task points per calendar day.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		res, err := engine.CompleteRoutineTask(args[0])
		return printOutcome(res, err)
	},
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo TASK_ID",
	Short: "Undo a routine task point from today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		res, err := engine.UndoRoutineTask(args[0])
		return printOutcome(res, err)
	},
}

// ─── referral ───────────────────────────────────────────────────────────────

var referralCmd = &cobra.Command{
	Use:   "referral",
	Short: "Manage referral rewards",
}

var referralAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Reward a successful friend referral",
	Long:  `Reward a successful friend referral. Capped at 20 rewarded referrals per account.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		res, err := engine.AddReferral()
		return printOutcome(res, err)
	},
}

// ─── status ─────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show balance, streak, and today's remaining allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		b := engine.Balance()
		fmt.Fprintf(os.Stdout, "Points:    %d available (%d lifetime)\n", b.Available, b.Lifetime)
		fmt.Fprintf(os.Stdout, "Streak:    %d day(s)\n", engine.StreakDays())
		fmt.Fprintf(os.Stdout, "Today:     %d task point(s) left\n", engine.RemainingToday())
		fmt.Fprintf(os.Stdout, "Referrals: %d of %d\n", engine.ReferralCount(), domain.ReferralCeiling)
		return nil
	},
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent ledger events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		events := engine.RecentEvents(limit)
		if len(events) == 0 {
			fmt.Fprintln(os.Stdout, "No events yet.")
			return nil
		}
		for _, ev := range events {
			marker := " "
			if ev.Reversible {
				marker = "↩"
			}
			fmt.Fprintf(os.Stdout, "%s  %s %+4d  %s\n",
				ev.Timestamp.Format(time.DateTime), marker, ev.Delta, ev.Reason)
		}
		return nil
	},
}

// ─── reset ──────────────────────────────────────────────────────────────────

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all points data (dev/test only)",
	Long:  `Wipe the ledger, grants, daily counter, and streak. Destructive; requires --force.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("refusing to wipe points data without --force")
		}
		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := engine.ResetAll(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "✅ Points data reset.")
		return nil
	},
}
