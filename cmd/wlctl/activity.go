package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worklane/pkg/activity"
	"worklane/pkg/participation"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Inspect the hash-chained task activity log",
}

var activityTaskCmd = &cobra.Command{
	Use:   "task <list-id> <task-id>",
	Short: "Show a task's activity, oldest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		events, err := rt.Engine.TaskActivity(ctx, sc, args[1], limit)
		if err != nil {
			return err
		}
		return show(events, func(tw *tabwriter.Writer) { eventRows(tw, events) })
	},
}

var activityRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the workspace's newest events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireWorkspace(); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		events, err := stores.Activity.Recent(cmd.Context(), workspaceID, limit)
		if err != nil {
			return err
		}
		return show(events, func(tw *tabwriter.Writer) { eventRows(tw, events) })
	},
}

var activityVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the workspace's activity hash chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireWorkspace(); err != nil {
			return err
		}
		ctx := cmd.Context()
		n, err := stores.Activity.Count(ctx, workspaceID)
		if err != nil {
			return err
		}
		if err := stores.Activity.VerifyChain(ctx, workspaceID); err != nil {
			fmt.Printf("%s chain broken: %v\n", red("✗"), err)
			return fmt.Errorf("activity chain of %s is invalid", workspaceID)
		}
		fmt.Printf("%s chain intact (%d events)\n", green("✓"), n)
		return nil
	},
}

func eventRows(tw *tabwriter.Writer, events []activity.Event) {
	header(tw, "TIME", "TYPE", "ACTOR", "TASK")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.ActorID, e.TaskID)
	}
}

func init() {
	activityTaskCmd.Flags().IntP("limit", "n", 50, "maximum events")
	activityRecentCmd.Flags().IntP("limit", "n", 20, "maximum events")
	activityCmd.AddCommand(activityTaskCmd, activityRecentCmd, activityVerifyCmd)
	rootCmd.AddCommand(activityCmd)
}
