package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worklane/pkg/checklist"
	"worklane/pkg/participation"
)

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Manage a task's checklist; progress follows it",
}

var checklistLsCmd = &cobra.Command{
	Use:     "ls <list-id> <task-id>",
	Aliases: []string{"list"},
	Short:   "Show a task's checklist",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		items, err := rt.Engine.ChecklistItems(ctx, sc, args[1])
		if err != nil {
			return err
		}
		return show(items, func(tw *tabwriter.Writer) { itemRows(tw, items) })
	},
}

var checklistAddCmd = &cobra.Command{
	Use:   "add <list-id> <task-id> <title>",
	Short: "Add a checklist item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		res, err := rt.Engine.AddChecklistItem(ctx, sc, args[1], args[2])
		if err != nil {
			return err
		}
		return showResult(res)
	},
}

var checklistToggleCmd = &cobra.Command{
	Use:   "toggle <list-id> <task-id> <item-id>",
	Short: "Mark a checklist item done, or not done with --undo",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		undo, _ := cmd.Flags().GetBool("undo")
		done := !undo
		res, err := rt.Engine.UpdateChecklistItem(ctx, sc, args[1], args[2], checklist.Edit{IsDone: &done})
		if err != nil {
			return err
		}
		return showResult(res)
	},
}

var checklistRmCmd = &cobra.Command{
	Use:   "rm <list-id> <task-id> <item-id>",
	Short: "Remove a checklist item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		res, err := rt.Engine.DeleteChecklistItem(ctx, sc, args[1], args[2])
		if err != nil {
			return err
		}
		return showResult(res)
	},
}

func showResult(res *checklist.Result) error {
	return show(res, func(tw *tabwriter.Writer) {
		if res.Item != nil {
			itemRows(tw, []checklist.Item{*res.Item})
		}
		fmt.Fprintf(tw, "%s\t%d%%\n", bold("Progress"), res.Progress)
	})
}

func itemRows(tw *tabwriter.Writer, items []checklist.Item) {
	header(tw, "ID", "", "TITLE")
	for _, it := range items {
		mark := gray("[ ]")
		if it.IsDone {
			mark = green("[x]")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID, mark, it.Title)
	}
}

func init() {
	checklistToggleCmd.Flags().Bool("undo", false, "mark the item not done")
	checklistCmd.AddCommand(checklistLsCmd, checklistAddCmd, checklistToggleCmd, checklistRmCmd)
	rootCmd.AddCommand(checklistCmd)
}
