package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worklane/pkg/participation"
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Manage spaces",
}

var spaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a space in the workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireWorkspace(); err != nil {
			return err
		}
		sp, err := stores.Spaces.CreateSpace(cmd.Context(), workspaceID, args[0])
		if err != nil {
			return err
		}
		return show(sp, func(tw *tabwriter.Writer) {
			header(tw, "ID", "NAME", "WORKSPACE")
			fmt.Fprintf(tw, "%s\t%s\t%s\n", sp.ID, sp.Name, sp.WorkspaceID)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage the lists of a space",
}

var listCreateCmd = &cobra.Command{
	Use:   "create <space-id> <name>",
	Short: "Create a list (space admins only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{SpaceID: args[0]})
		if err != nil {
			return err
		}
		l, err := rt.Engine.CreateList(ctx, sc, args[1])
		if err != nil {
			return err
		}
		return show(l, func(tw *tabwriter.Writer) { listRows(tw, []participation.List{*l}) })
	},
}

var listLsCmd = &cobra.Command{
	Use:     "ls <space-id>",
	Aliases: []string{"list"},
	Short:   "Show the lists of a space",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{SpaceID: args[0]})
		if err != nil {
			return err
		}
		lists, err := rt.Engine.Lists(ctx, sc)
		if err != nil {
			return err
		}
		return show(lists, func(tw *tabwriter.Writer) { listRows(tw, lists) })
	},
}

func listRows(tw *tabwriter.Writer, lists []participation.List) {
	header(tw, "ID", "NAME", "CREATED")
	for _, l := range lists {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, l.CreatedAt.Format("2006-01-02 15:04"))
	}
}

var participantCmd = &cobra.Command{
	Use:   "participant",
	Short: "Manage who participates in a space",
}

var participantAddCmd = &cobra.Command{
	Use:   "add <space-id> <member-id>",
	Short: "Add or reactivate a participant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		perm := participation.Regular
		if admin, _ := cmd.Flags().GetBool("admin"); admin {
			perm = participation.Admin
		}
		p, err := stores.Spaces.AddParticipant(cmd.Context(), args[0], args[1], perm)
		if err != nil {
			return err
		}
		return show(p, func(tw *tabwriter.Writer) { participantRow(tw, p) })
	},
}

var participantDeactivateCmd = &cobra.Command{
	Use:   "deactivate <space-id> <member-id>",
	Short: "Revoke a participant's access to a space",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := stores.Spaces.SetParticipantStatus(cmd.Context(), args[0], args[1], participation.Inactive)
		if err != nil {
			return err
		}
		return show(p, func(tw *tabwriter.Writer) { participantRow(tw, p) })
	},
}

func participantRow(tw *tabwriter.Writer, p *participation.Participant) {
	header(tw, "SPACE", "MEMBER", "PERMISSIONS", "STATUS")
	status := green(p.Status)
	if p.Status != participation.Active {
		status = gray(p.Status)
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.SpaceID, p.MemberID, p.Permissions, status)
}

func init() {
	spaceCmd.AddCommand(spaceCreateCmd)
	rootCmd.AddCommand(spaceCmd)

	listCmd.AddCommand(listCreateCmd, listLsCmd)
	rootCmd.AddCommand(listCmd)

	participantAddCmd.Flags().Bool("admin", false, "grant admin permissions")
	participantCmd.AddCommand(participantAddCmd, participantDeactivateCmd)
	rootCmd.AddCommand(participantCmd)
}
