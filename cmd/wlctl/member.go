package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worklane/pkg/member"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage the member directory",
}

var memberRegisterCmd = &cobra.Command{
	Use:   "register <name> <email>",
	Short: "Register a member, or return the existing one with that email",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireWorkspace(); err != nil {
			return err
		}
		avatar, _ := cmd.Flags().GetString("avatar")
		m, err := stores.Members.Register(cmd.Context(), workspaceID, args[0], args[1], avatar)
		if err != nil {
			return err
		}
		return show(m, func(tw *tabwriter.Writer) { memberRows(tw, []member.Member{*m}) })
	},
}

var memberLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "Show the members of the workspace",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireWorkspace(); err != nil {
			return err
		}
		members, err := stores.Members.List(cmd.Context(), workspaceID)
		if err != nil {
			return err
		}
		return show(members, func(tw *tabwriter.Writer) { memberRows(tw, members) })
	},
}

func memberRows(tw *tabwriter.Writer, members []member.Member) {
	header(tw, "ID", "NAME", "EMAIL")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
	}
}

func init() {
	memberRegisterCmd.Flags().String("avatar", "", "avatar URL")
	memberCmd.AddCommand(memberRegisterCmd, memberLsCmd)
	rootCmd.AddCommand(memberCmd)
}
