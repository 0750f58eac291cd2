// Command wlctl administers a worklane deployment: it provisions spaces,
// lists, members and participants, and drives tasks through the same
// engine the HTTP API uses.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"worklane/internal/app"
	"worklane/internal/config"
	"worklane/internal/logging"
	"worklane/pkg/participation"
)

var (
	configPath  string
	outputFmt   string
	workspaceID string
	memberID    string

	stores *app.Stores
	rt     *app.Runtime
)

var rootCmd = &cobra.Command{
	Use:           "wlctl",
	Short:         "Administer worklane spaces, lists, members and tasks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(outputFmt); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logging.Init("wlctl", cfg.Log); err != nil {
			return err
		}
		if cfg.Store == config.StoreMemory {
			fmt.Fprintln(os.Stderr, color.YellowString("warning: memory store, nothing will persist after this command"))
		}
		stores, err = app.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open %s store: %w", cfg.Store, err)
		}
		rt, err = app.Build(cfg, stores, logging.Logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stores != nil {
			stores.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.StringVarP(&outputFmt, "output", "o", outputTable, "output format: table, json or yaml")
	pf.StringVarP(&workspaceID, "workspace", "w", os.Getenv("WORKLANE_WORKSPACE"), "workspace ID")
	pf.StringVarP(&memberID, "member", "m", os.Getenv("WORKLANE_MEMBER"), "acting member ID")
}

// requireWorkspace fails when --workspace is not set.
func requireWorkspace() error {
	if workspaceID == "" {
		return fmt.Errorf("--workspace (or WORKLANE_WORKSPACE) is required")
	}
	return nil
}

// authorize runs the participation gate for the acting member, the way the
// HTTP middleware does, and returns the scope and a context carrying the
// standing.
func authorize(ctx context.Context, sc participation.Scope) (context.Context, participation.Scope, error) {
	if err := requireWorkspace(); err != nil {
		return ctx, sc, err
	}
	if memberID == "" {
		return ctx, sc, fmt.Errorf("--member (or WORKLANE_MEMBER) is required")
	}
	sc.WorkspaceID = workspaceID
	sc.MemberID = memberID
	ctx, _, err := rt.Gate.Authorize(ctx, sc)
	return ctx, sc, err
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
