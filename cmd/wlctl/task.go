package main

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worklane/pkg/grouping"
	"worklane/pkg/participation"
	"worklane/pkg/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, query and update tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <list-id> <name>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		in := task.CreateInput{Name: args[1]}
		in.Description, _ = cmd.Flags().GetString("description")
		if s, _ := cmd.Flags().GetString("priority"); s != "" {
			p, err := task.ParsePriority(s)
			if err != nil {
				return err
			}
			in.Priority = &p
		}
		if ids, _ := cmd.Flags().GetStringSlice("assignee"); len(ids) > 0 {
			in.AssigneeIDs = task.NewIDSet(ids...)
		}
		in.Tags, _ = cmd.Flags().GetStringSlice("tag")

		t, err := rt.Engine.CreateTask(ctx, sc, in)
		if err != nil {
			return err
		}
		return show(t, func(tw *tabwriter.Writer) { taskRows(tw, []grouping.TaskView{*t}) })
	},
}

var taskLsCmd = &cobra.Command{
	Use:     "ls <list-id>",
	Aliases: []string{"list"},
	Short:   "Show a filtered page of a list's tasks",
	Long: `Show a filtered page of a list's tasks, newest first.

Examples:
  wlctl task ls $LIST --status todo,in_progress
  wlctl task ls $LIST --priority urgent,none --due overdue
  wlctl task ls $LIST --me --page 2 --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		f, err := grouping.ParseFilter(filterValues(cmd, "assignee", "status", "priority", "due", "page", "limit", "me"))
		if err != nil {
			return err
		}
		page, err := rt.Engine.ListTasksFiltered(ctx, sc, f)
		if err != nil {
			return err
		}
		return show(page, func(tw *tabwriter.Writer) {
			taskRows(tw, page.Tasks)
			more := ""
			if page.HasMore {
				more = fmt.Sprintf(", more on page %d", page.Page+1)
			}
			fmt.Fprintf(tw, "%s\n", gray(fmt.Sprintf("page %d, %d tasks%s", page.Page, len(page.Tasks), more)))
		})
	},
}

var taskGroupedCmd = &cobra.Command{
	Use:   "grouped <list-id>",
	Short: "Group a list's tasks by priority or due date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		f, err := grouping.ParseGroupFilter(filterValues(cmd, "me", "day"))
		if err != nil {
			return err
		}
		by, _ := cmd.Flags().GetString("by")
		var groups grouping.Groups
		var order []string
		switch by {
		case "priority":
			groups, err = rt.Engine.ListTasksGroupedByPriority(ctx, sc, f)
			for _, p := range task.Priorities {
				order = append(order, string(p))
			}
			order = append(order, grouping.UnassignedKey)
		case "due":
			groups, err = rt.Engine.ListTasksGroupedByDueDate(ctx, sc, f)
		default:
			return fmt.Errorf("--by must be priority or due, got %q", by)
		}
		if err != nil {
			return err
		}
		if order == nil {
			for k := range groups {
				order = append(order, k)
			}
			sort.Strings(order)
		}
		return show(groups, func(tw *tabwriter.Writer) {
			for _, k := range order {
				g := groups[k]
				fmt.Fprintf(tw, "%s %s\n", bold(k), gray(fmt.Sprintf("(%d)", g.Count)))
				for _, t := range g.Tasks {
					fmt.Fprintf(tw, "  %s\t%s\t%s\t%d%%\n", t.TaskID, t.Name, statusColor(t.Status), t.Progress)
				}
			}
		})
	},
}

var taskGetCmd = &cobra.Command{
	Use:   "get <list-id> <task-id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		t, err := rt.Engine.GetTask(ctx, sc, args[1])
		if err != nil {
			return err
		}
		return show(t, func(tw *tabwriter.Writer) { taskDetail(tw, t) })
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <list-id> <task-id>",
	Short: "Update a task; only the flags given are changed",
	Long: `Update a task. Only the flags given are changed.

Use --priority none to clear the priority. Progress cannot be set; it
follows the checklist.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		p, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		t, err := rt.Engine.UpdateTask(ctx, sc, args[1], p)
		if err != nil {
			return err
		}
		return show(t, func(tw *tabwriter.Writer) { taskDetail(tw, t) })
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <list-id> <task-id>",
	Short: "Delete a task (space admins or its creator)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, sc, err := authorize(cmd.Context(), participation.Scope{ListID: args[0]})
		if err != nil {
			return err
		}
		if err := rt.Engine.DeleteTask(ctx, sc, args[1]); err != nil {
			return err
		}
		fmt.Printf("%s deleted %s\n", green("✓"), args[1])
		return nil
	},
}

func patchFromFlags(cmd *cobra.Command) (task.Patch, error) {
	var p task.Patch
	fl := cmd.Flags()
	if fl.Changed("name") {
		v, _ := fl.GetString("name")
		p.Name = &v
	}
	if fl.Changed("description") {
		v, _ := fl.GetString("description")
		p.Description = &v
	}
	if fl.Changed("status") {
		v, _ := fl.GetString("status")
		st, err := task.ParseStatus(v)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if fl.Changed("priority") {
		v, _ := fl.GetString("priority")
		if v == "none" {
			p.Priority = task.Null[task.Priority]()
		} else {
			pr, err := task.ParsePriority(v)
			if err != nil {
				return p, err
			}
			p.Priority = task.Some(pr)
		}
	}
	if fl.Changed("assignee") {
		v, _ := fl.GetStringSlice("assignee")
		ids := task.NewIDSet(v...)
		p.AssigneeIDs = &ids
	}
	if fl.Changed("tag") {
		v, _ := fl.GetStringSlice("tag")
		p.Tags = &v
	}
	if fl.Changed("estimate") {
		v, _ := fl.GetFloat64("estimate")
		p.EstimatedHours = task.Some(v)
	}
	return p, nil
}

// filterValues copies the named flags that were set into query values, so
// the CLI parses filters exactly as the HTTP API does.
func filterValues(cmd *cobra.Command, names ...string) url.Values {
	v := url.Values{}
	for _, n := range names {
		f := cmd.Flags().Lookup(n)
		if f == nil || !f.Changed {
			continue
		}
		val := f.Value.String()
		if sv, err := cmd.Flags().GetStringSlice(n); err == nil {
			val = strings.Join(sv, ",")
		}
		v.Set(n, val)
	}
	return v
}

func taskRows(tw *tabwriter.Writer, tasks []grouping.TaskView) {
	header(tw, "TASK", "NAME", "STATUS", "PRIORITY", "DUE", "PROGRESS", "ASSIGNEES")
	for _, t := range tasks {
		names := make([]string, 0, len(t.Assignees))
		for _, a := range t.Assignees {
			names = append(names, a.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d%%\t%s\n",
			t.TaskID, t.Name, statusColor(t.Status), priorityLabel(t.Priority),
			dateLabel(t.DueDate), t.Progress, strings.Join(names, ", "))
	}
}

func taskDetail(tw *tabwriter.Writer, t *grouping.TaskView) {
	row := func(k, v string) { fmt.Fprintf(tw, "%s\t%s\n", bold(k), v) }
	row("ID", t.ID)
	row("Task", t.TaskID)
	row("Name", t.Name)
	row("Status", statusColor(t.Status))
	row("Priority", priorityLabel(t.Priority))
	row("Due", dateLabel(t.DueDate))
	row("Progress", strconv.Itoa(t.Progress)+"%")
	row("Started", dateLabel(t.StartedAt))
	row("Completed", dateLabel(t.CompletedAt))
	names := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		names = append(names, a.Name+" <"+a.Email+">")
	}
	row("Assignees", strings.Join(names, ", "))
	row("Tags", strings.Join(t.Tags, ", "))
}

func init() {
	taskCreateCmd.Flags().String("description", "", "task description")
	taskCreateCmd.Flags().String("priority", "", "urgent, high, normal or low")
	taskCreateCmd.Flags().StringSlice("assignee", nil, "assignee member IDs")
	taskCreateCmd.Flags().StringSlice("tag", nil, "tags")

	lf := taskLsCmd.Flags()
	lf.String("assignee", "", "assignee member ID, or unassigned")
	lf.Bool("me", false, "only tasks assigned to the acting member")
	lf.StringSlice("status", nil, "statuses")
	lf.StringSlice("priority", nil, "priorities; none matches tasks without one")
	lf.String("due", "", "overdue, today, tomorrow, this_week, later or none")
	lf.Int("page", 1, "page number")
	lf.Int("limit", 0, "page size")

	taskGroupedCmd.Flags().String("by", "priority", "priority or due")
	taskGroupedCmd.Flags().Bool("me", false, "only tasks assigned to the acting member")
	taskGroupedCmd.Flags().String("day", "", "restrict due groups to one day (YYYY-MM-DD)")

	uf := taskUpdateCmd.Flags()
	uf.String("name", "", "new name")
	uf.String("description", "", "new description")
	uf.String("status", "", "todo, in_progress, in_review, completed or canceled")
	uf.String("priority", "", "urgent, high, normal, low or none")
	uf.StringSlice("assignee", nil, "replace the assignees")
	uf.StringSlice("tag", nil, "replace the tags")
	uf.Float64("estimate", 0, "estimated hours")

	taskCmd.AddCommand(taskCreateCmd, taskLsCmd, taskGroupedCmd, taskGetCmd, taskUpdateCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
