package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"worklane/pkg/task"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(f string) error {
	switch f {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", f)
}

// render writes v in the selected format. table draws the human view.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		// Round-trip through JSON so YAML keys match the API's field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func show(v any, table func(tw *tabwriter.Writer)) error {
	return render(os.Stdout, outputFmt, v, table)
}

var (
	bold  = color.New(color.Bold).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

func statusColor(s task.Status) string {
	switch s {
	case task.StatusCompleted:
		return green(s)
	case task.StatusInProgress, task.StatusInReview:
		return color.CyanString(string(s))
	case task.StatusCanceled:
		return gray(s)
	}
	return string(s)
}

func priorityLabel(p *task.Priority) string {
	if p == nil {
		return gray("-")
	}
	switch *p {
	case task.PriorityUrgent:
		return red(*p)
	case task.PriorityHigh:
		return color.YellowString(string(*p))
	}
	return string(*p)
}

func dateLabel(t *time.Time) string {
	if t == nil {
		return gray("-")
	}
	return t.Format("2006-01-02")
}

func header(tw *tabwriter.Writer, cols ...string) {
	for i, c := range cols {
		cols[i] = bold(c)
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}
