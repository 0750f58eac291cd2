package main

import (
	"bytes"
	"fmt"
	"testing"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
}

func TestRenderFormats(t *testing.T) {
	color.NoColor = true
	v := []sample{{ID: "t1", Progress: 50}}
	table := func(tw *tabwriter.Writer) {
		header(tw, "ID", "PROGRESS")
		for _, s := range v {
			fmt.Fprintf(tw, "%s\t%d%%\n", s.ID, s.Progress)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputJSON, v, table))
	assert.JSONEq(t, `[{"id":"t1","progress":50}]`, buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, outputYAML, v, table))
	assert.Equal(t, "- id: t1\n  progress: 50\n", buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, outputTable, v, table))
	assert.Equal(t, "ID  PROGRESS\nt1  50%\n", buf.String())
}

func TestCheckOutput(t *testing.T) {
	assert.NoError(t, checkOutput("yaml"))
	assert.Error(t, checkOutput("xml"))
}
