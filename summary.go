package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/524D/peakexport/internal/runner"
)

// renderSummary lists the outcome of every exported file
func renderSummary(results []runner.Result) string {
	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"Input", "Output", "Scans", "Rows", "Size", "Time", "Status"})

	var rows int
	for _, res := range results {
		status := "ok"
		size := "-"
		if res.Err != nil {
			status = res.Err.Error()
		} else if info, err := os.Stat(res.Output); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		rows += res.Summary.Rows
		tw.AppendRow(table.Row{
			filepath.Base(res.Input),
			res.Output,
			humanize.Comma(int64(res.Summary.Scans)) + "/" + humanize.Comma(int64(res.ScanCount)),
			humanize.Comma(int64(res.Summary.Rows)),
			size,
			res.Duration.Round(time.Millisecond).String(),
			status,
		})
	}
	tw.AppendFooter(table.Row{"", "", "", humanize.Comma(int64(rows)), "", "", english.Plural(len(results), "file", "files")})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, WidthMax: 60},
	})
	return tw.Render()
}
