// Package report renders cycle outcomes for terminals.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/couchcryptid/pizzeria-traffic/internal/pipeline"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	storedColor  = color.New(color.FgGreen)
	skippedColor = color.New(color.FgYellow)
	failedColor  = color.New(color.FgRed, color.Bold)
	headingColor = color.New(color.Bold)
)

// Print writes a one-line heading and a per-target table for r.
// A gated cycle prints only the heading.
func Print(w io.Writer, r pipeline.Report) error {
	if r.Gated {
		_, err := headingColor.Fprintf(w, "%s (%s, hour %d): outside collection window, nothing collected\n",
			r.Capture.Timestamp, r.Capture.DayOfWeek, r.Capture.Hour)
		return err
	}

	if _, err := headingColor.Fprintf(w, "%s (%s, hour %d): %d stored, %d skipped, %d failed in %s\n",
		r.Capture.Timestamp, r.Capture.DayOfWeek, r.Capture.Hour,
		r.Count(pipeline.StatusStored),
		r.Count(pipeline.StatusSkipped),
		r.Count(pipeline.StatusFetchFailed)+r.Count(pipeline.StatusStoreFailed),
		r.Duration.Round(time.Millisecond),
	); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Pizzeria", "Status", "Live", "Historical", "Anomaly", "Took", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{
			tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft,
		}
	})

	data := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		data = append(data, []string{
			res.Target.Name,
			colorStatus(res.Status),
			formatPercent(res.Live),
			formatPercent(res.Historical),
			formatAnomaly(res.Anomaly),
			res.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintTargets lists the registry in load order.
func PrintTargets(w io.Writer, reg domain.Registry) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Pizzeria", "URL"})

	targets := reg.Targets()
	data := make([][]string, 0, len(targets))
	for i, t := range targets {
		data = append(data, []string{strconv.Itoa(i + 1), t.Name, t.URL})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func colorStatus(s pipeline.Status) string {
	switch s {
	case pipeline.StatusStored:
		return storedColor.Sprint(s)
	case pipeline.StatusSkipped:
		return skippedColor.Sprint(s)
	default:
		return failedColor.Sprint(s)
	}
}

func formatPercent(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + "%"
}

func formatAnomaly(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+d", *v)
}
