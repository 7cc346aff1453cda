package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/domain"
)

type summaryCmd struct {
	filterFlags `embed:""`

	Period  string `help:"Calendar bucket: year, month, or empty for the whole range."`
	Metric  string `help:"magnitude or depth." default:"magnitude"`
	Changes bool   `help:"Print period-over-period changes instead of statistics. The period defaults to year."`
	JSON    bool   `name:"json" help:"Print JSON instead of a table."`
}

func (c *summaryCmd) Run(e *env) error {
	q, err := c.query()
	if err != nil {
		return err
	}
	if q.Period, err = analysis.ParsePeriod(c.Period); err != nil {
		return err
	}
	if q.Metric, err = analysis.ParseMetric(c.Metric); err != nil {
		return err
	}

	svc := e.service()
	if c.Changes {
		res, err := svc.Changes(e.ctx, q)
		if err != nil {
			return err
		}
		printWarnings(res.Warnings)
		if c.JSON {
			return writeJSON(e.out, res)
		}
		return writeChanges(e.out, res.Data)
	}

	res, err := svc.Summary(e.ctx, q)
	if err != nil {
		return err
	}
	printWarnings(res.Warnings)
	if c.JSON {
		return writeJSON(e.out, res)
	}
	return writeSummaries(e.out, res.Data)
}

type linksCmd struct {
	filterFlags   `embed:""`
	samplingFlags `embed:""`

	JSON bool `name:"json" help:"Print JSON instead of a table."`
}

func (c *linksCmd) Run(e *env) error {
	q, err := c.query()
	if err != nil {
		return err
	}
	if err := c.samplingFlags.apply(&q); err != nil {
		return err
	}

	res, err := e.service().LinkedEvents(e.ctx, q)
	if err != nil {
		return err
	}
	printWarnings(res.Warnings)
	if c.JSON {
		return writeJSON(e.out, res)
	}
	return writeLinks(e.out, res.Data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummaries(w io.Writer, rows []domain.GroupSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tPERIOD\tCOUNT\tMEAN\tMEDIAN\tMIN\tMAX\tSTD")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			orDash(r.Group), orDash(r.Period), r.Count, r.Mean, r.Median, r.Min, r.Max, r.Std)
	}
	return tw.Flush()
}

func writeChanges(w io.Writer, rows []domain.PeriodChange) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tPERIOD\tCOUNT\tCOUNT CHANGE\tMEAN\tMEAN CHANGE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%s\n",
			orDash(r.Group), r.Period, r.Count, r.CountChange, r.Mean, r.MeanChange)
	}
	return tw.Flush()
}

func writeLinks(w io.Writer, links []domain.LinkedEvent) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tFROM\tMAG\tTO\tMAG\tHOURS\tURGENCY")
	for _, l := range links {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%.1f\t%.2f\t%s\n",
			orDash(l.Group),
			l.Timestamp.UTC().Format(time.DateTime), l.Magnitude,
			l.Next.Timestamp.UTC().Format(time.DateTime), l.Next.Magnitude,
			l.TimeDeltaHours, domain.TimeDeltaScheme.Bucket(l.TimeDeltaHours).Label)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
