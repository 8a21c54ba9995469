package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/elonfeng/playsignal/internal/analytics"
	"github.com/elonfeng/playsignal/internal/store"
	"github.com/elonfeng/playsignal/pkg/bucket"
	"github.com/elonfeng/playsignal/pkg/score"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
}

func heading(w io.Writer, title string) {
	color.New(color.Bold).Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
}

// percentColor grades a 0-100 score.
func percentColor(pct int) *color.Color {
	switch {
	case pct < 50:
		return color.New(color.FgRed)
	case pct < 70:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgGreen)
}

func renderProjects(w io.Writer, projects []store.Project) {
	table := newTable(w)
	table.Header([]string{"ID", "Slug", "Name", "Public"})
	for _, p := range projects {
		table.Append([]string{p.ID, p.Slug, p.Name, fmt.Sprint(p.Public)})
	}
	table.Render()
}

func renderStats(w io.Writer, stats []score.StatAggregate) {
	table := newTable(w)
	table.Header([]string{"Stat", "Category", "Answers", "Average", "Score"})
	for _, s := range stats {
		pct := "-"
		if s.Scored() {
			pct = percentColor(s.Percent()).Sprintf("%d%%", s.Percent())
		}
		table.Append([]string{
			s.Name,
			s.Category,
			fmt.Sprint(s.Count),
			fmt.Sprintf("%.1f (%g-%g)", s.RawAverage, s.Min, s.Max),
			pct,
		})
	}
	table.Render()
}

func renderCategories(w io.Writer, categories []score.CategoryAggregate) {
	if len(categories) == 0 {
		return
	}
	table := newTable(w)
	table.Header([]string{"Category", "Stats", "Score"})
	for _, c := range categories {
		table.Append([]string{c.Category, fmt.Sprint(c.StatCount), percentColor(c.Score).Sprintf("%d", c.Score)})
	}
	table.Render()
}

func renderSeries(w io.Writer, title string, series bucket.Series) {
	fmt.Fprintf(w, "\n%s (%d total)\n", title, series.Total())
	table := newTable(w)
	table.Header([]string{"Date", "Count", ""})
	for _, p := range series {
		table.Append([]string{p.Date, fmt.Sprint(p.Count), strings.Repeat("#", p.Count)})
	}
	table.Render()
}

func renderReport(w io.Writer, r *analytics.ProjectReport) {
	heading(w, fmt.Sprintf("%s (%d responses)", r.Project.Name, r.TotalResponses))
	fmt.Fprintln(w)
	renderStats(w, r.Stats)
	fmt.Fprintln(w)
	renderCategories(w, r.Categories)
	renderSeries(w, "Daily responses", r.Daily)

	if len(r.Insights) > 0 {
		fmt.Fprintln(w)
		color.New(color.Bold).Fprintln(w, "Insights")
		for _, in := range r.Insights {
			color.New(color.FgCyan).Fprintf(w, "  • %s\n", in)
		}
	}
}

func renderBoard(w io.Writer, b *analytics.Board) {
	heading(w, b.Project.Name)
	if b.Project.Description != "" {
		fmt.Fprintln(w, b.Project.Description)
	}
	fmt.Fprintf(w, "%d responses, %d followers\n\n", b.TotalResponses, b.Followers)
	renderStats(w, b.Stats)
	fmt.Fprintln(w)
	renderCategories(w, b.Categories)
	renderSeries(w, "Weekly responses", b.WeeklyResponses)
	renderSeries(w, "Weekly follows", b.WeeklyFollows)
	renderSeries(w, "Weekly updates", b.WeeklyUpdates)
}

func renderTrending(w io.Writer, scored []analytics.Scored) {
	table := newTable(w)
	table.Header([]string{"#", "Score", "Project", "Recent", "Total", "Followers", "Updated"})
	for i, s := range scored {
		table.Append([]string{
			fmt.Sprint(i + 1),
			fmt.Sprintf("%.1f", s.Score),
			s.Name,
			fmt.Sprint(s.RecentResponses),
			fmt.Sprint(s.TotalResponses),
			fmt.Sprint(s.FollowerCount),
			s.UpdatedAt.UTC().Format(bucket.DateLayout),
		})
	}
	table.Render()
}
