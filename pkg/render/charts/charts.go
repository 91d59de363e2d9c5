// Package charts renders the static aggregate dashboard as a single HTML
// page of interactive charts.
//
// The dashboard is the companion to the video: the video replays history,
// the dashboard summarizes it. Charts draw from the collector's aggregate
// statistics block when present; the basic volume charts fall back to
// counting the commit stream directly so a document without the optional
// block still produces a useful page.
package charts

import (
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/errors"
)

const (
	chartWidth  = "1200px"
	chartHeight = "460px"
	lineWidth   = 2
	maxAuthors  = 15
)

// WritePage assembles every applicable chart into one HTML page.
func WritePage(w io.Writer, doc *ancestry.Document) error {
	if len(doc.Commits) == 0 {
		return errors.New(errors.ErrCodeEmptyHistory, "ancestry document has no commits")
	}

	page := components.NewPage()
	page.SetPageTitle("commitreel: " + doc.Metadata.Repo)
	page.SetLayout(components.PageCenterLayout)

	page.AddCharts(
		velocityChart(doc),
		categoryChart(doc),
		authorsChart(doc),
	)

	if doc.Statistics != nil && doc.Statistics.ChangeFlow != nil {
		flow := doc.Statistics.ChangeFlow
		if len(flow.MergeLatency) > 0 {
			page.AddCharts(latencyChart("Merge Latency", "Days from branch start to merge", flow.MergeLatency))
		}
		if len(flow.CommitToRelease) > 0 {
			page.AddCharts(latencyChart("Commit to Release", "Days from commit to the release that shipped it", flow.CommitToRelease))
		}
		if len(flow.BranchLifespans) > 0 {
			page.AddCharts(lifespanChart(flow.BranchLifespans))
		}
		if len(flow.ReleaseDates) > 1 {
			page.AddCharts(cadenceChart(flow.ReleaseDates))
		}
		if len(flow.Disposition) > 0 {
			page.AddCharts(dispositionChart(flow.Disposition))
		}
	}

	if err := page.Render(w); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "render chart page")
	}
	return nil
}

// velocityChart plots weekly commit and line volume. The collector's
// precomputed series wins; otherwise the commit stream is bucketed here.
func velocityChart(doc *ancestry.Document) *charts.Line {
	var weeks []ancestry.WeeklyVelocity
	if doc.Statistics != nil && doc.Statistics.ChangeFlow != nil && len(doc.Statistics.ChangeFlow.WeeklyVelocity) > 0 {
		weeks = doc.Statistics.ChangeFlow.WeeklyVelocity
	} else {
		weeks = bucketWeekly(doc.Commits)
	}

	labels := make([]string, len(weeks))
	commits := make([]opts.LineData, len(weeks))
	lines := make([]opts.LineData, len(weeks))
	for i, wk := range weeks {
		labels[i] = wk.WeekStart.Format("2006-01-02")
		commits[i] = opts.LineData{Value: wk.Commits}
		lines[i] = opts.LineData{Value: wk.Lines}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Weekly Velocity", Subtitle: "Commits and changed lines per week"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Commits", commits,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Lines", lines,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	return line
}

// categoryChart shows the commit mix as a donut.
func categoryChart(doc *ancestry.Document) *charts.Pie {
	counts := make(map[string]int)
	if doc.Statistics != nil && len(doc.Statistics.ByCategory) > 0 {
		counts = doc.Statistics.ByCategory
	} else {
		for i := range doc.Commits {
			counts[doc.Commits[i].Category]++
		}
	}

	items := make([]opts.PieData, 0, len(counts))
	for _, cat := range ancestry.Categories {
		if counts[cat] > 0 {
			items = append(items, opts.PieData{Name: cat, Value: counts[cat]})
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Commit Categories", Subtitle: "What kind of work the history contains"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("categories", items,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
	)
	return pie
}

// authorsChart ranks contributors by commit count.
func authorsChart(doc *ancestry.Document) *charts.Bar {
	var entries []ancestry.AuthorEntry
	if doc.Statistics != nil && len(doc.Statistics.TopAuthors) > 0 {
		entries = doc.Statistics.TopAuthors
	} else {
		counts := make(map[string]int)
		for i := range doc.Commits {
			counts[doc.Commits[i].Author]++
		}
		for author, n := range counts {
			entries = append(entries, ancestry.AuthorEntry{Author: author, Commits: n})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Commits > entries[j].Commits })
	}
	if len(entries) > maxAuthors {
		entries = entries[:maxAuthors]
	}

	labels := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))
	for i, e := range entries {
		labels[i] = e.Author
		data[i] = opts.BarData{Value: e.Commits}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Top Authors", Subtitle: "Commits per contributor"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("Commits", data)
	return bar
}

// latencyChart scatters measured intervals, one point per sample, labelled
// by the category of the work.
func latencyChart(title, subtitle string, samples []ancestry.LatencySample) *charts.Scatter {
	byCategory := make(map[string][]opts.ScatterData)
	order := make([]string, 0)
	for i, s := range samples {
		if _, ok := byCategory[s.Category]; !ok {
			order = append(order, s.Category)
		}
		byCategory[s.Category] = append(byCategory[s.Category], opts.ScatterData{
			Value: []any{i, s.Days},
		})
	}
	sort.Strings(order)

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "days"}),
	)
	for _, cat := range order {
		sc.AddSeries(cat, byCategory[cat])
	}
	return sc
}

// lifespanChart bars each branch's lifetime in days, merged branches
// stacked apart from abandoned ones.
func lifespanChart(spans []ancestry.BranchLifespan) *charts.Bar {
	sorted := make([]ancestry.BranchLifespan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].End.Sub(sorted[i].Start) > sorted[j].End.Sub(sorted[j].Start)
	})

	labels := make([]string, len(sorted))
	mergedData := make([]opts.BarData, len(sorted))
	abandonedData := make([]opts.BarData, len(sorted))
	for i, s := range sorted {
		labels[i] = s.Branch
		days := s.End.Sub(s.Start).Hours() / 24
		if s.Merged {
			mergedData[i] = opts.BarData{Value: days}
			abandonedData[i] = opts.BarData{Value: "-"}
		} else {
			mergedData[i] = opts.BarData{Value: "-"}
			abandonedData[i] = opts.BarData{Value: days}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Branch Lifespans", Subtitle: "Days from first commit to merge or abandonment"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("Merged", mergedData)
	bar.AddSeries("Abandoned", abandonedData)
	return bar
}

// cadenceChart plots the interval between consecutive releases.
func cadenceChart(dates []time.Time) *charts.Line {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	labels := make([]string, 0, len(sorted)-1)
	data := make([]opts.LineData, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		labels = append(labels, sorted[i].Format("2006-01-02"))
		data = append(data, opts.LineData{Value: sorted[i].Sub(sorted[i-1]).Hours() / 24})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Release Cadence", Subtitle: "Days between consecutive releases"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "days"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("Interval", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	return line
}

// dispositionChart shows what ultimately happened to branch work.
func dispositionChart(disposition map[string]int) *charts.Pie {
	keys := make([]string, 0, len(disposition))
	for k := range disposition {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]opts.PieData, 0, len(keys))
	for _, k := range keys {
		items = append(items, opts.PieData{Name: k, Value: disposition[k]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Work Disposition", Subtitle: "Where branch work ended up"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("disposition", items,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
	)
	return pie
}

// bucketWeekly groups the commit stream into ISO weeks, preserving order.
func bucketWeekly(commits []ancestry.Commit) []ancestry.WeeklyVelocity {
	var weeks []ancestry.WeeklyVelocity
	index := make(map[time.Time]int)
	for i := range commits {
		c := &commits[i]
		ws := weekStart(c.Timestamp)
		idx, ok := index[ws]
		if !ok {
			idx = len(weeks)
			index[ws] = idx
			weeks = append(weeks, ancestry.WeeklyVelocity{WeekStart: ws})
		}
		weeks[idx].Commits++
		weeks[idx].Lines += c.Lines()
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekStart.Before(weeks[j].WeekStart) })
	return weeks
}

// weekStart truncates a timestamp to the preceding Monday at midnight UTC.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
