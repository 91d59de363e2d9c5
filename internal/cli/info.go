package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
	"github.com/matzehuels/commitreel/pkg/inventory"
	"github.com/matzehuels/commitreel/pkg/pipeline"
)

// infoCommand creates the info command: a terminal summary of an ancestry
// document and the state its history ends in.
func (c *CLI) infoCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "info [history.json]",
		Short: "Summarize an ancestry document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(cmd.Context(), args[0], refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached artifacts and recompute")

	return cmd
}

func (c *CLI) runInfo(ctx context.Context, input string, refresh bool) error {
	runner, err := c.newRunner(false)
	if err != nil {
		return err
	}
	defer runner.Close()

	doc, _, err := runner.Load(ctx, input, refresh)
	if err != nil {
		return err
	}

	tree := branchtree.Build(doc)
	table := inventory.Precompute(doc, tree)
	final := table.Row(len(doc.Commits))

	repo := doc.Metadata.Repo
	if repo == "" {
		repo = input
	}
	fmt.Println(StyleTitle.Render(repo))
	printNewline()

	printKeyValue("Commits", fmt.Sprintf("%d", len(doc.Commits)))
	printKeyValue("Branches", fmt.Sprintf("%d (trunk: %s)", tree.Len(), StyleTrunk.Render(doc.DefaultBranch())))
	printKeyValue("Merges", fmt.Sprintf("%d", len(doc.Merges)))
	if doc.Metadata.DateRange.Start != "" {
		printKeyValue("History", fmt.Sprintf("%s %s %s",
			doc.Metadata.DateRange.Start, iconArrow, doc.Metadata.DateRange.End))
	} else if len(doc.Commits) > 0 {
		printKeyValue("History", fmt.Sprintf("%s %s %s",
			doc.Commits[0].Timestamp.Format("2006-01-02"),
			iconArrow,
			doc.Commits[len(doc.Commits)-1].Timestamp.Format("2006-01-02")))
	}

	var stale int
	for _, name := range tree.NonDefault() {
		if b := tree.Lookup(name); b != nil && b.IsStale {
			stale++
		}
	}
	if stale > 0 {
		printKeyValue("Stale", StyleWarning.Render(fmt.Sprintf("%d branches", stale)))
	}

	printNewline()
	fmt.Println(StyleTitle.Render("Categories"))
	printNewline()
	for _, cc := range categoryCounts(doc) {
		printKeyValue(cc.name, fmt.Sprintf("%d", cc.count))
	}

	printNewline()
	fmt.Println(StyleTitle.Render("Final inventory"))
	printNewline()
	printKeyValue("Unmerged", fmt.Sprintf("%d commits · %d lines · %d files",
		final.UnmergedCommits, final.UnmergedLines, final.UnmergedFiles))
	printKeyValue("Branches", fmt.Sprintf("%d active · %d stale", final.ActiveBranches, final.StaleBranches))
	printKeyValue("Debt", fmt.Sprintf("%.0f line-days", final.IntegrationDebt))
	printKeyValue("Release", fmt.Sprintf("%.0f days ago · %d commits awaiting",
		final.DaysSinceRelease, final.AwaitingRelease))
	if final.OldestUnmergedDays > 0 {
		printKeyValue("Oldest", fmt.Sprintf("%.0f days unmerged", final.OldestUnmergedDays))
	}
	printKeyValue("Throughput", fmt.Sprintf("%d merges / 30d", final.MergeThroughput30d))

	var o pipeline.Options
	secs := o.DeriveDuration(len(doc.Commits))
	printNewline()
	printDetail("a render would run %ds at %d fps (%d frames)",
		secs, pipeline.DefaultFPS, secs*pipeline.DefaultFPS)
	printNextStep("Render the video", fmt.Sprintf("%s render %s", appName, input))
	return nil
}

type categoryCount struct {
	name  string
	count int
}

// categoryCounts tallies commits per category, most frequent first.
func categoryCounts(doc *ancestry.Document) []categoryCount {
	counts := make(map[string]int)
	for i := range doc.Commits {
		counts[doc.Commits[i].Category]++
	}
	out := make([]categoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, categoryCount{name: name, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}
