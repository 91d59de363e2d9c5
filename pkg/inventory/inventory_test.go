package inventory

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
)

func day(n int) time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func commit(sha, branch string, n, insertions, files int) ancestry.Commit {
	return ancestry.Commit{
		SHA:          sha,
		Branch:       branch,
		Timestamp:    day(n),
		Insertions:   insertions,
		FilesChanged: files,
		Category:     ancestry.CategoryFeature,
	}
}

func precompute(t *testing.T, doc *ancestry.Document) *Table {
	t.Helper()
	return Precompute(doc, branchtree.Build(doc))
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %f, want %f", name, got, want)
	}
}

func TestEmptyPrefixIsZero(t *testing.T) {
	doc := &ancestry.Document{Commits: []ancestry.Commit{commit("a1", "main", 0, 10, 1)}}
	table := precompute(t, doc)

	if table.Len() != 2 {
		t.Fatalf("table length = %d, want 2", table.Len())
	}
	if row := table.Row(0); row != (FrameStats{}) {
		t.Errorf("row 0 should be zero, got %+v", row)
	}
}

func TestDefaultBranchCommitsNeverUnmerged(t *testing.T) {
	doc := &ancestry.Document{Commits: []ancestry.Commit{
		commit("a1", "main", 0, 100, 5),
		commit("a2", "main", 1, 200, 8),
	}}
	table := precompute(t, doc)

	row := table.Row(2)
	if row.UnmergedCommits != 0 || row.UnmergedLines != 0 || row.UnmergedFiles != 0 {
		t.Errorf("trunk commits counted as unmerged: %+v", row)
	}
	if row.AwaitingRelease != 2 {
		t.Errorf("AwaitingRelease = %d, want 2", row.AwaitingRelease)
	}
}

func TestUnmergedAccumulatesAndDrainsOnMerge(t *testing.T) {
	doc := &ancestry.Document{
		Commits: []ancestry.Commit{
			commit("a1", "main", 0, 10, 1),
			commit("b1", "feature/x", 1, 100, 4),
			commit("b2", "feature/x", 2, 50, 2),
			commit("m1", "main", 3, 150, 6),
		},
		Merges: []ancestry.Merge{
			{SHA: "m1", FromBranch: "feature/x", ToBranch: "main", Timestamp: day(3)},
		},
	}
	table := precompute(t, doc)

	before := table.Row(3)
	if before.UnmergedCommits != 2 || before.UnmergedLines != 150 || before.UnmergedFiles != 6 {
		t.Errorf("pre-merge row: %+v", before)
	}
	if before.ActiveBranches != 1 {
		t.Errorf("pre-merge ActiveBranches = %d, want 1", before.ActiveBranches)
	}

	after := table.Row(4)
	if after.UnmergedCommits != 0 || after.UnmergedLines != 0 || after.UnmergedFiles != 0 {
		t.Errorf("merge should drain the pool: %+v", after)
	}
	if after.ActiveBranches != 0 || after.StaleBranches != 0 {
		t.Errorf("no branches should hold work after the merge: %+v", after)
	}
	if after.MergeThroughput30d != 1 {
		t.Errorf("MergeThroughput30d = %d, want 1", after.MergeThroughput30d)
	}
}

func TestMergedBranchStaysMerged(t *testing.T) {
	doc := &ancestry.Document{
		Commits: []ancestry.Commit{
			commit("a1", "main", 0, 10, 1),
			commit("b1", "feature/x", 1, 100, 4),
			commit("m1", "main", 2, 100, 4),
			commit("b2", "feature/x", 3, 50, 2),
			commit("a2", "main", 4, 10, 1),
		},
		Merges: []ancestry.Merge{
			{SHA: "m1", FromBranch: "feature/x", ToBranch: "main", Timestamp: day(2)},
		},
	}
	table := precompute(t, doc)

	// b2 lands after feature/x merged; the branch never re-enters the
	// unmerged inventory.
	for k := 4; k <= 5; k++ {
		row := table.Row(k)
		if row.UnmergedCommits != 0 || row.UnmergedLines != 0 || row.UnmergedFiles != 0 {
			t.Errorf("row %d: post-merge commit counted as unmerged: %+v", k, row)
		}
		if row.ActiveBranches != 0 || row.StaleBranches != 0 {
			t.Errorf("row %d: merged branch still counted: %+v", k, row)
		}
	}
}

func TestThroughputCountsMergeWithUnseenSourceBranch(t *testing.T) {
	doc := &ancestry.Document{
		Commits: []ancestry.Commit{
			commit("a1", "main", 0, 10, 1),
			commit("m1", "main", 1, 10, 1),
		},
		Merges: []ancestry.Merge{
			{SHA: "m1", FromBranch: "feature/ghost", ToBranch: "main", Timestamp: day(1)},
		},
	}
	table := precompute(t, doc)

	row := table.Row(2)
	if row.MergeThroughput30d != 1 {
		t.Errorf("MergeThroughput30d = %d, want 1 (sha match counts even without source commits)", row.MergeThroughput30d)
	}
	if row.UnmergedCommits != 0 {
		t.Errorf("ghost branch produced unmerged work: %+v", row)
	}
}

func TestIntegrationDebtGrowsWithAge(t *testing.T) {
	doc := &ancestry.Document{Commits: []ancestry.Commit{
		commit("a1", "main", 0, 10, 1),
		commit("b1", "feature/x", 0, 100, 4),
		commit("a2", "main", 5, 10, 1),
		commit("a3", "main", 10, 10, 1),
	}}
	table := precompute(t, doc)

	// b1's 100 lines aged 5 days, then 10.
	approx(t, "debt at day 5", table.Row(3).IntegrationDebt, 500)
	approx(t, "debt at day 10", table.Row(4).IntegrationDebt, 1000)
	approx(t, "oldest unmerged", table.Row(4).OldestUnmergedDays, 10)
}

func TestIntegrationDebtAgesFromBranchFirstCommit(t *testing.T) {
	doc := &ancestry.Document{Commits: []ancestry.Commit{
		commit("a1", "main", 0, 10, 1),
		commit("b1", "feature/x", 0, 100, 4),
		commit("b2", "feature/x", 10, 50, 2),
	}}
	table := precompute(t, doc)

	// The whole branch ages from its first commit: 150 lines x 10 days,
	// not 100x10 + 50x0.
	approx(t, "debt", table.Row(3).IntegrationDebt, 1500)
}

func TestStaleBranchSplit(t *testing.T) {
	doc := &ancestry.Document{Commits: []ancestry.Commit{
		commit("a1", "main", 0, 10, 1),
		commit("b1", "feature/old", 1, 20, 1),
		commit("c1", "feature/new", 35, 30, 1),
		commit("a2", "main", 40, 10, 1),
	}}
	table := precompute(t, doc)

	row := table.Row(4)
	if row.StaleBranches != 1 {
		t.Errorf("StaleBranches = %d, want 1 (feature/old is 39 days quiet)", row.StaleBranches)
	}
	if row.ActiveBranches != 1 {
		t.Errorf("ActiveBranches = %d, want 1 (feature/new is 5 days quiet)", row.ActiveBranches)
	}
}

func TestReleaseTracking(t *testing.T) {
	tagged := commit("a3", "main", 10, 10, 1)
	tagged.Tags = []string{"v1.0.0"}

	doc := &ancestry.Document{Commits: []ancestry.Commit{
		commit("a1", "main", 0, 10, 1),
		commit("a2", "main", 5, 10, 1),
		tagged,
		commit("a4", "main", 12, 10, 1),
		commit("a5", "main", 17, 10, 1),
	}}
	table := precompute(t, doc)

	// Before any release, the clock runs from the first commit.
	approx(t, "pre-release days", table.Row(2).DaysSinceRelease, 5)

	atRelease := table.Row(3)
	approx(t, "days at release", atRelease.DaysSinceRelease, 0)
	if atRelease.AwaitingRelease != 0 {
		t.Errorf("tag should reset AwaitingRelease, got %d", atRelease.AwaitingRelease)
	}

	final := table.Row(5)
	approx(t, "days after release", final.DaysSinceRelease, 7)
	if final.AwaitingRelease != 2 {
		t.Errorf("AwaitingRelease = %d, want 2", final.AwaitingRelease)
	}
}

func TestThroughputWindowSlides(t *testing.T) {
	doc := &ancestry.Document{
		Commits: []ancestry.Commit{
			commit("a1", "main", 0, 10, 1),
			commit("b1", "feat/a", 1, 10, 1),
			commit("m1", "main", 2, 10, 1),
			commit("c1", "feat/b", 3, 10, 1),
			commit("m2", "main", 4, 10, 1),
			commit("a2", "main", 40, 10, 1),
		},
		Merges: []ancestry.Merge{
			{SHA: "m1", FromBranch: "feat/a", ToBranch: "main"},
			{SHA: "m2", FromBranch: "feat/b", ToBranch: "main"},
		},
	}
	table := precompute(t, doc)

	if got := table.Row(5).MergeThroughput30d; got != 2 {
		t.Errorf("throughput within window = %d, want 2", got)
	}
	if got := table.Row(6).MergeThroughput30d; got != 0 {
		t.Errorf("throughput after 36 quiet days = %d, want 0", got)
	}
}

func TestRowClampsOutOfRange(t *testing.T) {
	doc := &ancestry.Document{Commits: []ancestry.Commit{commit("a1", "main", 0, 10, 1)}}
	table := precompute(t, doc)

	if table.Row(-1) != table.Row(0) {
		t.Error("negative index should clamp to row 0")
	}
	if table.Row(99) != table.Row(1) {
		t.Error("oversized index should clamp to the last row")
	}
}

func TestPrefixMonotoneAgainstNaiveRecount(t *testing.T) {
	// Cross-check the snapshot scan against a hand recount on a mixed
	// scenario.
	doc := &ancestry.Document{
		Commits: []ancestry.Commit{
			commit("a1", "main", 0, 10, 1),
			commit("b1", "feat/a", 2, 40, 2),
			commit("c1", "feat/b", 4, 60, 3),
			commit("b2", "feat/a", 6, 20, 1),
			commit("m1", "main", 8, 60, 3),
			commit("a2", "main", 12, 10, 1),
		},
		Merges: []ancestry.Merge{
			{SHA: "m1", FromBranch: "feat/a", ToBranch: "main"},
		},
	}
	table := precompute(t, doc)

	row := table.Row(6)
	if row.UnmergedCommits != 1 || row.UnmergedLines != 60 || row.UnmergedFiles != 3 {
		t.Errorf("only feat/b should remain unmerged: %+v", row)
	}
	// feat/b's 60 lines are 8 days old at the final commit.
	approx(t, "debt", row.IntegrationDebt, 480)
	approx(t, "oldest", row.OldestUnmergedDays, 8)
}
