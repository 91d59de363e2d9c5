// Package inventory computes the per-frame "code inventory" metrics shown
// in the stats overlay.
//
// A frame shows the first k commits of the stream; its metrics describe the
// state of the codebase at that point: how much work sits unmerged on side
// branches, how stale that work is, and how far the trunk is from its last
// release. The full table of metrics for every prefix length is precomputed
// in one forward pass, so frame workers read their row by index with no
// computation and no shared mutable state.
//
// "Now" for a prefix is the timestamp of its latest visible commit, not
// wall-clock time: the video replays history, and ages must be measured
// inside that history.
package inventory

import (
	"time"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
)

// ThroughputWindow is the trailing window for the merge throughput counter.
const ThroughputWindow = 30 * 24 * time.Hour

// FrameStats is the code-inventory snapshot after some prefix of the commit
// stream.
type FrameStats struct {
	// UnmergedCommits, UnmergedLines, and UnmergedFiles total the work
	// sitting on side branches that no merge has integrated yet.
	UnmergedCommits int
	UnmergedLines   int
	UnmergedFiles   int

	// ActiveBranches counts branches holding unmerged work whose latest
	// commit is within ThroughputWindow of now; StaleBranches counts the
	// rest.
	ActiveBranches int
	StaleBranches  int

	// IntegrationDebt is the sum over unmerged branches of lines x branch
	// age in days, where a branch's age runs from its first unmerged
	// commit. Old heavy branches dominate; fresh small ones barely
	// register.
	IntegrationDebt float64

	// DaysSinceRelease measures from the latest visible release tag on the
	// default branch, or from the first visible commit when no release has
	// happened yet.
	DaysSinceRelease float64

	// AwaitingRelease counts default-branch commits since the last release
	// tag.
	AwaitingRelease int

	// OldestUnmergedDays is the age of the oldest branch still holding
	// unmerged work, zero when nothing is unmerged.
	OldestUnmergedDays float64

	// MergeThroughput30d counts merges that landed within ThroughputWindow
	// of now.
	MergeThroughput30d int
}

// Table holds one FrameStats row per prefix length: Row(k) is the state
// with the first k commits visible. Immutable after Precompute.
type Table struct {
	rows []FrameStats
}

// Row returns the stats for a prefix of k visible commits. k is clamped to
// the table bounds.
func (t *Table) Row(k int) FrameStats {
	if k < 0 {
		k = 0
	}
	if k >= len(t.rows) {
		k = len(t.rows) - 1
	}
	return t.rows[k]
}

// Len returns the number of rows, which is one more than the commit count.
func (t *Table) Len() int { return len(t.rows) }

// Rows exposes the raw rows for serialization. The slice is shared, not
// copied; treat it as read-only.
func (t *Table) Rows() []FrameStats { return t.rows }

// FromRows rebuilds a table from serialized rows.
func FromRows(rows []FrameStats) *Table { return &Table{rows: rows} }

// branchPool accumulates a branch's unmerged work. A merge naming the
// branch as its source marks the pool merged permanently: its work leaves
// the snapshot and commits landing on the branch afterwards never count as
// unmerged again.
type branchPool struct {
	commits int
	lines   int
	files   int
	first   time.Time
	latest  time.Time
	merged  bool
}

func (p *branchPool) empty() bool { return p.commits == 0 }

// Precompute builds the full stats table for the commit stream.
//
// The pass maintains one pool of unmerged work per branch; each row is a
// snapshot scan over the pools (unmerged totals, debt, active/stale split,
// oldest branch), so the whole table costs O(commits x branches).
func Precompute(doc *ancestry.Document, tree *branchtree.Tree) *Table {
	n := len(doc.Commits)
	rows := make([]FrameStats, n+1)

	// Merge events keyed by the sha of the merge commit. Several merges can
	// land on one commit (octopus collectors), so the value is a slice.
	mergesBySHA := make(map[string][]ancestry.Merge, len(doc.Merges))
	for _, m := range doc.Merges {
		mergesBySHA[m.SHA] = append(mergesBySHA[m.SHA], m)
	}

	pools := make(map[string]*branchPool)
	var (
		lastRelease    time.Time
		releaseSeen    bool
		awaiting       int
		firstTimestamp time.Time

		mergeTimes []time.Time
		mergeStart int
	)

	for i := range doc.Commits {
		c := &doc.Commits[i]
		now := c.Timestamp
		if i == 0 {
			firstTimestamp = now
		}

		if c.Branch == tree.DefaultBranch {
			awaiting++
			if c.Tagged() {
				lastRelease = now
				releaseSeen = true
				awaiting = 0
			}
		} else {
			p := pools[c.Branch]
			if p == nil {
				p = &branchPool{}
				pools[c.Branch] = p
			}
			// A merged branch stays merged; later commits on it are
			// already integrated history, not new unmerged work.
			if !p.merged {
				if p.empty() {
					p.first = now
				}
				p.commits++
				p.lines += c.Lines()
				p.files += c.FilesChanged
				p.latest = now
			}
		}

		// Every matched merge counts toward throughput, whether or not the
		// source branch holds accumulated commits. The source branch is
		// marked merged permanently.
		for _, m := range mergesBySHA[c.SHA] {
			mergeTimes = append(mergeTimes, now)
			p := pools[m.FromBranch]
			if p == nil {
				p = &branchPool{}
				pools[m.FromBranch] = p
			}
			p.merged = true
		}

		// Slide the throughput window.
		for mergeStart < len(mergeTimes) && now.Sub(mergeTimes[mergeStart]) > ThroughputWindow {
			mergeStart++
		}

		row := FrameStats{
			AwaitingRelease:    awaiting,
			MergeThroughput30d: len(mergeTimes) - mergeStart,
		}

		if releaseSeen {
			row.DaysSinceRelease = days(now.Sub(lastRelease))
		} else {
			row.DaysSinceRelease = days(now.Sub(firstTimestamp))
		}

		var oldest time.Time
		for _, p := range pools {
			if p.merged || p.empty() {
				continue
			}
			row.UnmergedCommits += p.commits
			row.UnmergedLines += p.lines
			row.UnmergedFiles += p.files
			row.IntegrationDebt += float64(p.lines) * days(now.Sub(p.first))
			if now.Sub(p.latest) > branchtree.StaleAfter {
				row.StaleBranches++
			} else {
				row.ActiveBranches++
			}
			if oldest.IsZero() || p.first.Before(oldest) {
				oldest = p.first
			}
		}
		if !oldest.IsZero() {
			row.OldestUnmergedDays = days(now.Sub(oldest))
		}

		rows[i+1] = row
	}

	return &Table{rows: rows}
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}
