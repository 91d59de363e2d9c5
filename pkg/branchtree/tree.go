// Package branchtree derives a deterministic traversal order over branches.
//
// The order depends only on structural branch data (names, parent links) and
// the commit stream, never on render state, so the tree is computed once and
// shared read-only by the layout engine, the metrics window, and the
// diagram exporter. Identical input always produces identical slot, color,
// and label assignment.
//
// Traversal is depth-first, parent before children, with the children of
// each parent visited in alphabetical order. The default branch holds slot
// 0; every non-default branch gets its slot from its position in the
// traversal. Branches whose declared parent is missing or unknown are
// treated as direct children of the default branch.
package branchtree

import (
	"sort"
	"time"

	"github.com/matzehuels/commitreel/pkg/ancestry"
)

// StaleAfter is how far a never-merged branch's last commit may trail the
// most recent commit in the whole history before the branch is considered
// abandoned.
const StaleAfter = 30 * 24 * time.Hour

// Info is the structural summary for one branch.
type Info struct {
	Name string
	// Slot is the branch's stable position in the deterministic traversal.
	// The default branch is slot 0.
	Slot int
	// Parent is the resolved parent branch name. Empty for the default
	// branch; unresolvable declarations resolve to the default branch.
	Parent string
	// HasConflicts is set when any commit on the branch carries the
	// "conflict" category. The classification is branch-wide: it applies
	// to every commit on the branch, including ones before the conflicting
	// commit appeared.
	HasConflicts bool
	// IsStale is set for never-merged, non-default branches whose last
	// commit trails the global last commit by more than StaleAfter.
	IsStale bool
	// Merged is set when any merge event names this branch as its source.
	// The default branch is always merged.
	Merged bool
}

// Tree is the deterministic branch ordering plus per-branch classification.
type Tree struct {
	// DefaultBranch is the resolved trunk name ("main" when no branch is
	// flagged default).
	DefaultBranch string
	// Order lists all branches that have at least one commit, default
	// branch first, then non-default branches in DFS traversal order.
	Order []string

	infos map[string]*Info
}

// Build constructs the branch tree from the document.
//
// Only branches that appear on at least one commit participate in the
// traversal; declared-but-empty branches would otherwise consume slots and
// shift colors between collector runs. Branches that appear on commits but
// were never declared are included, parented to the default branch.
func Build(doc *ancestry.Document) *Tree {
	def := doc.DefaultBranch()

	// Branches observed on commits, with last-commit bookkeeping for
	// staleness.
	lastSeen := make(map[string]time.Time)
	conflicts := make(map[string]bool)
	var globalLast time.Time
	for i := range doc.Commits {
		c := &doc.Commits[i]
		if c.Timestamp.After(lastSeen[c.Branch]) {
			lastSeen[c.Branch] = c.Timestamp
		}
		if c.Timestamp.After(globalLast) {
			globalLast = c.Timestamp
		}
		if c.Category == ancestry.CategoryConflict {
			conflicts[c.Branch] = true
		}
	}

	merged := make(map[string]bool)
	merged[def] = true
	for _, m := range doc.Merges {
		merged[m.FromBranch] = true
	}

	// children maps parent -> sorted child names. A branch with a missing
	// or unknown parent hangs off the default branch.
	known := make(map[string]bool, len(lastSeen))
	for name := range lastSeen {
		known[name] = true
	}

	parentOf := make(map[string]string)
	children := make(map[string][]string)
	for name := range lastSeen {
		if name == def {
			continue
		}
		parent := doc.BranchParent(name)
		if parent == "" || parent == name || !known[parent] {
			parent = def
		}
		parentOf[name] = parent
		children[parent] = append(children[parent], name)
	}
	for _, kids := range children {
		sort.Strings(kids)
	}

	t := &Tree{
		DefaultBranch: def,
		infos:         make(map[string]*Info, len(lastSeen)),
	}

	// The default branch anchors the traversal even when it carries no
	// commits: orphan branches still need a root to hang from.
	t.Order = append(t.Order, def)
	t.infos[def] = &Info{Name: def, Slot: 0, Merged: true}

	var walk func(parent string)
	walk = func(parent string) {
		for _, name := range children[parent] {
			t.infos[name] = &Info{
				Name:         name,
				Slot:         len(t.Order),
				Parent:       parent,
				HasConflicts: conflicts[name],
				Merged:       merged[name],
				IsStale:      !merged[name] && globalLast.Sub(lastSeen[name]) > StaleAfter,
			}
			t.Order = append(t.Order, name)
			walk(name)
		}
	}
	walk(def)

	// Parent cycles (a→b→a in the declarations) are unreachable from the
	// root. Re-parent anything left over to the default branch so every
	// commit-bearing branch holds a slot.
	if len(t.Order) < len(known) {
		var orphans []string
		for name := range known {
			if t.infos[name] == nil {
				orphans = append(orphans, name)
			}
		}
		sort.Strings(orphans)
		for _, name := range orphans {
			t.infos[name] = &Info{
				Name:         name,
				Slot:         len(t.Order),
				Parent:       def,
				HasConflicts: conflicts[name],
				Merged:       merged[name],
				IsStale:      !merged[name] && globalLast.Sub(lastSeen[name]) > StaleAfter,
			}
			t.Order = append(t.Order, name)
		}
	}

	return t
}

// Lookup returns the Info for the named branch, or nil when the branch is
// unknown to the tree.
func (t *Tree) Lookup(name string) *Info {
	return t.infos[name]
}

// NonDefault returns the traversal order without the leading default
// branch.
func (t *Tree) NonDefault() []string {
	if len(t.Order) == 0 {
		return nil
	}
	return t.Order[1:]
}

// Len returns the number of branches in the traversal, including the
// default branch.
func (t *Tree) Len() int { return len(t.Order) }
