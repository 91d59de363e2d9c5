package treeviz

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
)

func buildTree(t *testing.T) *branchtree.Tree {
	t.Helper()
	day := func(n int) time.Time {
		return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	doc := &ancestry.Document{
		Branches: []ancestry.Branch{
			{Name: "main", IsDefault: true},
			{Name: "develop", Parent: "main"},
			{Name: "feature/x", Parent: "develop"},
		},
		Commits: []ancestry.Commit{
			{SHA: "a1", Branch: "main", Timestamp: day(0)},
			{SHA: "d1", Branch: "develop", Timestamp: day(1)},
			{SHA: "f1", Branch: "feature/x", Timestamp: day(2), Category: ancestry.CategoryConflict},
			{SHA: "a2", Branch: "main", Timestamp: day(60)},
		},
	}
	return branchtree.Build(doc)
}

func TestToDOTStructure(t *testing.T) {
	dot := ToDOT(buildTree(t), Options{})

	if !strings.HasPrefix(dot, "digraph branches {") {
		t.Error("missing digraph header")
	}
	for _, want := range []string{
		`"main" -> "develop";`,
		`"develop" -> "feature/x";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing edge %q", want)
		}
	}
	if strings.Contains(dot, "slot:") {
		t.Error("plain mode should not include slot annotations")
	}
}

func TestToDOTStyling(t *testing.T) {
	dot := ToDOT(buildTree(t), Options{Detailed: true})

	if !strings.Contains(dot, `"main" [label="main`) || !strings.Contains(dot, "#d4af37") {
		t.Error("default branch should be gold")
	}
	if !strings.Contains(dot, "#cd4841") {
		t.Error("conflicted branch should be red")
	}
	if !strings.Contains(dot, "slot: 0") {
		t.Error("detailed mode should include slot numbers")
	}
	if !strings.Contains(dot, "conflicts") {
		t.Error("detailed mode should flag conflicts")
	}
}

func TestToDOTStaleStyling(t *testing.T) {
	day := func(n int) time.Time {
		return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	doc := &ancestry.Document{
		Commits: []ancestry.Commit{
			{SHA: "a1", Branch: "main", Timestamp: day(0)},
			{SHA: "o1", Branch: "old", Timestamp: day(1)},
			{SHA: "a2", Branch: "main", Timestamp: day(50)},
		},
	}
	dot := ToDOT(branchtree.Build(doc), Options{})

	if !strings.Contains(dot, "dashed") {
		t.Error("stale branch should render dashed")
	}
}
