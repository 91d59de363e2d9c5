package ancestry

import "time"

// Commit categories recognized by the renderer. Anything else is bucketed
// into CategoryOther at load time.
const (
	CategoryFeature  = "feature"
	CategoryBugfix   = "bugfix"
	CategoryRelease  = "release"
	CategoryRefactor = "refactor"
	CategoryDocs     = "docs"
	CategoryCI       = "ci"
	CategoryTest     = "test"
	CategoryMerge    = "merge"
	CategorySquash   = "squash"
	CategoryConflict = "conflict"
	CategoryOther    = "other"
)

// FallbackDefaultBranch is used when no branch carries the default flag.
const FallbackDefaultBranch = "main"

// Categories lists all recognized categories in legend order.
var Categories = []string{
	CategoryFeature, CategoryBugfix, CategoryRelease, CategoryRefactor,
	CategoryDocs, CategoryCI, CategoryTest, CategoryMerge, CategorySquash,
	CategoryConflict, CategoryOther,
}

// DateRange is the collection window recorded by the collector.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Metadata describes the repository the document was collected from.
type Metadata struct {
	Repo        string    `json:"repo"`
	DateRange   DateRange `json:"date_range"`
	GeneratedAt string    `json:"generated_at"`
}

// Branch declares a branch by name. At most one branch should carry the
// default flag; Parent optionally names the branch this one diverged from.
type Branch struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Parent    string `json:"parent,omitempty"`
}

// Commit is one node in the history. Immutable once loaded; downstream
// computations reference commits by pointer or index, never by copy.
type Commit struct {
	SHA          string    `json:"sha"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Branch       string    `json:"branch"`
	Message      string    `json:"message"`
	Parents      []string  `json:"parents"`
	Tags         []string  `json:"tags"`
	Insertions   int       `json:"insertions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
	Category     string    `json:"category"`
}

// Lines returns the total changed line count of the commit.
func (c *Commit) Lines() int { return c.Insertions + c.Deletions }

// Tagged reports whether the commit carries at least one release tag.
func (c *Commit) Tagged() bool { return len(c.Tags) > 0 }

// Merge records that the commit identified by SHA merged FromBranch into
// ToBranch. Merges are matched against commits by SHA; a merge whose SHA
// never appears among the commits produces no visible curve.
type Merge struct {
	SHA        string    `json:"sha"`
	FromBranch string    `json:"from_branch"`
	ToBranch   string    `json:"to_branch"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuthorEntry is one row of the top-authors table.
type AuthorEntry struct {
	Author  string `json:"author"`
	Commits int    `json:"commits"`
}

// ReleaseCycleStats summarizes intervals between tagged releases.
type ReleaseCycleStats struct {
	Count     int     `json:"count"`
	MeanDays  float64 `json:"mean_days"`
	MinDays   float64 `json:"min_days"`
	MaxDays   float64 `json:"max_days"`
	StdevDays float64 `json:"stdev_days"`
}

// LatencySample is a single measured interval, labelled by the category of
// the work it measures.
type LatencySample struct {
	Days     float64 `json:"days"`
	Category string  `json:"category"`
	Label    string  `json:"label,omitempty"`
}

// BranchLifespan records how long a branch lived and how it ended.
type BranchLifespan struct {
	Branch  string    `json:"branch"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Merged  bool      `json:"merged"`
	Commits int       `json:"commits"`
}

// WeeklyVelocity is one week of commit volume.
type WeeklyVelocity struct {
	WeekStart time.Time `json:"week_start"`
	Commits   int       `json:"commits"`
	Lines     int       `json:"lines"`
}

// ChangeFlow carries the precomputed aggregate metrics consumed by the
// static chart renderers. commitreel never derives these itself; the
// collector computes them and the charts only draw what is present.
type ChangeFlow struct {
	CommitToRelease []LatencySample     `json:"commit_to_release"`
	MergeLatency    []LatencySample     `json:"merge_latency"`
	BranchLifespans []BranchLifespan    `json:"branch_lifespans"`
	WeeklyVelocity  []WeeklyVelocity    `json:"weekly_velocity"`
	ReleaseDates    []time.Time         `json:"release_dates"`
	Disposition     map[string]int      `json:"disposition"`
}

// Statistics is the optional aggregate block appended by the collector.
type Statistics struct {
	TotalCommits   int                `json:"total_commits"`
	DateSpanDays   int                `json:"date_span_days"`
	CommitsPerWeek float64            `json:"commits_per_week"`
	UniqueAuthors  int                `json:"unique_authors"`
	ByCategory     map[string]int     `json:"by_category"`
	ByBranch       map[string]int     `json:"by_branch"`
	TopAuthors     []AuthorEntry      `json:"top_authors"`
	ReleaseCycles  ReleaseCycleStats  `json:"release_cycles"`
	ChangeFlow     *ChangeFlow        `json:"change_flow,omitempty"`
}

// Document is a complete loaded ancestry document.
//
// The commit slice is in authoritative chronological order. All downstream
// passes iterate it forward exactly once and use the slice index as the
// commit's position on the time axis.
type Document struct {
	Metadata   Metadata    `json:"metadata"`
	Branches   []Branch    `json:"branches"`
	Commits    []Commit    `json:"commits"`
	Merges     []Merge     `json:"merges"`
	Statistics *Statistics `json:"statistics,omitempty"`
}

// DefaultBranch returns the name of the branch flagged as default, or
// FallbackDefaultBranch when none is flagged.
func (d *Document) DefaultBranch() string {
	for _, b := range d.Branches {
		if b.IsDefault {
			return b.Name
		}
	}
	return FallbackDefaultBranch
}

// BranchParent returns the declared parent of the named branch, or the
// empty string when the branch is unknown or declares no parent.
func (d *Document) BranchParent(name string) string {
	for _, b := range d.Branches {
		if b.Name == name {
			return b.Parent
		}
	}
	return ""
}
