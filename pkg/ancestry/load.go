package ancestry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/matzehuels/commitreel/pkg/errors"
)

// documentSchema checks gross document structure only. Field-level problems
// (bad timestamps, unknown categories, negative counters) are recovered with
// defaults during decoding, never rejected.
const documentSchema = `{
  "type": "object",
  "required": ["commits"],
  "properties": {
    "metadata": {"type": "object"},
    "branches": {
      "type": "array",
      "items": {"type": "object", "required": ["name"]}
    },
    "commits": {
      "type": "array",
      "items": {"type": "object", "required": ["sha", "branch"]}
    },
    "merges": {
      "type": "array",
      "items": {"type": "object", "required": ["sha", "from_branch", "to_branch"]}
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("ancestry: invalid embedded schema: %v", err))
	}
	return s
}

// epochSentinel replaces timestamps that are absent or unparseable. The
// epoch is recognizable in output and sorts before any real commit.
var epochSentinel = time.Unix(0, 0).UTC()

// Wire types decode the raw JSON before defaulting is applied. Timestamps
// arrive as strings so a malformed value can degrade instead of failing the
// whole decode.
type wireCommit struct {
	SHA          string   `json:"sha"`
	Author       string   `json:"author"`
	Timestamp    string   `json:"timestamp"`
	Branch       string   `json:"branch"`
	Message      string   `json:"message"`
	Parents      []string `json:"parents"`
	Tags         []string `json:"tags"`
	Insertions   int      `json:"insertions"`
	Deletions    int      `json:"deletions"`
	FilesChanged int      `json:"files_changed"`
	Category     string   `json:"category"`
}

type wireMerge struct {
	SHA        string `json:"sha"`
	FromBranch string `json:"from_branch"`
	ToBranch   string `json:"to_branch"`
	Timestamp  string `json:"timestamp"`
}

type wireDocument struct {
	Metadata   Metadata    `json:"metadata"`
	Branches   []Branch    `json:"branches"`
	Commits    []wireCommit `json:"commits"`
	Merges     []wireMerge  `json:"merges"`
	Statistics *Statistics  `json:"statistics"`
}

// Load decodes an ancestry document from r.
//
// The raw bytes are validated against the structural schema first; schema
// violations return an INVALID_INPUT error listing the offending paths.
// After validation, decoding applies the lenient defaults described in the
// package documentation.
func Load(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ancestry document: %w", err)
	}

	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "ancestry document is not valid JSON")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"ancestry document failed schema validation: %s", strings.Join(details, "; "))
	}

	var wire wireDocument
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode ancestry document")
	}

	return fromWire(&wire), nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "ancestry document %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// fromWire converts the raw wire document into the defaulted model.
func fromWire(w *wireDocument) *Document {
	doc := &Document{
		Metadata:   w.Metadata,
		Branches:   w.Branches,
		Commits:    make([]Commit, len(w.Commits)),
		Merges:     make([]Merge, 0, len(w.Merges)),
		Statistics: w.Statistics,
	}

	for i, wc := range w.Commits {
		doc.Commits[i] = Commit{
			SHA:          wc.SHA,
			Author:       wc.Author,
			Timestamp:    parseTime(wc.Timestamp),
			Branch:       wc.Branch,
			Message:      wc.Message,
			Parents:      wc.Parents,
			Tags:         wc.Tags,
			Insertions:   clampNonNegative(wc.Insertions),
			Deletions:    clampNonNegative(wc.Deletions),
			FilesChanged: clampNonNegative(wc.FilesChanged),
			Category:     normalizeCategory(wc.Category),
		}
	}

	for _, wm := range w.Merges {
		doc.Merges = append(doc.Merges, Merge{
			SHA:        wm.SHA,
			FromBranch: wm.FromBranch,
			ToBranch:   wm.ToBranch,
			Timestamp:  parseTime(wm.Timestamp),
		})
	}

	return doc
}

// parseTime accepts RFC 3339 with or without sub-second precision, plus the
// collector's date-only form. Anything else degrades to the epoch sentinel.
func parseTime(s string) time.Time {
	if s == "" {
		return epochSentinel
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return epochSentinel
}

var knownCategories = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// normalizeCategory lowercases the category and buckets unknown values into
// CategoryOther.
func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if knownCategories[c] {
		return c
	}
	return CategoryOther
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
