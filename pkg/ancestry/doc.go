// Package ancestry defines the input data model for commitreel.
//
// An ancestry document is produced by an external collector and contains
// repository metadata, branch declarations, a chronologically ordered commit
// list, and a merge list. The document is the single source of truth for all
// downstream computation: commits are never re-sorted, and every layout and
// metrics pass walks the commit slice in input order.
//
// # Loading
//
// Use [LoadFile] or [Load] to decode a document:
//
//	doc, err := ancestry.LoadFile("history.json")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(doc.DefaultBranch(), len(doc.Commits))
//
// Loading is deliberately lenient. A partial visualization is considered
// more useful than none, so malformed optional fields degrade to defaults
// instead of failing:
//   - missing numeric counters default to zero
//   - a missing or empty category defaults to "other"
//   - unparseable timestamps fall back to the Unix epoch sentinel
//   - an absent default-branch flag falls back to the branch named "main"
//
// Only structural problems (not a JSON object, commits not an array, commits
// without a sha) are reported as errors, via a JSON Schema check before
// decoding.
package ancestry
