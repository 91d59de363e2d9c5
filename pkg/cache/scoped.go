package cache

// ScopedKeyer wraps a Keyer with a namespace prefix. The serve mode uses
// it to keep concurrently hosted repositories out of each other's keys.
//
//	repoKeyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "repo:acme/widgets:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every generated
// key. A nil inner keyer falls back to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(docHash string) string {
	return k.prefix + k.inner.DocumentKey(docHash)
}

// StatsKey generates a prefixed stats-table key.
func (k *ScopedKeyer) StatsKey(docHash string) string {
	return k.prefix + k.inner.StatsKey(docHash)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(docHash, opts)
}

// ChartKey generates a prefixed dashboard key.
func (k *ScopedKeyer) ChartKey(docHash string) string {
	return k.prefix + k.inner.ChartKey(docHash)
}
