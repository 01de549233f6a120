package cache

// ScopedKeyer wraps a Keyer with a prefix so several tools or format
// versions can share one backend without reading each other's entries.
//
// Example usage:
//
//	// Entries written by this bitstream version only
//	k := NewScopedKeyer(NewDefaultKeyer(), "v0.0.1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ScanKey generates a prefixed scan key.
func (k *ScopedKeyer) ScanKey(contentHash string, opts ScanKeyOpts) string {
	return k.prefix + k.inner.ScanKey(contentHash, opts)
}

// CapacityKey generates a prefixed capacity key.
func (k *ScopedKeyer) CapacityKey(contentHash string) string {
	return k.prefix + k.inner.CapacityKey(contentHash)
}
