package cache

// Keyer builds cache keys for each kind of cached result.
type Keyer interface {
	// ScanKey addresses the metadata extracted from one image file.
	ScanKey(contentHash string, opts ScanKeyOpts) string

	// CapacityKey addresses the capacity report of one image file.
	CapacityKey(contentHash string) string
}

// ScanKeyOpts are the extraction options that change a scan result.
type ScanKeyOpts struct {
	ParamsOnly bool `json:"params_only"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ScanKey hashes the content hash together with the options.
func (DefaultKeyer) ScanKey(contentHash string, opts ScanKeyOpts) string {
	return hashKey("scan", contentHash, opts)
}

// CapacityKey returns "capacity:<hash>".
func (DefaultKeyer) CapacityKey(contentHash string) string {
	return "capacity:" + contentHash
}
