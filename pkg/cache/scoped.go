package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving tenants or
// environments that share one Redis their own namespace.
//
//	keyer := cache.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SceneKey implements Keyer.
func (k *ScopedKeyer) SceneKey(opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}
