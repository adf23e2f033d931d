package cache

import "strings"

// ScopedKeyer wraps a Keyer with a fixed prefix so that several renderer
// versions can share one backend without colliding. Page hashes handed back
// to ArtifactKey and AnnotationsKey carry the prefix once; it is stripped
// before the inner keyer sees them.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "rmrender:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
// A nil inner keyer defaults to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PageKey(docID, pageID string, opts PageKeyOpts) string {
	return k.prefix + k.inner.PageKey(docID, pageID, opts)
}

func (k *ScopedKeyer) ArtifactKey(pageHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(strings.TrimPrefix(pageHash, k.prefix), opts)
}

func (k *ScopedKeyer) AnnotationsKey(pageHash string) string {
	return k.prefix + k.inner.AnnotationsKey(strings.TrimPrefix(pageHash, k.prefix))
}
