package cache

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// PageKey identifies the decoded inputs of one page.
	PageKey(docID, pageID string, opts PageKeyOpts) string

	// ArtifactKey identifies one rendered output of a page.
	ArtifactKey(pageHash string, opts ArtifactKeyOpts) string

	// AnnotationsKey identifies the clustered annotation groups of a page.
	AnnotationsKey(pageHash string) string
}

// PageKeyOpts holds the inputs that change how a page decodes.
type PageKeyOpts struct {
	SourceHash     string `json:"source"`               // hash of the .rm bytes
	HighlightsHash string `json:"highlights,omitempty"` // hash of the highlights JSON
	Template       string `json:"template,omitempty"`
}

// ArtifactKeyOpts holds the options that change rendered output.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	TemplateAlpha float64 `json:"template_alpha"`
	TemplateHash  string  `json:"template_hash,omitempty"` // hash of the template SVG drawn
}

// DefaultKeyer produces content-addressed keys with a stage prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PageKey returns "page:<hash>".
func (DefaultKeyer) PageKey(docID, pageID string, opts PageKeyOpts) string {
	return hashKey("page", docID, pageID, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(pageHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", pageHash, opts)
}

// AnnotationsKey returns "annotations:<hash>".
func (DefaultKeyer) AnnotationsKey(pageHash string) string {
	return hashKey("annotations", pageHash)
}

var _ Keyer = DefaultKeyer{}
