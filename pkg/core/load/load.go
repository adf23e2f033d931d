// Package load reads documents from disk and builds [ink.Page] values.
//
// Loading happens in two steps. [Document.ReadPage] gathers the raw files of
// one page (stroke file, metadata, highlights, template name) into a
// [PageInput]; [DecodePage] turns a PageInput into layers. Decoding is pure, so
// callers can hash a PageInput and cache whatever is derived from it.
//
// Files used per document, relative to its source:
//
//	{ID}.content                   page list and, for newer documents, templates
//	{ID}.pagedata                  one template name per page (legacy)
//	{ID}/<page>.rm                 strokes; falls back to {ID}/<index>.rm
//	{ID}/<page>-metadata.json      layer names (legacy)
//	{ID}.highlights/<page>.json    smart highlights
package load

import (
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/rm"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}

// Document is an opened document with its parsed page list.
type Document struct {
	Source  Source
	Content *Content
	Logger  *log.Logger // nil discards

	pagedata []string
}

// OpenDocument reads the content and pagedata files of src.
func OpenDocument(src Source) (*Document, error) {
	raw, err := src.ReadFile("{ID}.content")
	if err != nil {
		return nil, err
	}
	content, err := ParseContent(raw)
	if err != nil {
		return nil, err
	}
	d := &Document{Source: src, Content: content}
	if src.Exists("{ID}.pagedata") {
		if raw, err := src.ReadFile("{ID}.pagedata"); err == nil {
			d.pagedata = ParsePagedata(raw)
		}
	}
	return d, nil
}

// ID returns the document id.
func (d *Document) ID() string { return d.Source.ID() }

// PageCount returns the number of non-deleted pages.
func (d *Document) PageCount() int { return len(d.Content.Pages) }

// PageInput holds the raw inputs of one page. A nil Lines means the stroke
// file is missing.
type PageInput struct {
	Index      int
	ID         string
	Version    int
	Template   string
	Lines      []byte
	Metadata   []byte
	Highlights []byte
}

// ReadPage gathers the files of page index.
func (d *Document) ReadPage(index int) (*PageInput, error) {
	if index < 0 || index >= len(d.Content.Pages) {
		return nil, rmerrors.New(rmerrors.ErrCodeInvalidInput,
			"page %d out of range (document has %d)", index+1, len(d.Content.Pages))
	}
	ref := d.Content.Pages[index]
	in := &PageInput{Index: index, ID: ref.ID}

	// Exported documents number their page files; highlights keep the id.
	fileID := ref.ID
	if !d.Source.Exists("{ID}/" + fileID + ".rm") {
		fileID = strconv.Itoa(index)
	}

	if p := "{ID}/" + fileID + ".rm"; d.Source.Exists(p) {
		data, err := d.Source.ReadFile(p)
		if err != nil {
			return nil, err
		}
		in.Lines = data
		if in.Version, err = rm.ReadVersion(data); err != nil {
			// DecodePage reports the error; the template falls back to pagedata.
			orDiscard(d.Logger).Debug("unreadable page header", "page", index+1, "id", ref.ID, "err", err)
		}
	}
	if p := "{ID}/" + fileID + "-metadata.json"; d.Source.Exists(p) {
		data, err := d.Source.ReadFile(p)
		if err != nil {
			return nil, err
		}
		in.Metadata = data
	}
	if p := "{ID}.highlights/" + ref.ID + ".json"; d.Source.Exists(p) {
		data, err := d.Source.ReadFile(p)
		if err != nil {
			return nil, err
		}
		in.Highlights = data
	}

	if in.Version == ink.Version6 {
		in.Template = ref.Template
	} else {
		in.Template = PagedataTemplate(d.pagedata, index)
	}
	return in, nil
}

// DecodePage builds a page from its raw inputs.
//
// A missing stroke file yields a page with no layers and a warning. Malformed
// files and highlight/layer count mismatches are FORMAT_MISMATCH errors.
func DecodePage(in *PageInput, logger *log.Logger) (*ink.Page, error) {
	logger = orDiscard(logger)
	if in.Lines == nil {
		logger.Warn("page has no stroke file", "page", in.Index+1, "id", in.ID, "code", rmerrors.ErrCodeSourceMissing)
		return ink.NewPage(in.Index, in.ID, ink.VersionUnknown, in.Template, nil), nil
	}

	version, err := rm.ReadVersion(in.Lines)
	if err != nil {
		return nil, err
	}

	var layers []ink.Layer
	switch version {
	case ink.Version6:
		blocks, err := rm.ReadBlocks(in.Lines)
		if err != nil {
			return nil, err
		}
		if layers, err = LayersFromBlocks(blocks, logger); err != nil {
			return nil, err
		}
	default:
		_, strokes, err := rm.ReadLines(in.Lines)
		if err != nil {
			return nil, err
		}
		var meta *PageMetadata
		if in.Metadata != nil {
			if meta, err = ParsePageMetadata(in.Metadata); err != nil {
				logger.Warn("ignoring page metadata", "page", in.Index+1, "err", err)
				meta = nil
			}
		}
		layers = NameLegacyLayers(strokes, meta)
	}

	if in.Highlights != nil {
		hf, err := rm.ParseHighlights(in.Highlights)
		if err != nil {
			return nil, err
		}
		if layers, err = MergeHighlights(layers, rm.ReadHighlights(hf)); err != nil {
			return nil, err
		}
	}

	return ink.NewPage(in.Index, in.ID, version, in.Template, layers), nil
}

// LoadPage reads and decodes page index.
func (d *Document) LoadPage(index int, logger *log.Logger) (*ink.Page, error) {
	in, err := d.ReadPage(index)
	if err != nil {
		return nil, err
	}
	return DecodePage(in, logger)
}
