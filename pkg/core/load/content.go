package load

import (
	"encoding/json"
	"strings"

	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// Content is the parsed <ID>.content file: the ordered page list.
type Content struct {
	FileType string
	Pages    []PageRef
}

// PageRef identifies one page of a document.
type PageRef struct {
	Index    int    // 0-based position among non-deleted pages
	ID       string // page id; names the page's files
	Template string // template recorded in the content file (newer documents)
}

type contentFile struct {
	FileType string   `json:"fileType"`
	Pages    []string `json:"pages"`
	CPages   *struct {
		Pages []struct {
			ID       string      `json:"id"`
			Template *lwwString  `json:"template"`
			Deleted  *lwwNumeric `json:"deleted"`
		} `json:"pages"`
	} `json:"cPages"`
}

type lwwString struct {
	Value string `json:"value"`
}

type lwwNumeric struct {
	Value int `json:"value"`
}

// ParseContent decodes a content file. Newer files list pages under
// cPages.pages with per-page templates and tombstones; older files carry a
// plain pages array. Deleted pages are dropped.
func ParseContent(data []byte) (*Content, error) {
	var f contentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, rmerrors.Wrap(rmerrors.ErrCodeFormatMismatch, err, "decode content file")
	}

	c := &Content{FileType: f.FileType}
	add := func(id, template string) error {
		if err := rmerrors.ValidatePageID(id); err != nil {
			return err
		}
		c.Pages = append(c.Pages, PageRef{Index: len(c.Pages), ID: id, Template: template})
		return nil
	}

	if f.CPages != nil && len(f.CPages.Pages) > 0 {
		for _, p := range f.CPages.Pages {
			if p.Deleted != nil && p.Deleted.Value != 0 {
				continue
			}
			tmpl := ""
			if p.Template != nil {
				tmpl = p.Template.Value
			}
			if err := add(p.ID, tmpl); err != nil {
				return nil, err
			}
		}
		return c, nil
	}

	for _, id := range f.Pages {
		if err := add(id, ""); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// PageMetadata is the optional <ID>/<page>-metadata.json file.
type PageMetadata struct {
	Layers []struct {
		Name string `json:"name"`
	} `json:"layers"`
}

// ParsePageMetadata decodes a page metadata file.
func ParsePageMetadata(data []byte) (*PageMetadata, error) {
	var m PageMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, rmerrors.Wrap(rmerrors.ErrCodeFormatMismatch, err, "decode page metadata")
	}
	return &m, nil
}

// LayerName returns the name of layer i, or "" when the metadata does not
// name it.
func (m *PageMetadata) LayerName(i int) string {
	if m == nil || i < 0 || i >= len(m.Layers) {
		return ""
	}
	return m.Layers[i].Name
}

// ParsePagedata splits a .pagedata file into one template name per page.
func ParsePagedata(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// PagedataTemplate picks the template for page index from a .pagedata list.
// An index past the end takes the last listed name; the device sometimes
// stops recording templates for later pages.
func PagedataTemplate(names []string, index int) string {
	if len(names) == 0 {
		return ""
	}
	index = max(0, min(index, len(names)-1))
	return strings.TrimSpace(names[index])
}
