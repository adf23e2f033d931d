package load

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// BlankTemplate is the template name meaning "no background".
const BlankTemplate = "Blank"

// Template is a resolved background asset.
type Template struct {
	Name   string
	Path   string
	Data   []byte  // SVG document
	Width  float64 // intrinsic width in user units
	Height float64
}

// TemplateResolver finds template SVGs by name in a directory.
// The zero value resolves nothing.
type TemplateResolver struct {
	Dir string
}

// Resolve returns the template called name, or nil when it is blank, unknown
// or unreadable. A nil result is not an error; the page renders without a
// background.
func (r TemplateResolver) Resolve(name string) *Template {
	name = strings.TrimSpace(name)
	if r.Dir == "" || name == "" || name == BlankTemplate {
		return nil
	}
	if rmerrors.ValidateTemplateName(name) != nil {
		return nil
	}
	p := filepath.Join(r.Dir, name+".svg")
	data, err := os.ReadFile(p)
	if err != nil {
		return nil
	}
	w, h := svgSize(data)
	return &Template{Name: name, Path: p, Data: data, Width: w, Height: h}
}

// svgSize reads the intrinsic size from the root element, preferring
// width/height over the viewBox. Unknown sizes default to the device screen.
func svgSize(data []byte) (float64, float64) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ink.DeviceWidth, ink.DeviceHeight
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "svg" {
			continue
		}
		var w, h float64
		var vb []string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "width":
				w = parseLength(a.Value)
			case "height":
				h = parseLength(a.Value)
			case "viewBox":
				vb = strings.Fields(strings.ReplaceAll(a.Value, ",", " "))
			}
		}
		if (w <= 0 || h <= 0) && len(vb) == 4 {
			w = parseLength(vb[2])
			h = parseLength(vb[3])
		}
		if w <= 0 || h <= 0 {
			return ink.DeviceWidth, ink.DeviceHeight
		}
		return w, h
	}
}

func parseLength(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
