package load

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/rm"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// sceneAdapter turns a flat scene block stream into layers. Each tree node
// whose label differs from the current one seals the pending strokes under
// the current label and opens a new layer.
type sceneAdapter struct {
	logger  *log.Logger
	label   string
	pending []ink.Stroke
	sealed  []ink.Layer
}

func (a *sceneAdapter) seal() {
	a.sealed = append(a.sealed, ink.Layer{Name: a.label, Strokes: a.pending})
	a.pending = nil
}

func (a *sceneAdapter) group(label string) {
	if label == a.label {
		return
	}
	a.seal()
	a.label = label
}

func (a *sceneAdapter) line(id rm.CrdtID, l *rm.Line) error {
	if l == nil {
		return nil
	}
	if len(l.Points) == 0 {
		a.logger.Debug("skipping empty line", "item", id)
		return nil
	}
	s, err := ink.NewStroke(l.Tool, l.Color, l.ThicknessScale, ink.ToSegments(l.Points))
	if err != nil {
		return err
	}
	a.pending = append(a.pending, s)
	return nil
}

// finish seals the last layer and drops the first, which holds whatever came
// before the first tree node.
func (a *sceneAdapter) finish() []ink.Layer {
	a.seal()
	return a.sealed[1:]
}

// LayersFromBlocks converts a version 6 block stream into layers.
//
// Line items without a value are skipped; items with a value but no points
// are skipped with a debug entry. Blocks of other types are logged
// and skipped; documented types at debug level, unknown types as warnings.
func LayersFromBlocks(blocks []rm.Block, logger *log.Logger) ([]ink.Layer, error) {
	logger = orDiscard(logger)
	a := &sceneAdapter{logger: logger}
	for _, b := range blocks {
		switch b := b.(type) {
		case *rm.TreeNodeBlock:
			a.group(b.Label)
		case *rm.SceneLineItemBlock:
			if err := a.line(b.ItemID, b.Line); err != nil {
				return nil, rmerrors.Wrap(rmerrors.ErrCodeFormatMismatch, err, "line item %s", b.ItemID)
			}
		default:
			typ := b.BlockHeader().Type
			if typ.Known() {
				logger.Debug("skipping block", "kind", typ)
			} else {
				logger.Warn("skipping unknown block", "kind", typ, "code", rmerrors.ErrCodeUnknownBlockKind)
			}
		}
	}
	return a.finish(), nil
}

// NameLegacyLayers names legacy stroke lists from page metadata, falling back
// to "Layer N" when the metadata is missing or short.
func NameLegacyLayers(strokes [][]ink.Stroke, meta *PageMetadata) []ink.Layer {
	layers := make([]ink.Layer, len(strokes))
	for i, s := range strokes {
		name := meta.LayerName(i)
		if name == "" {
			name = ink.DefaultLayerName(i)
		}
		layers[i] = ink.Layer{Name: name, Strokes: s}
	}
	return layers
}

// MergeHighlights appends highlight strokes to the primary layers position by
// position. A nil highlight list returns primary unchanged; lists of different
// lengths are a FORMAT_MISMATCH.
func MergeHighlights(primary []ink.Layer, highlights [][]ink.Stroke) ([]ink.Layer, error) {
	if highlights == nil {
		return primary, nil
	}
	if len(highlights) != len(primary) {
		return nil, rmerrors.New(rmerrors.ErrCodeFormatMismatch,
			"highlight layers: got %d, page has %d", len(highlights), len(primary))
	}
	merged := make([]ink.Layer, len(primary))
	for i, l := range primary {
		strokes := make([]ink.Stroke, 0, len(l.Strokes)+len(highlights[i]))
		strokes = append(strokes, l.Strokes...)
		strokes = append(strokes, highlights[i]...)
		merged[i] = ink.Layer{Name: l.Name, Strokes: strokes}
	}
	return merged, nil
}
