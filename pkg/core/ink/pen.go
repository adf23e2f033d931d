package ink

import "fmt"

// PenKind is the raw tool code stored with a stroke.
type PenKind int

// Known pen codes. Codes 0-8 come from the first device generation; 12-21 are
// the second-generation variants of the same tools.
const (
	PenBrush1            PenKind = 0
	PenPencil1           PenKind = 1
	PenBallpoint1        PenKind = 2
	PenMarker1           PenKind = 3
	PenFineliner1        PenKind = 4
	PenHighlighter1      PenKind = 5
	PenEraser            PenKind = 6
	PenMechanicalPencil1 PenKind = 7
	PenEraseArea         PenKind = 8
	PenBrush2            PenKind = 12
	PenMechanicalPencil2 PenKind = 13
	PenPencil2           PenKind = 14
	PenBallpoint2        PenKind = 15
	PenMarker2           PenKind = 16
	PenFineliner2        PenKind = 17
	PenHighlighter2      PenKind = 18
	PenCalligraphy       PenKind = 21
)

var penNames = map[PenKind]string{
	PenBrush1:            "brush",
	PenPencil1:           "pencil",
	PenBallpoint1:        "ballpoint",
	PenMarker1:           "marker",
	PenFineliner1:        "fineliner",
	PenHighlighter1:      "highlighter",
	PenEraser:            "eraser",
	PenMechanicalPencil1: "mechanical-pencil",
	PenEraseArea:         "erase-area",
	PenBrush2:            "brush",
	PenMechanicalPencil2: "mechanical-pencil",
	PenPencil2:           "pencil",
	PenBallpoint2:        "ballpoint",
	PenMarker2:           "marker",
	PenFineliner2:        "fineliner",
	PenHighlighter2:      "highlighter",
	PenCalligraphy:       "calligraphy",
}

// String returns the tool name, or "pen(N)" for unknown codes.
func (p PenKind) String() string {
	if name, ok := penNames[p]; ok {
		return name
	}
	return fmt.Sprintf("pen(%d)", int(p))
}

// Known reports whether p is one of the documented pen codes.
func (p PenKind) Known() bool {
	_, ok := penNames[p]
	return ok
}

// ColorCode is the raw colour index stored with a stroke.
type ColorCode int

// Colour codes as written by the device.
const (
	ColorBlack  ColorCode = 0
	ColorGray   ColorCode = 1
	ColorWhite  ColorCode = 2
	ColorYellow ColorCode = 3
	ColorGreen  ColorCode = 4
	ColorPink   ColorCode = 5
	ColorBlue   ColorCode = 6
	ColorRed    ColorCode = 7
)
