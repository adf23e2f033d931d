package cli

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/rm"
	"github.com/matzehuels/rmrender/pkg/core/rm/rmtest"
)

const testDocID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func testStroke(t *testing.T, pen ink.PenKind, color ink.ColorCode, segs ...ink.Segment) ink.Stroke {
	t.Helper()
	s, err := ink.NewStroke(pen, color, 2, segs)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// testPageFile is a version 5 page with one pen stroke and one highlight.
func testPageFile(t *testing.T) []byte {
	t.Helper()
	pen := testStroke(t, ink.PenFineliner1, ink.ColorBlack,
		ink.Segment{X: 100, Y: 100, Width: 2, Pressure: 1},
		ink.Segment{X: 300, Y: 200, Width: 2, Pressure: 1})
	hl := testStroke(t, ink.PenHighlighter1, ink.ColorYellow,
		ink.Segment{X: 100, Y: 400, Width: 30},
		ink.Segment{X: 600, Y: 400, Width: 30})
	return rmtest.Lines(ink.Version5, []ink.Stroke{pen, hl})
}

// testDocFiles returns the files of a two-page document. The second page is
// truncated when corrupt is set.
func testDocFiles(t *testing.T, corrupt bool) map[string][]byte {
	t.Helper()
	second := testPageFile(t)
	if corrupt {
		second = append(rm.Header(ink.Version5), 1, 0, 0, 0)
	}
	return map[string][]byte{
		testDocID + ".content": []byte(`{"pages":["p1","p2"]}`),
		testDocID + "/p1.rm":   testPageFile(t),
		testDocID + "/p2.rm":   second,
	}
}

// testArchive packs the test document as an .rmdoc archive.
func testArchive(t *testing.T, corrupt bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range testDocFiles(t, corrupt) {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeTestDoc lays out the test document in a fresh directory and returns
// the directory.
func writeTestDoc(t *testing.T, corrupt bool) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range testDocFiles(t, corrupt) {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
