package load

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// Source gives access to the files of one document. Names are slash-separated
// and may contain the placeholder "{ID}", which expands to the document id.
type Source interface {
	ID() string
	Exists(name string) bool
	ReadFile(name string) ([]byte, error)
	Close() error
}

func expand(id, name string) string {
	return strings.ReplaceAll(name, "{ID}", id)
}

func notFound(name string) error {
	return rmerrors.New(rmerrors.ErrCodeFileNotFound, "%s not found", name)
}

// =============================================================================
// Directory source
// =============================================================================

// DirSource reads an unpacked document: <dir>/<ID>.content next to <dir>/<ID>/.
type DirSource struct {
	dir string
	id  string
}

// NewDirSource returns a source for document id stored under dir.
func NewDirSource(dir, id string) (*DirSource, error) {
	if err := rmerrors.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	return &DirSource{dir: dir, id: id}, nil
}

func (s *DirSource) ID() string { return s.id }

func (s *DirSource) path(name string) (string, error) {
	rel := expand(s.id, name)
	if err := rmerrors.ValidatePath(rel); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(rel)), nil
}

func (s *DirSource) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (s *DirSource) ReadFile(name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, notFound(expand(s.id, name))
	}
	return data, err
}

func (s *DirSource) Close() error { return nil }

// =============================================================================
// Zip source
// =============================================================================

// ZipSource reads a packed document archive (.rmdoc).
type ZipSource struct {
	id     string
	closer io.Closer
	files  map[string]*zip.File

	mu sync.Mutex
}

// OpenZip opens a document archive. The document id is taken from the single
// top-level .content entry.
func OpenZip(name string) (*ZipSource, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, rmerrors.Wrap(rmerrors.ErrCodeInvalidFormat, err, "open archive %s", name)
	}
	s, err := newZipSource(&rc.Reader, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return s, nil
}

// NewZipSource reads a document archive from r.
func NewZipSource(r io.ReaderAt, size int64) (*ZipSource, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, rmerrors.Wrap(rmerrors.ErrCodeInvalidFormat, err, "read archive")
	}
	return newZipSource(zr, nil)
}

func newZipSource(zr *zip.Reader, closer io.Closer) (*ZipSource, error) {
	s := &ZipSource{closer: closer, files: make(map[string]*zip.File, len(zr.File))}
	var ids []string
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		s.files[name] = f
		if !strings.Contains(name, "/") && strings.HasSuffix(name, ".content") {
			ids = append(ids, strings.TrimSuffix(name, ".content"))
		}
	}
	if len(ids) != 1 {
		return nil, rmerrors.New(rmerrors.ErrCodeInvalidFormat,
			"archive must contain exactly one .content file, found %d", len(ids))
	}
	if err := rmerrors.ValidateDocumentID(ids[0]); err != nil {
		return nil, err
	}
	s.id = ids[0]
	return s, nil
}

func (s *ZipSource) ID() string { return s.id }

func (s *ZipSource) Exists(name string) bool {
	_, ok := s.files[expand(s.id, name)]
	return ok
}

func (s *ZipSource) ReadFile(name string) ([]byte, error) {
	full := expand(s.id, name)
	f, ok := s.files[full]
	if !ok {
		return nil, notFound(full)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *ZipSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// =============================================================================
// In-memory source
// =============================================================================

// MemSource holds a document in memory. Keys are fully expanded names.
type MemSource struct {
	DocID string
	Files map[string][]byte
}

func (s *MemSource) ID() string { return s.DocID }

func (s *MemSource) Exists(name string) bool {
	_, ok := s.Files[expand(s.DocID, name)]
	return ok
}

func (s *MemSource) ReadFile(name string) ([]byte, error) {
	full := expand(s.DocID, name)
	data, ok := s.Files[full]
	if !ok {
		return nil, notFound(full)
	}
	return data, nil
}

func (s *MemSource) Close() error { return nil }

// =============================================================================
// Opening by path
// =============================================================================

// Open returns a source for the document at p, which may be
//   - an archive (.rmdoc or .zip),
//   - a <ID>.content file,
//   - the <ID> page directory next to its .content file, or
//   - a directory holding exactly one .content file.
func Open(p string) (Source, error) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, rmerrors.New(rmerrors.ErrCodeFileNotFound, "%s does not exist", p)
		}
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(p))
	switch {
	case !info.IsDir() && (ext == ".rmdoc" || ext == ".zip"):
		return OpenZip(p)
	case !info.IsDir() && ext == ".content":
		return NewDirSource(filepath.Dir(p), strings.TrimSuffix(filepath.Base(p), ".content"))
	case !info.IsDir():
		return nil, rmerrors.New(rmerrors.ErrCodeInvalidInput, "%s is not a document (want .rmdoc, .content or a directory)", p)
	}

	clean := filepath.Clean(p)
	parent, base := filepath.Dir(clean), filepath.Base(clean)
	if _, err := os.Stat(filepath.Join(parent, base+".content")); err == nil {
		return NewDirSource(parent, base)
	}

	matches, err := filepath.Glob(filepath.Join(clean, "*.content"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	switch len(matches) {
	case 0:
		return nil, rmerrors.New(rmerrors.ErrCodeNotFound, "no .content file in %s", p)
	case 1:
		return NewDirSource(clean, strings.TrimSuffix(path.Base(filepath.ToSlash(matches[0])), ".content"))
	}
	return nil, rmerrors.New(rmerrors.ErrCodeInvalidInput,
		"%s holds %d documents; pass one .content file instead", p, len(matches))
}
