package rm

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// HeaderSize is the length of the version header at the start of a page file.
const HeaderSize = 43

const headerPrefix = "reMarkable .lines file, version="

// Header returns the padded header for version v.
func Header(v int) []byte {
	h := headerPrefix + strconv.Itoa(v)
	return []byte(h + strings.Repeat(" ", HeaderSize-len(h)))
}

// ReadVersion parses the header of a page file and returns its schema version.
func ReadVersion(data []byte) (int, error) {
	if len(data) < HeaderSize {
		return ink.VersionUnknown, rmerrors.New(rmerrors.ErrCodeFormatMismatch,
			"page file too short for header: %d bytes", len(data))
	}
	h := data[:HeaderSize]
	if !bytes.HasPrefix(h, []byte(headerPrefix)) {
		return ink.VersionUnknown, rmerrors.New(rmerrors.ErrCodeUnsupportedVersion,
			"unrecognised page header %q", strings.TrimRight(string(h), " \x00"))
	}
	rest := strings.TrimRight(string(h[len(headerPrefix):]), " \x00")
	v, err := strconv.Atoi(rest)
	if err != nil {
		return ink.VersionUnknown, rmerrors.Wrap(rmerrors.ErrCodeUnsupportedVersion, err,
			"bad version %q", rest)
	}
	switch v {
	case ink.Version3, ink.Version5, ink.Version6:
		return v, nil
	}
	return v, rmerrors.New(rmerrors.ErrCodeUnsupportedVersion, "version %d not supported", v)
}

// truncated builds the error every reader returns for short input.
func truncated(what string, off int) error {
	return rmerrors.New(rmerrors.ErrCodeFormatMismatch, "truncated %s at offset %d", what, off)
}

func malformed(format string, args ...any) error {
	return rmerrors.New(rmerrors.ErrCodeFormatMismatch, "%s", fmt.Sprintf(format, args...))
}
