package storage

import (
	"bytes"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
)

// sniffSize is how many leading bytes are inspected for MIME detection
const sniffSize = 3072

// sniff reads the head of r and detects its MIME type. The returned reader replays the
// head followed by the rest of r.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, goerr.Wrap(err, "failed to read file head")
	}
	head = head[:n]
	if n == 0 {
		return "", nil, interfaces.ErrEmptyAttachment
	}

	mtype := mimetype.Detect(head)
	return mtype.String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// newKey returns a unique storage key
func newKey() string {
	return uuid.NewString()
}

// sanitizeName reduces an uploaded file name to a safe base name
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "attachment"
	}
	return name
}

// storedObjectPath is the permanent, slash-separated location of an attachment
func storedObjectPath(key, originalName string) string {
	return path.Join("attachments", key, sanitizeName(originalName))
}
