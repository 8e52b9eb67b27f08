package form

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Upload is a new, not yet persisted binary payload. The content is opened
// on demand so a failed submission can be retried with the same upload.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

// NewUpload wraps an in-memory payload.
func NewUpload(filename string, data []byte) *Upload {
	buf := append([]byte(nil), data...)
	return &Upload{
		Filename:    filepath.Base(filename),
		ContentType: contentType(filename),
		Size:        int64(len(buf)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		},
	}
}

// UploadFromFile references a file on disk. The file is only read when the
// payload is written.
func UploadFromFile(path string) (*Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("form: stat upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("form: upload %s is a directory", path)
	}
	return &Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType(path),
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Open returns a fresh reader over the upload content.
func (u *Upload) Open() (io.ReadCloser, error) {
	if u == nil || u.open == nil {
		return nil, fmt.Errorf("form: upload has no content")
	}
	return u.open()
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Attachment is a single file field. It holds either a reference to an asset
// the backend already stores or a new upload, never both. Delete records the
// intent to drop the stored asset and is independent of the other two.
type Attachment struct {
	existing string
	upload   *Upload
	Delete   bool
}

// SetExisting stores a reference to a persisted asset and clears any
// pending upload.
func (a *Attachment) SetExisting(ref string) {
	a.existing = strings.TrimSpace(ref)
	a.upload = nil
}

// SetUpload stages a new payload and clears the existing reference.
func (a *Attachment) SetUpload(u *Upload) {
	a.upload = u
	a.existing = ""
}

// Clear drops both the reference and the upload.
func (a *Attachment) Clear() {
	a.existing = ""
	a.upload = nil
}

// Existing returns the stored reference, if any.
func (a *Attachment) Existing() string { return a.existing }

// Upload returns the staged upload, if any.
func (a *Attachment) Upload() *Upload { return a.upload }

// HasUpload reports whether a new payload is staged.
func (a *Attachment) HasUpload() bool { return a.upload != nil }
