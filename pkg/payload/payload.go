package payload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/goliatone/go-editform/pkg/form"
)

// Entry is one flat transport entry: a plain value or a file part.
type Entry struct {
	Key   string
	Value string
	File  *form.Upload
}

// IsFile reports whether the entry carries a binary upload.
func (e Entry) IsFile() bool { return e.File != nil }

// Payload is the ordered list of entries produced by Encode.
type Payload struct {
	entries []Entry
}

func (p *Payload) add(key, value string) {
	p.entries = append(p.entries, Entry{Key: key, Value: value})
}

func (p *Payload) addFile(key string, u *form.Upload) {
	p.entries = append(p.entries, Entry{Key: key, File: u})
}

// Len returns the number of entries.
func (p *Payload) Len() int { return len(p.entries) }

// Entries returns a copy of the entries in emission order.
func (p *Payload) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Values returns every plain value stored under key.
func (p *Payload) Values(key string) []string {
	var out []string
	for _, e := range p.entries {
		if e.Key == key && !e.IsFile() {
			out = append(out, e.Value)
		}
	}
	return out
}

// Get returns the first plain value stored under key.
func (p *Payload) Get(key string) string {
	for _, e := range p.entries {
		if e.Key == key && !e.IsFile() {
			return e.Value
		}
	}
	return ""
}

// Files returns every upload stored under key.
func (p *Payload) Files(key string) []*form.Upload {
	var out []*form.Upload
	for _, e := range p.entries {
		if e.Key == key && e.IsFile() {
			out = append(out, e.File)
		}
	}
	return out
}

// Has reports whether any entry uses key.
func (p *Payload) Has(key string) bool {
	for _, e := range p.entries {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Keys lists the distinct keys in first emission order.
func (p *Payload) Keys() []string {
	seen := make(map[string]struct{}, len(p.entries))
	out := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		out = append(out, e.Key)
	}
	return out
}

// KeysWithPrefix lists the distinct keys starting with prefix.
func (p *Payload) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, key := range p.Keys() {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}

// WriteMultipart streams the payload as multipart/form-data and returns the
// content type carrying the boundary. Upload open failures are returned
// here; nothing else can fail for a well formed payload.
func (p *Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, e := range p.entries {
		if !e.IsFile() {
			if err := mw.WriteField(e.Key, e.Value); err != nil {
				return "", fmt.Errorf("payload: write field %s: %w", e.Key, err)
			}
			continue
		}
		if err := writeFile(mw, e); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("payload: close multipart: %w", err)
	}
	return mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(mw *multipart.Writer, e Entry) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(e.Key), quoteEscaper.Replace(e.File.Filename)))
	contentType := e.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("payload: create part %s: %w", e.Key, err)
	}
	src, err := e.File.Open()
	if err != nil {
		return fmt.Errorf("payload: open %s: %w", e.File.Filename, err)
	}
	defer src.Close()
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("payload: copy %s: %w", e.File.Filename, err)
	}
	return nil
}
