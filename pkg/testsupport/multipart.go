package testsupport

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

// FilePart is a decoded multipart file entry.
type FilePart struct {
	Filename    string
	ContentType string
	Content     string
}

// Form is a decoded multipart body. Values and Files keep the order in which
// parts were written for every key; Keys records the first appearance of
// each key.
type Form struct {
	Keys   []string
	Values map[string][]string
	Files  map[string][]FilePart
}

// Value returns the first plain value stored under key.
func (f Form) Value(key string) string {
	if vals := f.Values[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// KeysWithPrefix lists the keys starting with prefix in first appearance
// order.
func (f Form) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, key := range f.Keys {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}

// DecodeMultipart parses body using the boundary carried by contentType.
func DecodeMultipart(t *testing.T, contentType string, body []byte) Form {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart/form-data, got %s", mediaType)
	}

	out := Form{
		Values: make(map[string][]string),
		Files:  make(map[string][]FilePart),
	}
	seen := make(map[string]struct{})
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("read part %s: %v", part.FormName(), err)
		}
		name := part.FormName()
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out.Keys = append(out.Keys, name)
		}
		if part.FileName() != "" {
			out.Files[name] = append(out.Files[name], FilePart{
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Content:     string(data),
			})
			continue
		}
		out.Values[name] = append(out.Values[name], string(data))
	}
	return out
}

// DecodeRequest reads and decodes the multipart body of r. It is meant for
// httptest handlers standing in for the backend.
func DecodeRequest(t *testing.T, r *http.Request) Form {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read request body: %v", err)
	}
	return DecodeMultipart(t, r.Header.Get("Content-Type"), body)
}
