package form

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-editform/pkg/schema"
)

// Image is one element of an ImageList: either a stored reference or a new
// upload with its preview handle.
type Image struct {
	Ref     string
	Upload  *Upload
	Preview PreviewHandle
}

// Existing reports whether the image is already stored by the backend.
func (i Image) Existing() bool { return i.Upload == nil && i.Ref != "" }

// ImageList is a bounded, ordered image collection. Removed stored images
// are tracked by value in a deleted list distinct from the tombstones.
type ImageList struct {
	spec       schema.ImageList
	items      []Image
	deleted    []string
	previewer  Previewer
	storageURL string
}

func newImageList(spec schema.ImageList, previewer Previewer, storageURL string) *ImageList {
	if previewer == nil {
		previewer = NewMemoryPreviewer()
	}
	return &ImageList{
		spec:       spec,
		previewer:  previewer,
		storageURL: strings.TrimRight(storageURL, "/"),
	}
}

// Name returns the wire name of the list.
func (l *ImageList) Name() string { return l.spec.Name }

// Max returns the item bound.
func (l *ImageList) Max() int { return l.spec.Max }

// Len returns the number of images.
func (l *ImageList) Len() int { return len(l.items) }

// Full reports whether another image would exceed the bound.
func (l *ImageList) Full() bool { return len(l.items) >= l.spec.Max }

// Add appends a new upload. The list is left unchanged and ErrImageLimit or
// ErrImageTooLarge is returned when a bound would be exceeded; callers show
// the error as an alert.
func (l *ImageList) Add(u *Upload) error {
	if u == nil {
		return fmt.Errorf("form: nil upload")
	}
	if l.Full() {
		return fmt.Errorf("%w: at most %d images", ErrImageLimit, l.spec.Max)
	}
	if u.Size > l.spec.MaxBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrImageTooLarge, u.Filename, l.spec.MaxBytes)
	}
	handle, err := l.previewer.Acquire(u)
	if err != nil {
		return fmt.Errorf("form: preview %s: %w", u.Filename, err)
	}
	l.items = append(l.items, Image{Upload: u, Preview: handle})
	return nil
}

// AddExisting appends a reference to a stored image while hydrating an
// edit form. References beyond the bound are kept: the backend owns them.
func (l *ImageList) AddExisting(ref string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return
	}
	l.items = append(l.items, Image{Ref: ref})
}

// Remove drops the image at index. Stored references are recorded for
// deletion on save; upload previews are released.
func (l *ImageList) Remove(index int) error {
	if index < 0 || index >= len(l.items) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, l.spec.Name, index)
	}
	img := l.items[index]
	l.items = slices.Delete(l.items, index, index+1)
	if img.Existing() {
		if !slices.Contains(l.deleted, img.Ref) {
			l.deleted = append(l.deleted, img.Ref)
		}
		return nil
	}
	l.previewer.Release(img.Preview)
	return nil
}

// Items returns a copy of the images in order.
func (l *ImageList) Items() []Image {
	return append([]Image(nil), l.items...)
}

// Deleted returns the stored references removed during the session.
func (l *ImageList) Deleted() []string {
	return append([]string(nil), l.deleted...)
}

// PreviewURLs returns one preview target per image: the storage URL for
// stored references, the preview handle URL for uploads.
func (l *ImageList) PreviewURLs() []string {
	out := make([]string, 0, len(l.items))
	for _, img := range l.items {
		if img.Existing() {
			out = append(out, l.storageURL+"/"+strings.TrimLeft(img.Ref, "/"))
			continue
		}
		out = append(out, img.Preview.URL)
	}
	return out
}

// Close releases every live preview handle. The list stays usable.
func (l *ImageList) Close() {
	for i := range l.items {
		if l.items[i].Upload != nil && l.items[i].Preview.ID != "" {
			l.previewer.Release(l.items[i].Preview)
			l.items[i].Preview = PreviewHandle{}
		}
	}
}
