package form

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func imageNames(l *ImageList) []string {
	var out []string
	for _, img := range l.Items() {
		if img.Existing() {
			out = append(out, img.Ref)
			continue
		}
		out = append(out, img.Upload.Filename+"@"+img.Preview.ID)
	}
	return out
}

func TestImageListBounds(t *testing.T) {
	previewer := NewMemoryPreviewer()
	e := productEntity(t, WithPreviewer(previewer))
	images := e.Images()

	for i := 0; i < 5; i++ {
		if err := e.AddImage(NewUpload(fmt.Sprintf("img%d.jpg", i), []byte("jpg"))); err != nil {
			t.Fatalf("add image %d: %v", i, err)
		}
	}
	before := imageNames(images)

	if err := e.AddImage(NewUpload("sixth.jpg", []byte("jpg"))); !errors.Is(err, ErrImageLimit) {
		t.Fatalf("expected ErrImageLimit, got %v", err)
	}
	if images.Len() != 5 || previewer.Live() != 5 {
		t.Fatalf("list changed after limit: len=%d live=%d", images.Len(), previewer.Live())
	}
	if diff := cmp.Diff(before, imageNames(images)); diff != "" {
		t.Fatalf("items changed (-want +got):\n%s", diff)
	}
}

func TestImageListRejectsOversizedFile(t *testing.T) {
	previewer := NewMemoryPreviewer()
	e := productEntity(t, WithPreviewer(previewer))

	big := NewUpload("big.jpg", bytes.Repeat([]byte{1}, 5*1024*1024+1))
	if err := e.AddImage(big); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if e.Images().Len() != 0 || previewer.Live() != 0 {
		t.Fatalf("list changed after oversized add")
	}

	exact := NewUpload("exact.jpg", bytes.Repeat([]byte{1}, 5*1024*1024))
	if err := e.AddImage(exact); err != nil {
		t.Fatalf("file at the bound should be accepted: %v", err)
	}
}

func TestImageListRemoveTracksDeletedReferences(t *testing.T) {
	previewer := NewMemoryPreviewer()
	e := productEntity(t, WithPreviewer(previewer), WithStorageURL("https://cdn.example.com/storage/"))
	images := e.Images()
	images.AddExisting("produits/a.jpg")
	images.AddExisting("produits/b.jpg")
	if err := images.Add(NewUpload("new.jpg", []byte("x"))); err != nil {
		t.Fatalf("add: %v", err)
	}

	urls := images.PreviewURLs()
	if urls[0] != "https://cdn.example.com/storage/produits/a.jpg" {
		t.Fatalf("unexpected preview url %q", urls[0])
	}

	if err := images.Remove(2); err != nil {
		t.Fatalf("remove upload: %v", err)
	}
	if previewer.Live() != 0 {
		t.Fatalf("preview not released, live=%d", previewer.Live())
	}
	if err := images.Remove(0); err != nil {
		t.Fatalf("remove existing: %v", err)
	}
	if err := images.Remove(4); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}

	if diff := cmp.Diff([]string{"produits/a.jpg"}, images.Deleted()); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}
	if e.Tombstones().Len() != 0 {
		t.Fatalf("image deletions must not reach the tombstone tracker")
	}
}

func TestPreviewHandlesReleasedOnClose(t *testing.T) {
	previewer := NewMemoryPreviewer()
	for cycle := 0; cycle < 10; cycle++ {
		e := productEntity(t, WithPreviewer(previewer))
		for i := 0; i < 3; i++ {
			if err := e.AddImage(NewUpload("x.png", []byte("x"))); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
		if err := e.Images().Remove(0); err != nil {
			t.Fatalf("remove: %v", err)
		}
		e.Close()
	}
	if got := previewer.Live(); got != 0 {
		t.Fatalf("expected every handle released, %d live", got)
	}
}
