package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	data, err := Archive([]Entry{
		{Name: "story.json", Data: []byte(`{"title":"The Dragon"}`)},
		{Name: "image-01.png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("archive holds %d files, want 2", len(reader.File))
	}
	if got := reader.File[0].Name; got != "story.json" {
		t.Fatalf("first entry = %q, want story.json", got)
	}

	rc, err := reader.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(content) != `{"title":"The Dragon"}` {
		t.Fatalf("entry content = %q", content)
	}
}

func TestArchiveSkipsUnusableEntries(t *testing.T) {
	data, err := Archive([]Entry{
		{Name: "", Data: []byte("nameless")},
		{Name: "empty.png"},
		{Name: "kept.txt", Data: []byte("kept")},
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 1 {
		t.Fatalf("archive holds %d files, want 1", len(reader.File))
	}
	if got := reader.File[0].Name; got != "kept.txt" {
		t.Fatalf("entry = %q, want kept.txt", got)
	}
}

func TestArchiveEmptyInputYieldsValidArchive(t *testing.T) {
	data, err := Archive(nil)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 0 {
		t.Fatalf("archive holds %d files, want 0", len(reader.File))
	}
}
