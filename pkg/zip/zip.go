// Package zip bundles a finished story and its assets into an in-memory
// archive, used by the dev server's archive endpoint and the CLI's -archive
// flag.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one file in a story bundle.
type Entry struct {
	Name string
	Data []byte
}

// Archive builds a zip from the entries, preserving their order. Entries
// with an empty name or no data are skipped rather than failing the whole
// bundle, matching how missing assets are treated upstream.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if entry.Name == "" || len(entry.Data) == 0 {
			continue
		}
		w, err := zw.Create(entry.Name)
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: create %s: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: write %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
