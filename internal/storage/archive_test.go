package storage

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/testutil"
)

func TestWriteArchive(t *testing.T) {
	u := NewUploads(t.TempDir())
	in, err := u.Ingest("ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")), PDFOnly)
	require.NoError(t, err)

	var bundle domain.DocumentBundle
	in.ApplyTo(&bundle)
	files := bundle.Files()
	// a file recorded in the bundle but gone from disk is skipped
	require.NoError(t, os.Remove(u.FilePath("ACC-001", bundle.Required.Estimate)))

	var buf bytes.Buffer
	n, err := u.WriteArchive(&buf, "ACC-001", files)
	require.NoError(t, err)
	assert.Equal(t, len(domain.RequiredCategories)-1, n)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Contains(t, names, "Deed scan.pdf")
	assert.NotContains(t, names, "Estimate scan.pdf")

	for _, f := range zr.File {
		if f.Name != "Deed scan.pdf" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 Deed", string(body))
	}
}

func TestEntryNameDeduplicates(t *testing.T) {
	used := map[string]int{}
	assert.Equal(t, "scan.pdf", entryName(domain.StoredFile{OriginalName: "scan.pdf"}, used))
	assert.Equal(t, "scan (1).pdf", entryName(domain.StoredFile{OriginalName: "scan.pdf"}, used))
	assert.Equal(t, "ACC-1-x.pdf", entryName(domain.StoredFile{Filename: "ACC-1-x.pdf"}, used))
}

func TestWriteArchiveEmpty(t *testing.T) {
	u := NewUploads(t.TempDir())
	var buf bytes.Buffer
	n, err := u.WriteArchive(&buf, "ACC-404", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}
