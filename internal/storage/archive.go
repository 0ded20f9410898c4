package storage

import (
	"archive/zip"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/utilityops/records-service/internal/domain"
)

// WriteArchive streams a zip of the given files to w at maximum compression.
// Files missing on disk are skipped. It returns the number of entries written.
func (u *Uploads) WriteArchive(w io.Writer, accountNumber string, files []domain.StoredFile) (int, error) {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	used := make(map[string]int, len(files))
	added := 0
	for _, file := range files {
		ok, err := u.addEntry(zw, accountNumber, file, used)
		if err != nil {
			_ = zw.Close()
			return added, err
		}
		if ok {
			added++
		}
	}
	if err := zw.Close(); err != nil {
		return added, err
	}
	return added, nil
}

func (u *Uploads) addEntry(zw *zip.Writer, accountNumber string, file domain.StoredFile, used map[string]int) (bool, error) {
	src, err := os.Open(u.FilePath(accountNumber, file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:     entryName(file, used),
		Method:   zip.Deflate,
		Modified: file.UploadedAt,
	}
	dst, err := zw.CreateHeader(header)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		return false, fmt.Errorf("archive %s: %w", file.Filename, err)
	}
	return true, nil
}

// entryName prefers the original upload name and disambiguates repeats.
func entryName(file domain.StoredFile, used map[string]int) string {
	name := filepath.Base(file.OriginalName)
	if file.OriginalName == "" || name == "." || name == "/" {
		name = file.Filename
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}
