package testutil

import (
	"bytes"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/domain"
)

// File is one part of a multipart upload.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// MultipartBody encodes form fields and files. It returns the body and its
// Content-Type header.
func MultipartBody(t testing.TB, fields map[string]string, files []File) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// FileHeaders parses files back into the form a multipart request yields.
func FileHeaders(t testing.TB, files []File) map[string][]*multipart.FileHeader {
	t.Helper()
	body, contentType := MultipartBody(t, nil, files)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File
}

// RequiredSet returns one file per required category, named "<category> scan<ext>".
func RequiredSet(ext string) []File {
	files := make([]File, 0, len(domain.RequiredCategories))
	for _, cat := range domain.RequiredCategories {
		files = append(files, File{
			Field:   string(cat),
			Name:    string(cat) + " scan" + ext,
			Content: []byte("%PDF-1.4 " + string(cat)),
		})
	}
	return files
}

// Without drops the files uploaded under the given fields.
func Without(files []File, fields ...string) []File {
	skip := make(map[string]bool, len(fields))
	for _, f := range fields {
		skip[f] = true
	}
	out := make([]File, 0, len(files))
	for _, f := range files {
		if !skip[f.Field] {
			out = append(out, f)
		}
	}
	return out
}
