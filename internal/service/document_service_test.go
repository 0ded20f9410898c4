package service

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/storage"
	"github.com/utilityops/records-service/internal/testutil"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

type documentFixture struct {
	store   *testutil.Store
	uploads *storage.Uploads
	svc     *DocumentService
}

func newDocumentFixture(t *testing.T, accounts ...string) *documentFixture {
	t.Helper()
	store := testutil.NewStore()
	for _, acc := range accounts {
		conn := sampleConnection(acc)
		require.NoError(t, store.Connections().Create(context.Background(), &conn))
	}
	uploads := storage.NewUploads(t.TempDir())
	return &documentFixture{
		store:   store,
		uploads: uploads,
		svc:     NewDocumentService(store.Connections(), store.Documents(), uploads, nil),
	}
}

func TestUploadAcceptsImages(t *testing.T) {
	f := newDocumentFixture(t, "ACC-001")
	bundle, err := f.svc.Upload(context.Background(), "ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".png")))
	require.NoError(t, err)
	assert.Equal(t, "ACC-001-Deed_scan.png", bundle.Required.Deed.Filename)
}

func TestUploadPreconditions(t *testing.T) {
	f := newDocumentFixture(t, "ACC-001")
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, "ACC-404", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, testutil.Without(testutil.RequiredSet(".pdf"), "Estimate")))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeMissingDocuments))

	_, err = f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicateKey))
}

func TestUpdateReplacesSuppliedSlots(t *testing.T) {
	f := newDocumentFixture(t, "ACC-001")
	ctx := context.Background()
	original, err := f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, append(testutil.RequiredSet(".pdf"),
		testutil.File{Field: "Other", Name: "a.pdf"}, testutil.File{Field: "Other", Name: "b.pdf"})))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, "ACC-001", testutil.FileHeaders(t, []testutil.File{
		{Field: "Deed", Name: "new deed.jpg", Content: []byte("jpg")},
		{Field: "Other", Name: "c.pdf"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "ACC-001-new_deed.jpg", updated.Required.Deed.Filename)
	assert.Equal(t, original.Required.Estimate, updated.Required.Estimate)
	require.Len(t, updated.Other, 1)
	assert.Equal(t, "c.pdf", updated.Other[0].OriginalName)

	for _, replaced := range append([]domain.StoredFile{original.Required.Deed}, original.Other...) {
		_, statErr := os.Stat(f.uploads.FilePath("ACC-001", replaced))
		assert.True(t, os.IsNotExist(statErr), replaced.Filename)
	}
	for _, kept := range updated.Files() {
		_, statErr := os.Stat(f.uploads.FilePath("ACC-001", kept))
		assert.NoError(t, statErr, kept.Filename)
	}

	_, err = f.svc.Update(ctx, "ACC-001", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
	_, err = f.svc.Update(ctx, "ACC-404", testutil.FileHeaders(t, []testutil.File{{Field: "Deed", Name: "d.pdf"}}))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDeleteDocuments(t *testing.T) {
	f := newDocumentFixture(t, "ACC-001")
	ctx := context.Background()
	_, err := f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "ACC-001"))
	_, statErr := os.Stat(f.uploads.AccountDir("ACC-001"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Zero(t, f.store.BundleCount())
	assert.Equal(t, 1, f.store.ConnectionCount())

	err = f.svc.Delete(ctx, "ACC-001")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestArchive(t *testing.T) {
	f := newDocumentFixture(t, "ACC-001")
	ctx := context.Background()
	_, err := f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")))
	require.NoError(t, err)

	write, err := f.svc.Archive(ctx, "ACC-001")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, write(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 14)

	_, err = f.svc.Archive(ctx, "ACC-404")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestUpdateSameNameKeepsFile(t *testing.T) {
	f := newDocumentFixture(t, "ACC-001")
	ctx := context.Background()
	_, err := f.svc.Upload(ctx, "ACC-001", testutil.FileHeaders(t, testutil.RequiredSet(".pdf")))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, "ACC-001", testutil.FileHeaders(t, []testutil.File{
		{Field: "Deed", Name: "Deed scan.pdf", Content: []byte("revised")},
	}))
	require.NoError(t, err)

	raw, err := os.ReadFile(f.uploads.FilePath("ACC-001", updated.Required.Deed))
	require.NoError(t, err)
	assert.Equal(t, "revised", string(raw))
}
