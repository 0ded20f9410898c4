package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/repository"
	"github.com/utilityops/records-service/internal/storage"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

// DocumentService manages document bundles and their stored files.
type DocumentService struct {
	connections repository.ConnectionRepository
	documents   repository.DocumentRepository
	uploads     *storage.Uploads
	logger      *zap.Logger
}

// ArchiveWriter streams a bundle archive into w.
type ArchiveWriter func(w io.Writer) error

// NewDocumentService constructs the service.
func NewDocumentService(connections repository.ConnectionRepository, documents repository.DocumentRepository, uploads *storage.Uploads, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{connections: connections, documents: documents, uploads: uploads, logger: logger}
}

// Upload creates the bundle for an existing connection that has none yet.
func (s *DocumentService) Upload(ctx context.Context, accountNumber string, files map[string][]*multipart.FileHeader) (*domain.DocumentBundle, error) {
	if err := storage.ValidateAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	details := map[string]any{"accountNumber": accountNumber}

	if _, err := s.connections.GetByAccountNumber(ctx, accountNumber); err != nil {
		return nil, storeError(err, "Connection", details)
	}
	_, err := s.documents.Get(ctx, accountNumber)
	switch {
	case err == nil:
		return nil, apperrors.NewDuplicateKey("Documents already exist for this account", details)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewStoreError(err)
	}
	if missing := storage.MissingRequired(files); len(missing) > 0 {
		return nil, apperrors.NewMissingDocuments(missing)
	}

	ingested, err := s.uploads.Ingest(accountNumber, files, storage.ScannedDocuments)
	if err != nil {
		return nil, err
	}
	bundle := &domain.DocumentBundle{AccountNumber: accountNumber}
	ingested.ApplyTo(bundle)
	if err := s.documents.Create(ctx, bundle); err != nil {
		s.discard(accountNumber, ingested)
		return nil, storeError(err, "Documents", details)
	}
	return bundle, nil
}

// Get returns the bundle for an account.
func (s *DocumentService) Get(ctx context.Context, accountNumber string) (*domain.DocumentBundle, error) {
	bundle, err := s.documents.Get(ctx, accountNumber)
	if err != nil {
		return nil, storeError(err, "Documents", map[string]any{"accountNumber": accountNumber})
	}
	return bundle, nil
}

// List returns every bundle.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentBundle, error) {
	bundles, err := s.documents.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if bundles == nil {
		bundles = []domain.DocumentBundle{}
	}
	return bundles, nil
}

// Update replaces only the slots for which a file was supplied. A supplied Other
// set replaces the whole list.
func (s *DocumentService) Update(ctx context.Context, accountNumber string, files map[string][]*multipart.FileHeader) (*domain.DocumentBundle, error) {
	bundle, err := s.Get(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if countFiles(files) == 0 {
		return nil, apperrors.NewValidationError("No files supplied", nil)
	}

	ingested, err := s.uploads.Ingest(accountNumber, files, storage.ScannedDocuments)
	if err != nil {
		return nil, err
	}
	superseded := supersededFiles(bundle, ingested)
	ingested.ApplyTo(bundle)
	if err := s.documents.Update(ctx, bundle); err != nil {
		s.discard(accountNumber, ingested)
		return nil, storeError(err, "Documents", map[string]any{"accountNumber": accountNumber})
	}
	if err := s.uploads.RemoveFiles(accountNumber, superseded); err != nil {
		s.logger.Warn("remove replaced documents",
			zap.String("account_number", accountNumber),
			zap.Error(err))
	}
	return bundle, nil
}

func (s *DocumentService) discard(accountNumber string, ingested *storage.Ingested) {
	if err := s.uploads.Discard(accountNumber, ingested); err != nil {
		s.logger.Warn("remove uploads after failed write",
			zap.String("account_number", accountNumber),
			zap.Error(err))
	}
}

// supersededFiles lists the bundle files that ingested is about to replace.
func supersededFiles(bundle *domain.DocumentBundle, ingested *storage.Ingested) []domain.StoredFile {
	var out []domain.StoredFile
	for cat := range ingested.Required {
		if slot := bundle.Required.Slot(cat); slot != nil && slot.Filename != "" {
			out = append(out, *slot)
		}
	}
	if len(ingested.Other) > 0 {
		out = append(out, bundle.Other...)
	}
	return out
}

// Delete removes the bundle record and the account's upload directory. The
// directory is cleared even when the record is already gone.
func (s *DocumentService) Delete(ctx context.Context, accountNumber string) error {
	if err := storage.ValidateAccountNumber(accountNumber); err != nil {
		return err
	}
	recordErr := s.documents.Delete(ctx, accountNumber)
	if recordErr != nil && !errors.Is(recordErr, repository.ErrNotFound) {
		return apperrors.NewStoreError(recordErr)
	}
	if err := s.uploads.RemoveAccount(accountNumber); err != nil {
		return apperrors.NewInternalError(err)
	}
	if recordErr != nil {
		return apperrors.NewNotFound("Documents", map[string]any{"accountNumber": accountNumber})
	}
	return nil
}

// Archive resolves the bundle up front so a missing bundle fails before any byte
// is streamed. The returned writer skips files missing on disk.
func (s *DocumentService) Archive(ctx context.Context, accountNumber string) (ArchiveWriter, error) {
	bundle, err := s.Get(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	files := bundle.Files()
	return func(w io.Writer) error {
		added, err := s.uploads.WriteArchive(w, accountNumber, files)
		if err != nil {
			s.logger.Error("archive stream failed",
				zap.String("account_number", accountNumber),
				zap.Error(err))
			return err
		}
		if added < len(files) {
			s.logger.Warn("archive skipped missing files",
				zap.String("account_number", accountNumber),
				zap.Int("expected", len(files)),
				zap.Int("written", added))
		}
		return nil
	}, nil
}

func countFiles(files map[string][]*multipart.FileHeader) int {
	n := 0
	for _, headers := range files {
		n += len(headers)
	}
	return n
}
