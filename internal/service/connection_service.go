package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/events"
	"github.com/utilityops/records-service/internal/export"
	"github.com/utilityops/records-service/internal/repository"
	"github.com/utilityops/records-service/internal/storage"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ConnectionService coordinates connection workflows.
type ConnectionService struct {
	tx          repository.TxManager
	connections repository.ConnectionRepository
	documents   repository.DocumentRepository
	uploads     *storage.Uploads
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// ConnectionDependencies bundles collaborators for the connection service.
type ConnectionDependencies struct {
	TxManager      repository.TxManager
	ConnectionRepo repository.ConnectionRepository
	DocumentRepo   repository.DocumentRepository
	Uploads        *storage.Uploads
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// ConnectionQuery describes list filters and pagination.
type ConnectionQuery struct {
	Search  string
	Area    string
	Purpose string
	Page    int
	Limit   int
}

// ConnectionPage is one page of list results.
type ConnectionPage struct {
	Items []domain.Connection
	Total int
	Page  int
	Pages int
	Limit int
}

// NewConnectionService constructs the service.
func NewConnectionService(deps ConnectionDependencies) *ConnectionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{
		tx:          deps.TxManager,
		connections: deps.ConnectionRepo,
		documents:   deps.DocumentRepo,
		uploads:     deps.Uploads,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateComplete stores a connection together with a bundle holding every required
// document. Validation, including the document check, happens before anything is
// written; the two records are written in one transaction. A failed transaction
// removes only the files this call stored.
func (s *ConnectionService) CreateComplete(ctx context.Context, conn domain.Connection, files map[string][]*multipart.FileHeader) (*domain.Connection, *domain.DocumentBundle, error) {
	if err := validateConnection(&conn); err != nil {
		return nil, nil, err
	}
	if missing := storage.MissingRequired(files); len(missing) > 0 {
		return nil, nil, apperrors.NewMissingDocuments(missing)
	}
	if err := s.ensureAbsent(ctx, conn.AccountNumber); err != nil {
		return nil, nil, err
	}

	ingested, err := s.uploads.Ingest(conn.AccountNumber, files, storage.PDFOnly)
	if err != nil {
		return nil, nil, err
	}
	bundle := &domain.DocumentBundle{AccountNumber: conn.AccountNumber}
	ingested.ApplyTo(bundle)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.connections.Create(ctx, &conn); err != nil {
			return err
		}
		return s.documents.Create(ctx, bundle)
	})
	if err != nil {
		if cleanupErr := s.uploads.Discard(conn.AccountNumber, ingested); cleanupErr != nil {
			s.logger.Warn("remove uploads after failed create",
				zap.String("account_number", conn.AccountNumber),
				zap.Error(cleanupErr))
		}
		return nil, nil, storeError(err, "Account number", map[string]any{"accountNumber": conn.AccountNumber})
	}
	return &conn, bundle, nil
}

// Create stores a connection without documents.
func (s *ConnectionService) Create(ctx context.Context, conn domain.Connection) (*domain.Connection, error) {
	if err := validateConnection(&conn); err != nil {
		return nil, err
	}
	if err := s.connections.Create(ctx, &conn); err != nil {
		return nil, storeError(err, "Account number", map[string]any{"accountNumber": conn.AccountNumber})
	}
	return &conn, nil
}

// List returns one page of connections matching the query, sorted by account number.
func (s *ConnectionService) List(ctx context.Context, query ConnectionQuery) (*ConnectionPage, error) {
	page, limit := normalizePage(query.Page, query.Limit)
	items, total, err := s.connections.List(ctx, repository.ConnectionFilter{
		Search:  strings.TrimSpace(query.Search),
		Area:    strings.TrimSpace(query.Area),
		Purpose: strings.TrimSpace(query.Purpose),
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if items == nil {
		items = []domain.Connection{}
	}
	return &ConnectionPage{
		Items: items,
		Total: total,
		Page:  page,
		Pages: (total + limit - 1) / limit,
		Limit: limit,
	}, nil
}

// Export writes every connection matching the query's filters as a spreadsheet.
// Pagination fields are ignored.
func (s *ConnectionService) Export(ctx context.Context, w io.Writer, query ConnectionQuery) error {
	items, _, err := s.connections.List(ctx, repository.ConnectionFilter{
		Search:  strings.TrimSpace(query.Search),
		Area:    strings.TrimSpace(query.Area),
		Purpose: strings.TrimSpace(query.Purpose),
	})
	if err != nil {
		return apperrors.NewStoreError(err)
	}
	if err := export.WriteConnections(w, items); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Get fetches a connection by account number.
func (s *ConnectionService) Get(ctx context.Context, accountNumber string) (*domain.Connection, error) {
	conn, err := s.connections.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, storeError(err, "Connection", map[string]any{"accountNumber": accountNumber})
	}
	return conn, nil
}

// Update applies a partial update. The patch type has no account number field, so
// the key can never change through this path.
func (s *ConnectionService) Update(ctx context.Context, accountNumber string, patch domain.ConnectionPatch) (*domain.Connection, error) {
	conn, err := s.Get(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	patch.Apply(conn)
	if missing := conn.MissingFields(); len(missing) > 0 {
		return nil, apperrors.NewValidationError("Required fields cannot be empty: "+strings.Join(missing, ", "),
			map[string]any{"missing": missing})
	}
	if err := s.connections.Update(ctx, conn); err != nil {
		return nil, storeError(err, "Connection", map[string]any{"accountNumber": accountNumber})
	}
	return conn, nil
}

// Delete removes a connection, its bundle and its uploaded files after re-checking
// the requester's password. Each step tolerates its target being gone already, and
// the connection row goes last so an interrupted delete can be repeated.
func (s *ConnectionService) Delete(ctx context.Context, requester *domain.User, accountNumber, password string) error {
	if requester == nil {
		return apperrors.NewUnauthorized("Not authorized")
	}
	if password == "" {
		return apperrors.NewPasswordRequired()
	}
	if err := auth.ComparePassword(requester.PasswordHash, password); err != nil {
		if auth.IsMismatch(err) {
			return apperrors.NewIncorrectPassword()
		}
		return apperrors.NewInternalError(err)
	}
	if _, err := s.Get(ctx, accountNumber); err != nil {
		return err
	}

	hadDocuments := true
	if err := s.documents.Delete(ctx, accountNumber); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewStoreError(err)
		}
		hadDocuments = false
	}
	if err := s.uploads.RemoveAccount(accountNumber); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.connections.Delete(ctx, accountNumber); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewStoreError(err)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:          events.EventConnectionDeleted,
		AccountNumber: accountNumber,
		Actor:         actorOf(requester),
		Payload:       events.ConnectionDeletedPayload{HadDocuments: hadDocuments},
	})
	return nil
}

func (s *ConnectionService) ensureAbsent(ctx context.Context, accountNumber string) error {
	_, err := s.connections.GetByAccountNumber(ctx, accountNumber)
	switch {
	case err == nil:
		return apperrors.NewDuplicateKey("Account number already exists",
			map[string]any{"accountNumber": accountNumber})
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return apperrors.NewStoreError(err)
	}
}

func validateConnection(conn *domain.Connection) error {
	trim := func(v *string) { *v = strings.TrimSpace(*v) }
	trim(&conn.AccountNumber)
	trim(&conn.OwnerName)
	trim(&conn.Address)
	trim(&conn.OwnerNIC)
	trim(&conn.OwnerPhone)
	trim(&conn.Area)
	trim(&conn.GramaNiladhariDivision)
	trim(&conn.DivisionalSecretariat)
	trim(&conn.Purpose)

	if missing := conn.MissingFields(); len(missing) > 0 {
		return apperrors.NewValidationError("Missing required fields: "+strings.Join(missing, ", "),
			map[string]any{"missing": missing})
	}
	return storage.ValidateAccountNumber(conn.AccountNumber)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
