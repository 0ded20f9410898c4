package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/utilityops/records-service/internal/domain"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "uploads"

// ExtensionPolicy is the set of file extensions a route accepts.
type ExtensionPolicy struct {
	allowed map[string]struct{}
}

// NewExtensionPolicy builds a policy from lower-case extensions including the dot.
func NewExtensionPolicy(exts ...string) ExtensionPolicy {
	p := ExtensionPolicy{allowed: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		p.allowed[strings.ToLower(ext)] = struct{}{}
	}
	return p
}

// Allows reports whether filename has an accepted extension.
func (p ExtensionPolicy) Allows(filename string) bool {
	_, ok := p.allowed[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Describe lists the accepted extensions.
func (p ExtensionPolicy) Describe() string {
	exts := make([]string, 0, len(p.allowed))
	for ext := range p.allowed {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

var (
	// PDFOnly is used by the complete-connection flow.
	PDFOnly = NewExtensionPolicy(".pdf")
	// ScannedDocuments is used by the standalone upload and update flows.
	ScannedDocuments = NewExtensionPolicy(".pdf", ".jpg", ".jpeg", ".png")
)

// Ingested holds the metadata of every file written by one Ingest call.
type Ingested struct {
	Required map[domain.DocumentCategory]domain.StoredFile
	Other    []domain.StoredFile
}

// ApplyTo copies the ingested files onto a bundle. A non-empty Other set replaces
// the bundle's list.
func (in *Ingested) ApplyTo(bundle *domain.DocumentBundle) {
	for cat, file := range in.Required {
		if slot := bundle.Required.Slot(cat); slot != nil {
			*slot = file
		}
	}
	if len(in.Other) > 0 {
		bundle.Other = append([]domain.StoredFile(nil), in.Other...)
	}
}

// MissingRequired lists required categories absent from a multipart file set.
func MissingRequired(files map[string][]*multipart.FileHeader) []string {
	var missing []string
	for _, cat := range domain.RequiredCategories {
		if len(files[string(cat)]) == 0 {
			missing = append(missing, string(cat))
		}
	}
	return missing
}

// Uploads stores files under <root>/<accountNumber>/.
type Uploads struct {
	root string
	now  func() time.Time
}

// NewUploads constructs the intake service rooted at root.
func NewUploads(root string) *Uploads {
	return &Uploads{root: root, now: func() time.Time { return time.Now().UTC() }}
}

// Root returns the upload root directory.
func (u *Uploads) Root() string {
	return u.root
}

var whitespace = regexp.MustCompile(`\s+`)

// StoredName rewrites an uploaded filename to <accountNumber>-<sanitized original>.
func StoredName(accountNumber, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	return accountNumber + "-" + whitespace.ReplaceAllString(base, "_")
}

// ValidateAccountNumber rejects values that cannot name an upload directory.
func ValidateAccountNumber(accountNumber string) error {
	trimmed := strings.TrimSpace(accountNumber)
	if trimmed == "" {
		return apperrors.NewValidationError("accountNumber is required", nil)
	}
	if trimmed != accountNumber || strings.ContainsAny(accountNumber, `/\`) ||
		strings.HasPrefix(accountNumber, ".") || strings.Contains(accountNumber, "..") {
		return apperrors.NewValidationError("accountNumber contains invalid characters",
			map[string]any{"accountNumber": accountNumber})
	}
	return nil
}

// Ingest validates every file against policy and field cardinality, then writes
// them. Nothing is written if any file is rejected, and a failed write removes the
// files this call already stored. Existing files are never overwritten.
func (u *Uploads) Ingest(accountNumber string, files map[string][]*multipart.FileHeader, policy ExtensionPolicy) (*Ingested, error) {
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if err := checkFields(files, policy); err != nil {
		return nil, err
	}

	dir := u.AccountDir(accountNumber)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("create upload dir: %w", err))
	}

	result := &Ingested{Required: make(map[domain.DocumentCategory]domain.StoredFile)}
	for _, cat := range domain.RequiredCategories {
		headers := files[string(cat)]
		if len(headers) == 0 {
			continue
		}
		stored, err := u.write(accountNumber, headers[0])
		if err != nil {
			u.Discard(accountNumber, result)
			return nil, err
		}
		result.Required[cat] = stored
	}
	for _, fh := range files[string(domain.CategoryOther)] {
		stored, err := u.write(accountNumber, fh)
		if err != nil {
			u.Discard(accountNumber, result)
			return nil, err
		}
		result.Other = append(result.Other, stored)
	}
	return result, nil
}

// Files lists every stored file in the result.
func (in *Ingested) Files() []domain.StoredFile {
	if in == nil {
		return nil
	}
	out := make([]domain.StoredFile, 0, len(in.Required)+len(in.Other))
	for _, cat := range domain.RequiredCategories {
		if file, ok := in.Required[cat]; ok {
			out = append(out, file)
		}
	}
	return append(out, in.Other...)
}

// Discard removes the files written by one Ingest call, and the account
// directory if nothing else is left in it. Files stored by other calls stay.
func (u *Uploads) Discard(accountNumber string, in *Ingested) error {
	if err := u.RemoveFiles(accountNumber, in.Files()); err != nil {
		return err
	}
	// fails while other files remain
	_ = os.Remove(u.AccountDir(accountNumber))
	return nil
}

// RemoveFiles deletes the given files from an account's directory. Files that are
// already gone are skipped.
func (u *Uploads) RemoveFiles(accountNumber string, files []domain.StoredFile) error {
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return err
	}
	var errs []error
	for _, file := range files {
		if file.Filename == "" {
			continue
		}
		if err := os.Remove(u.FilePath(accountNumber, file)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkFields(files map[string][]*multipart.FileHeader, policy ExtensionPolicy) error {
	for field, headers := range files {
		cat := domain.DocumentCategory(field)
		switch {
		case cat == domain.CategoryOther:
			if len(headers) > domain.MaxOtherDocuments {
				return apperrors.NewValidationError(
					fmt.Sprintf("at most %d files allowed for %s", domain.MaxOtherDocuments, field),
					map[string]any{"field": field})
			}
		case cat.IsRequired():
			if len(headers) > 1 {
				return apperrors.NewValidationError(
					fmt.Sprintf("only one file allowed for %s", field),
					map[string]any{"field": field})
			}
		default:
			return apperrors.NewValidationError(
				fmt.Sprintf("unexpected file field %s", field),
				map[string]any{"field": field})
		}
		for _, fh := range headers {
			if !policy.Allows(fh.Filename) {
				return apperrors.NewUnsupportedFileType(
					fmt.Sprintf("Only %s files are allowed", policy.Describe()),
					map[string]any{"field": field, "filename": fh.Filename})
			}
		}
	}
	return nil
}

func (u *Uploads) write(accountNumber string, fh *multipart.FileHeader) (domain.StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return domain.StoredFile{}, apperrors.NewInternalError(fmt.Errorf("open upload %s: %w", fh.Filename, err))
	}
	defer src.Close()

	dst, name, err := u.create(accountNumber, StoredName(accountNumber, fh.Filename))
	if err != nil {
		return domain.StoredFile{}, apperrors.NewInternalError(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return domain.StoredFile{}, apperrors.NewInternalError(fmt.Errorf("write %s: %w", name, err))
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return domain.StoredFile{}, apperrors.NewInternalError(fmt.Errorf("close %s: %w", name, err))
	}

	return domain.StoredFile{
		Filename:     name,
		OriginalName: fh.Filename,
		URL:          path.Join(URLPrefix, accountNumber, name),
		UploadedAt:   u.now(),
	}, nil
}

// maxNameAttempts bounds the suffix search in create.
const maxNameAttempts = 1000

// create opens a new file named after want, or want with a numeric suffix when
// that name is already taken on disk.
func (u *Uploads) create(accountNumber, want string) (*os.File, string, error) {
	dir := u.AccountDir(accountNumber)
	ext := filepath.Ext(want)
	stem := strings.TrimSuffix(want, ext)
	name := want
	for n := 1; n <= maxNameAttempts; n++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", name, err)
		}
		name = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	return nil, "", fmt.Errorf("create %s: no free name", want)
}

// AccountDir is the directory holding an account's files.
func (u *Uploads) AccountDir(accountNumber string) string {
	return filepath.Join(u.root, accountNumber)
}

// FilePath resolves a stored file on disk.
func (u *Uploads) FilePath(accountNumber string, file domain.StoredFile) string {
	return filepath.Join(u.AccountDir(accountNumber), filepath.Base(file.Filename))
}

// RemoveAccount deletes an account's directory. A directory that is already gone
// is not an error, so the call can be repeated.
func (u *Uploads) RemoveAccount(accountNumber string) error {
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return err
	}
	if err := os.RemoveAll(u.AccountDir(accountNumber)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
