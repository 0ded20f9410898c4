// Package testutil holds in-memory fakes of the repository layer and helpers for
// building multipart uploads in tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/repository"
)

// Store is an in-memory record store implementing every repository interface.
type Store struct {
	mu          sync.Mutex
	users       map[string]domain.User
	connections map[string]domain.Connection
	bundles     map[string]domain.DocumentBundle
	nameChanges map[string]domain.NameChangeRequest
	failures    map[string]error
	clock       time.Time

	// TxUnavailable makes WithinTx fail as if the database had no transactions.
	TxUnavailable bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       map[string]domain.User{},
		connections: map[string]domain.Connection{},
		bundles:     map[string]domain.DocumentBundle{},
		nameChanges: map[string]domain.NameChangeRequest{},
		failures:    map[string]error{},
		clock:       time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

// FailOn makes the named operation, e.g. "documents.Create", return err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

// tick advances the fake clock so creation order is strictly increasing.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Connections returns the connection repository.
func (s *Store) Connections() repository.ConnectionRepository { return connectionRepo{s} }

// Documents returns the document repository.
func (s *Store) Documents() repository.DocumentRepository { return documentRepo{s} }

// NameChanges returns the name-change repository.
func (s *Store) NameChanges() repository.NameChangeRepository { return nameChangeRepo{s} }

// TxManager returns a transaction manager that restores a snapshot on failure.
func (s *Store) TxManager() repository.TxManager { return txManager{s} }

// ConnectionCount reports how many connections are stored.
func (s *Store) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// BundleCount reports how many document bundles are stored.
func (s *Store) BundleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bundles)
}

type snapshot struct {
	users       map[string]domain.User
	connections map[string]domain.Connection
	bundles     map[string]domain.DocumentBundle
	nameChanges map[string]domain.NameChangeRequest
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:       make(map[string]domain.User, len(s.users)),
		connections: make(map[string]domain.Connection, len(s.connections)),
		bundles:     make(map[string]domain.DocumentBundle, len(s.bundles)),
		nameChanges: make(map[string]domain.NameChangeRequest, len(s.nameChanges)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.connections {
		snap.connections[k] = v
	}
	for k, v := range s.bundles {
		snap.bundles[k] = cloneBundle(v)
	}
	for k, v := range s.nameChanges {
		snap.nameChanges[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.connections = snap.connections
	s.bundles = snap.bundles
	s.nameChanges = snap.nameChanges
}

type txKey struct{}

type txManager struct{ s *Store }

func (m txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.s.TxUnavailable {
		return repository.ErrTxUnavailable
	}
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	snap := m.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return err
	}
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Update"); err != nil {
		return err
	}
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = r.s.tick()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.GetByUsername"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) ListByPosition(_ context.Context, position string) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.Position == position {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// connections

type connectionRepo struct{ s *Store }

func (r connectionRepo) Create(_ context.Context, conn *domain.Connection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("connections.Create"); err != nil {
		return err
	}
	if _, ok := r.s.connections[conn.AccountNumber]; ok {
		return fmt.Errorf("%w: connections_pkey", repository.ErrDuplicate)
	}
	conn.CreatedAt = r.s.tick()
	conn.UpdatedAt = conn.CreatedAt
	r.s.connections[conn.AccountNumber] = *conn
	return nil
}

func (r connectionRepo) Update(_ context.Context, conn *domain.Connection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("connections.Update"); err != nil {
		return err
	}
	if _, ok := r.s.connections[conn.AccountNumber]; !ok {
		return repository.ErrNotFound
	}
	conn.UpdatedAt = r.s.tick()
	r.s.connections[conn.AccountNumber] = *conn
	return nil
}

func (r connectionRepo) GetByAccountNumber(_ context.Context, accountNumber string) (*domain.Connection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("connections.Get"); err != nil {
		return nil, err
	}
	c, ok := r.s.connections[accountNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r connectionRepo) Delete(_ context.Context, accountNumber string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("connections.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.connections[accountNumber]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.connections, accountNumber)
	delete(r.s.bundles, accountNumber)
	return nil
}

func (r connectionRepo) List(_ context.Context, filter repository.ConnectionFilter) ([]domain.Connection, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("connections.List"); err != nil {
		return nil, 0, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []domain.Connection
	for _, c := range r.s.connections {
		if search != "" && !containsAny(search, c.AccountNumber, c.OwnerName, c.OwnerNIC, c.OwnerPhone) {
			continue
		}
		if filter.Area != "" && c.Area != filter.Area {
			continue
		}
		if filter.Purpose != "" && c.Purpose != filter.Purpose {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].AccountNumber < matched[j].AccountNumber })

	total := len(matched)
	if filter.Limit > 0 {
		start := filter.Offset
		if start < 0 {
			start = 0
		}
		if start > total {
			start = total
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func containsAny(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// documents

type documentRepo struct{ s *Store }

func (r documentRepo) Create(_ context.Context, bundle *domain.DocumentBundle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("documents.Create"); err != nil {
		return err
	}
	if _, ok := r.s.bundles[bundle.AccountNumber]; ok {
		return fmt.Errorf("%w: document_bundles_pkey", repository.ErrDuplicate)
	}
	if _, ok := r.s.connections[bundle.AccountNumber]; !ok {
		return fmt.Errorf("foreign key violation: connection %s", bundle.AccountNumber)
	}
	bundle.CreatedAt = r.s.tick()
	bundle.UpdatedAt = bundle.CreatedAt
	r.s.bundles[bundle.AccountNumber] = cloneBundle(*bundle)
	return nil
}

func (r documentRepo) Update(_ context.Context, bundle *domain.DocumentBundle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("documents.Update"); err != nil {
		return err
	}
	if _, ok := r.s.bundles[bundle.AccountNumber]; !ok {
		return repository.ErrNotFound
	}
	bundle.UpdatedAt = r.s.tick()
	r.s.bundles[bundle.AccountNumber] = cloneBundle(*bundle)
	return nil
}

func (r documentRepo) Get(_ context.Context, accountNumber string) (*domain.DocumentBundle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("documents.Get"); err != nil {
		return nil, err
	}
	b, ok := r.s.bundles[accountNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b = cloneBundle(b)
	return &b, nil
}

func (r documentRepo) List(_ context.Context) ([]domain.DocumentBundle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.DocumentBundle, 0, len(r.s.bundles))
	for _, b := range r.s.bundles {
		out = append(out, cloneBundle(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (r documentRepo) Delete(_ context.Context, accountNumber string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("documents.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.bundles[accountNumber]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.bundles, accountNumber)
	return nil
}

func cloneBundle(b domain.DocumentBundle) domain.DocumentBundle {
	b.Other = append([]domain.StoredFile(nil), b.Other...)
	return b
}

// name changes

type nameChangeRepo struct{ s *Store }

func (r nameChangeRepo) Create(_ context.Context, req *domain.NameChangeRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("nameChanges.Create"); err != nil {
		return err
	}
	req.ID = uuid.NewString()
	req.CreatedAt = r.s.tick()
	req.UpdatedAt = req.CreatedAt
	r.s.nameChanges[req.ID] = *req
	return nil
}

func (r nameChangeRepo) GetByID(_ context.Context, id string) (*domain.NameChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.nameChanges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r nameChangeRepo) List(_ context.Context, filter repository.NameChangeFilter) ([]domain.NameChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("nameChanges.List"); err != nil {
		return nil, err
	}

	var out []domain.NameChangeRequest
	for _, req := range r.s.nameChanges {
		if filter.AccountNumber != "" && req.AccountNumber != filter.AccountNumber {
			continue
		}
		if filter.ApproverEmployeeID != "" {
			slot := req.Approval(filter.ApproverLevel)
			if slot == nil {
				return nil, fmt.Errorf("invalid approval level %d", filter.ApproverLevel)
			}
			if slot.EmployeeID != filter.ApproverEmployeeID {
				continue
			}
		}
		if id := filter.AnyApproverEmployeeID; id != "" {
			if req.Approvals[0].EmployeeID != id && req.Approvals[1].EmployeeID != id && req.Approvals[2].EmployeeID != id {
				continue
			}
		}
		if filter.Examined != nil && req.Examiner.Signed() != *filter.Examined {
			continue
		}
		if filter.FullyApproved && !req.FullyApproved() {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r nameChangeRepo) SetApprovalStatus(_ context.Context, id string, level int, status domain.ApprovalStatus, decidedAt time.Time) (*domain.NameChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("nameChanges.SetApprovalStatus"); err != nil {
		return nil, err
	}
	req, ok := r.s.nameChanges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	slot := req.Approval(level)
	if slot == nil {
		return nil, fmt.Errorf("invalid approval level %d", level)
	}
	slot.Status = status
	slot.DecisionDate = &decidedAt
	req.UpdatedAt = r.s.tick()
	r.s.nameChanges[req.ID] = req
	return &req, nil
}

func (r nameChangeRepo) SetExaminer(_ context.Context, id string, examiner domain.Signature) (*domain.NameChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.nameChanges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req.Examiner = examiner
	req.UpdatedAt = r.s.tick()
	r.s.nameChanges[req.ID] = req
	return &req, nil
}
