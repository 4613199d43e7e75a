// Package memory holds process-local implementations of the repository
// interfaces. They back the "memory" database backend and the HTTP tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"workforce-api/model"
	"workforce-api/repository"
)

// Store implements every repository interface over one mutex.
type Store struct {
	mu         sync.Mutex
	users      map[string]*model.User
	roles      map[string][]string
	tokens     map[tokenKey]string
	requests   []*model.RequestLog
	duplicates []*model.DuplicateLog
	audits     []*model.AuditLog
	employees  map[string]*model.Employee
	nextID     int64
}

type tokenKey struct {
	userID, provider, name string
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		roles:     make(map[string][]string),
		tokens:    make(map[tokenKey]string),
		employees: make(map[string]*model.Employee),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users and the methods below return repository views over the store.
func (s *Store) Users() repository.IUserRepository { return userRepo{s} }
func (s *Store) UserTokens() repository.IUserTokenRepository { return userTokenRepo{s} }
func (s *Store) Requests() repository.IRequestLogRepository { return requestRepo{s} }
func (s *Store) Duplicates() repository.IDuplicateLogRepository { return duplicateRepo{s} }
func (s *Store) Audits() repository.IAuditLogRepository { return auditRepo{s} }
func (s *Store) Employees() repository.IEmployeeRepository { return employeeRepo{s} }

// sameActor matches the user OR the IP, like the SQL repositories.
func sameActor(a, b *string, ipA, ipB string) bool {
	return (a != nil && b != nil && *a == *b) || ipA == ipB
}

// --- users ---

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User, roles []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := *user
	r.s.users[user.ID] = &cp
	r.s.roles[user.ID] = append([]string(nil), roles...)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetRoles(_ context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]string(nil), r.s.roles[userID]...), nil
}

// --- user tokens ---

type userTokenRepo struct{ s *Store }

func (r userTokenRepo) GetToken(_ context.Context, userID, provider, name string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.tokens[tokenKey{userID, provider, name}]
	if !ok || v == "" {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (r userTokenRepo) SetToken(_ context.Context, userID, provider, name, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[tokenKey{userID, provider, name}] = value
	return nil
}

func (r userTokenRepo) RemoveToken(_ context.Context, userID, provider, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, tokenKey{userID, provider, name})
	return nil
}

// --- request logs ---

type requestRepo struct{ s *Store }

func (r requestRepo) Create(_ context.Context, entry *model.RequestLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	cp := *entry
	r.s.requests = append(r.s.requests, &cp)
	return nil
}

func (r requestRepo) countWhere(since time.Time, match func(*model.RequestLog) bool) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.requests {
		if !e.CreatedAt.Before(since) && match(e) {
			n++
		}
	}
	return n
}

func (r requestRepo) CountByIPSince(_ context.Context, ip string, since time.Time) (int, error) {
	return r.countWhere(since, func(e *model.RequestLog) bool { return e.IPAddress == ip }), nil
}

func (r requestRepo) CountByUserSince(_ context.Context, userID string, since time.Time) (int, error) {
	return r.countWhere(since, func(e *model.RequestLog) bool { return e.UserID != nil && *e.UserID == userID }), nil
}

func (r requestRepo) CountByContentHashSince(_ context.Context, hash string, since time.Time) (int, error) {
	return r.countWhere(since, func(e *model.RequestLog) bool { return e.ContentHash == hash }), nil
}

func (r requestRepo) CountSpamFlaggedSince(_ context.Context, userID *string, ip string, since time.Time) (int, error) {
	return r.countWhere(since, func(e *model.RequestLog) bool {
		return e.IsSpamDetected && sameActor(userID, e.UserID, ip, e.IPAddress)
	}), nil
}

func (r requestRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.requests[:0]
	var deleted int64
	for _, e := range r.s.requests {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.requests = kept
	return deleted, nil
}

// --- duplicate logs ---

type duplicateRepo struct{ s *Store }

func (r duplicateRepo) Create(_ context.Context, entry *model.DuplicateLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	cp := *entry
	r.s.duplicates = append(r.s.duplicates, &cp)
	return nil
}

func (r duplicateRepo) ExistsByHashSince(_ context.Context, entityType, hash string, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.duplicates {
		if e.EntityType == entityType && e.DataHash == hash && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r duplicateRepo) CountBlockedSince(_ context.Context, userID *string, ip string, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.duplicates {
		if e.IsBlocked && !e.CreatedAt.Before(since) && sameActor(userID, e.UserID, ip, e.IPAddress) {
			n++
		}
	}
	return n, nil
}

// --- audit logs ---

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	cp := *entry
	r.s.audits = append(r.s.audits, &cp)
	return nil
}

func (r auditRepo) CountByActorSince(_ context.Context, userID *string, ip string, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.audits {
		if !e.CreatedAt.Before(since) && sameActor(userID, e.UserID, ip, e.IPAddress) {
			n++
		}
	}
	return n, nil
}

func (r auditRepo) Recent(_ context.Context, limit int) ([]*model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.AuditLog, 0, limit)
	for i := len(r.s.audits) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.s.audits[i]
		out = append(out, &cp)
	}
	return out, nil
}

// --- employees ---

type employeeRepo struct{ s *Store }

func (r employeeRepo) Create(_ context.Context, employee *model.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.employees {
		if e.EmployeeCode == employee.EmployeeCode {
			return repository.ErrDuplicateEmployeeCode
		}
	}
	now := time.Now().UTC()
	employee.CreatedAt, employee.UpdatedAt = now, now
	cp := *employee
	r.s.employees[employee.ID] = &cp
	return nil
}

func (r employeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r employeeRepo) List(_ context.Context) ([]*model.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Employee, 0, len(r.s.employees))
	for _, e := range r.s.employees {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (r employeeRepo) Update(_ context.Context, employee *model.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[employee.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, e := range r.s.employees {
		if id != employee.ID && e.EmployeeCode == employee.EmployeeCode {
			return repository.ErrDuplicateEmployeeCode
		}
	}
	employee.UpdatedAt = time.Now().UTC()
	cp := *employee
	r.s.employees[employee.ID] = &cp
	return nil
}

func (r employeeRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.employees, id)
	return nil
}
