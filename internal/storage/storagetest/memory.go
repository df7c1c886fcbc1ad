// Package storagetest provides an in-memory storage.Storage for tests. It
// keeps the ordering, uniqueness, version and transaction semantics of the
// PostgreSQL implementation.
package storagetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage"
)

type state struct {
	users         map[uint]models.User
	offices       map[uint]models.Office
	categories    map[uint]models.Category
	reports       map[uint]models.Report
	threads       map[uint]models.ChatThread
	messages      map[uint]models.Message
	notifications map[uint]models.Notification
	nextID        uint
}

func (st *state) clone() *state {
	c := &state{
		users:         make(map[uint]models.User, len(st.users)),
		offices:       make(map[uint]models.Office, len(st.offices)),
		categories:    make(map[uint]models.Category, len(st.categories)),
		reports:       make(map[uint]models.Report, len(st.reports)),
		threads:       make(map[uint]models.ChatThread, len(st.threads)),
		messages:      make(map[uint]models.Message, len(st.messages)),
		notifications: make(map[uint]models.Notification, len(st.notifications)),
		nextID:        st.nextID,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.offices {
		c.offices[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.reports {
		c.reports[k] = v
	}
	for k, v := range st.threads {
		c.threads[k] = v
	}
	for k, v := range st.messages {
		c.messages[k] = v
	}
	for k, v := range st.notifications {
		c.notifications[k] = v
	}
	return c
}

// Store is an in-memory storage.Storage. The zero value is not usable; call New.
type Store struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	st    *state
	locks map[uint]bool

	// Now stamps CreatedAt fields. Defaults to time.Now.
	Now func() time.Time

	// SaveNotificationErr, when set, is returned by SaveNotification.
	SaveNotificationErr error
	// UpdateReportHook runs inside UpdateReport before the version check.
	UpdateReportHook func(r *models.Report)
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		st: &state{
			users:         map[uint]models.User{},
			offices:       map[uint]models.Office{},
			categories:    map[uint]models.Category{},
			reports:       map[uint]models.Report{},
			threads:       map[uint]models.ChatThread{},
			messages:      map[uint]models.Message{},
			notifications: map[uint]models.Notification{},
		},
		locks: map[uint]bool{},
		Now:   time.Now,
	}
}

func (s *Store) id() uint {
	s.st.nextID++
	return s.st.nextID
}

// WithinTx snapshots the whole state and restores it when fn fails.
// Transactions are serialized and cannot nest. Writes made outside the
// transaction while it runs are lost if it rolls back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Storage) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	err := fn(s)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) LockReport(ctx context.Context, reportID uint) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[reportID] {
		return nil, apperr.Conflict("report %d is being updated by another request", reportID)
	}
	s.locks[reportID] = true
	return func() {
		s.mu.Lock()
		delete(s.locks, reportID)
		s.mu.Unlock()
	}, nil
}

// HoldLock takes the report lock on behalf of another writer.
func (s *Store) HoldLock(reportID uint) (release func()) {
	unlock, err := s.LockReport(context.Background(), reportID)
	if err != nil {
		return func() {}
	}
	return unlock
}

// --- seeding helpers ---

// AddUser stores u and returns its id.
func (s *Store) AddUser(u models.User) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	if u.Language == "" {
		u.Language = "en"
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.Now()
	}
	s.st.users[u.ID] = u
	return u.ID
}

// AddCategory stores c and returns its id.
func (s *Store) AddCategory(c models.Category) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.st.categories[c.ID] = c
	return c.ID
}

// AddOffice stores o and returns its id.
func (s *Store) AddOffice(o models.Office) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.id()
	}
	s.st.offices[o.ID] = o
	return o.ID
}

// Report returns the raw stored report, without relations.
func (s *Store) Report(id uint) (models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.reports[id]
	return r, ok
}

// Notifications returns every stored notification ordered by id.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, 0, len(s.st.notifications))
	for _, n := range s.st.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Threads returns every stored thread ordered by id.
func (s *Store) Threads() []models.ChatThread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedThreads(func(models.ChatThread) bool { return true })
}

// Messages returns every stored message ordered by id.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, 0, len(s.st.messages))
	for _, m := range s.st.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
