package storagetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"
)

func (s *Store) userPtr(id uint) *models.User {
	u, ok := s.st.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (s *Store) optUser(id *uint) *models.User {
	if id == nil {
		return nil
	}
	return s.userPtr(*id)
}

func (s *Store) withReportRelations(r models.Report) models.Report {
	if r.CategoryID != nil {
		if c, ok := s.st.categories[*r.CategoryID]; ok {
			r.Category = &c
		}
	}
	r.CreatedBy = s.userPtr(r.CreatedByID)
	r.AssignedTo = s.optUser(r.AssignedToID)
	r.Supervisor = s.optUser(r.SupervisorID)
	return r
}

// --- reports ---

func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.Version = 1
	now := s.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	stored := *r
	stored.Category, stored.CreatedBy, stored.AssignedTo, stored.Supervisor = nil, nil, nil, nil
	s.st.reports[r.ID] = stored
	return nil
}

func (s *Store) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.reports[id]
	if !ok {
		return nil, apperr.NotFound("report %d not found", id)
	}
	r = s.withReportRelations(r)
	return &r, nil
}

func (s *Store) GetReportForUpdate(ctx context.Context, id uint) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.reports[id]
	if !ok {
		return nil, apperr.NotFound("report %d not found", id)
	}
	return &r, nil
}

func (s *Store) UpdateReport(ctx context.Context, r *models.Report, expectedVersion uint) error {
	if s.UpdateReportHook != nil {
		s.UpdateReportHook(r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.st.reports[r.ID]
	if !ok || stored.Version != expectedVersion {
		return apperr.Conflict("report %d was modified concurrently", r.ID)
	}
	stored.Status = r.Status
	stored.CategoryID = r.CategoryID
	stored.AssignedToID = r.AssignedToID
	stored.SupervisorID = r.SupervisorID
	stored.RejectionReason = r.RejectionReason
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = s.Now()
	s.st.reports[r.ID] = stored
	r.Version = stored.Version
	r.UpdatedAt = stored.UpdatedAt
	return nil
}

// BumpVersion simulates a concurrent writer committing first.
func (s *Store) BumpVersion(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.st.reports[id]
	r.Version++
	s.st.reports[id] = r
}

func (s *Store) listReports(keep func(models.Report) bool) []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Report{}
	for _, r := range s.st.reports {
		if keep(r) {
			out = append(out, s.withReportRelations(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListReportsByStatus(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	return s.listReports(func(r models.Report) bool { return r.Status == status }), nil
}

func (s *Store) ListReportsByCreator(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.listReports(func(r models.Report) bool { return r.CreatedByID == userID }), nil
}

func (s *Store) ListReportsByAssignee(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.listReports(func(r models.Report) bool { return r.IsAssignee(userID) }), nil
}

func (s *Store) ListReportsForSupervisor(ctx context.Context, userID uint) ([]models.Report, error) {
	return s.listReports(func(r models.Report) bool {
		return r.IsSupervisor(userID) || (r.Status == models.StatusAssigned && r.AssignedToID == nil)
	}), nil
}

// --- reference data ---

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userPtr(id)
	if u == nil {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return u, nil
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
		u.CreatedAt = s.Now()
	}
	s.st.users[u.ID] = *u
	return nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.categories[id]
	if !ok {
		return nil, apperr.NotFound("category %d not found", id)
	}
	c = s.withOffice(c)
	return &c, nil
}

func (s *Store) withOffice(c models.Category) models.Category {
	c.Office = nil
	if c.OfficeID != nil {
		if o, ok := s.st.offices[*c.OfficeID]; ok {
			c.Office = &o
		}
	}
	return c
}

func (s *Store) SaveCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	stored := *c
	stored.Office = nil
	s.st.categories[c.ID] = stored
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Category{}
	for _, c := range s.st.categories {
		out = append(out, s.withOffice(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- chat ---

func (s *Store) withThreadRelations(t models.ChatThread) models.ChatThread {
	t.User1 = s.userPtr(t.User1ID)
	t.User2 = s.userPtr(t.User2ID)
	return t
}

func (s *Store) sortedThreads(keep func(models.ChatThread) bool) []models.ChatThread {
	out := []models.ChatThread{}
	for _, t := range s.st.threads {
		if keep(t) {
			out = append(out, s.withThreadRelations(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) findThread(reportID, a, b uint) *models.ChatThread {
	u1, u2 := models.OrderedPair(a, b)
	for _, t := range s.st.threads {
		if t.ReportID == reportID && t.User1ID == u1 && t.User2ID == u2 {
			t = s.withThreadRelations(t)
			return &t
		}
	}
	return nil
}

func (s *Store) FindThread(ctx context.Context, reportID, userA, userB uint) (*models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findThread(reportID, userA, userB), nil
}

func (s *Store) CreateThreadIfAbsent(ctx context.Context, t *models.ChatThread) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.User1ID, t.User2ID = models.OrderedPair(t.User1ID, t.User2ID)
	if existing := s.findThread(t.ReportID, t.User1ID, t.User2ID); existing != nil {
		*t = *existing
		return false, nil
	}
	t.ID = s.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.Now()
	}
	stored := *t
	stored.Report, stored.User1, stored.User2 = nil, nil, nil
	s.st.threads[t.ID] = stored
	return true, nil
}

func (s *Store) GetThreadByID(ctx context.Context, id uint) (*models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.threads[id]
	if !ok {
		return nil, apperr.NotFound("chat %d not found", id)
	}
	t = s.withThreadRelations(t)
	return &t, nil
}

func (s *Store) ListThreadsByReport(ctx context.Context, reportID uint) ([]models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedThreads(func(t models.ChatThread) bool { return t.ReportID == reportID }), nil
}

func (s *Store) ListThreadsByUser(ctx context.Context, userID uint) ([]models.ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedThreads(func(t models.ChatThread) bool { return t.HasParticipant(userID) }), nil
}

// --- messages ---

func (s *Store) SaveMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	if m.SentAt.IsZero() {
		m.SentAt = s.Now()
	}
	stored := *m
	stored.Report, stored.Sender, stored.Receiver = nil, nil, nil
	s.st.messages[m.ID] = stored
	return nil
}

func (s *Store) listMessages(keep func(models.Message) bool) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.st.messages {
		if !keep(m) {
			continue
		}
		m.Sender = s.userPtr(m.SenderID)
		m.Receiver = s.optUser(m.ReceiverID)
		if r, ok := s.st.reports[m.ReportID]; ok {
			m.Report = &r
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListMessagesByReport(ctx context.Context, reportID uint) ([]models.Message, error) {
	return s.listMessages(func(m models.Message) bool { return m.ReportID == reportID }), nil
}

func (s *Store) ListMessagesByThread(ctx context.Context, threadID uint) ([]models.Message, error) {
	return s.listMessages(func(m models.Message) bool { return m.ThreadID != nil && *m.ThreadID == threadID }), nil
}

func (s *Store) ListMessagesByUser(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.listMessages(func(m models.Message) bool { return m.Involves(userID) }), nil
}

// --- notifications ---

func (s *Store) withNotificationRelations(n models.Notification) models.Notification {
	n.User = s.userPtr(n.UserID)
	if r, ok := s.st.reports[n.ReportID]; ok {
		r = s.withReportRelations(r)
		n.Report = &r
	}
	if n.MessageID != nil {
		if m, ok := s.st.messages[*n.MessageID]; ok {
			m.Sender = s.userPtr(m.SenderID)
			n.Message = &m
		}
	}
	return n
}

func (s *Store) SaveNotification(ctx context.Context, n *models.Notification) error {
	if s.SaveNotificationErr != nil {
		return s.SaveNotificationErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.Now()
	}
	stored := *n
	stored.User, stored.Report, stored.Message = nil, nil, nil
	s.st.notifications[n.ID] = stored
	return nil
}

func (s *Store) GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.st.notifications[id]
	if !ok {
		return nil, apperr.NotFound("notification %d not found", id)
	}
	n = s.withNotificationRelations(n)
	return &n, nil
}

func (s *Store) listNotifications(keep func(models.Notification) bool) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for _, n := range s.st.notifications {
		if keep(n) {
			out = append(out, s.withNotificationRelations(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	return s.listNotifications(func(models.Notification) bool { return true }), nil
}

func (s *Store) ListNotificationsForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.listNotifications(func(n models.Notification) bool { return n.UserID == userID }), nil
}

func (s *Store) MarkNotificationSeen(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.st.notifications[id]
	if !ok {
		return apperr.NotFound("notification %d not found", id)
	}
	n.Seen = true
	s.st.notifications[id] = n
	return nil
}

func (s *Store) CountUnseenNotifications(ctx context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.st.notifications {
		if n.UserID == userID && !n.Seen {
			count++
		}
	}
	return count, nil
}

// FixedClock returns a clock that advances by step on every call, starting at start.
func FixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := current
		current = current.Add(step)
		return t
	}
}
