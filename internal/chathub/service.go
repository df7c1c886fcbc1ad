// Package chathub owns the private chat threads and the report comment
// stream. Every posted message is handed to a MessageSink after it is stored.
package chathub

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/config"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// MessageSink is notified about every stored message.
type MessageSink interface {
	OnNewMessage(ctx context.Context, msg *models.Message)
}

// Service handles thread and message operations for authenticated actors.
type Service struct {
	Storage storage.Storage
	Sink    MessageSink

	log      *zap.SugaredLogger
	clock    func() time.Time
	sanitize *bluemonday.Policy
}

type Option func(*Service)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService Constructor. sink may be nil.
func NewService(store storage.Storage, sink MessageSink, opts ...Option) *Service {
	s := &Service{
		Storage:  store,
		Sink:     sink,
		log:      zap.NewNop().Sugar(),
		clock:    time.Now,
		sanitize: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureThread creates the thread between a and b on the report unless it
// already exists, using the given (possibly transactional) storage.
func EnsureThread(ctx context.Context, store storage.Storage, reportID, a, b uint) (*models.ChatThread, bool, error) {
	if a == b {
		return nil, false, apperr.Validation("a chat needs two different participants")
	}
	u1, u2 := models.OrderedPair(a, b)
	existing, err := store.FindThread(ctx, reportID, u1, u2)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	t := &models.ChatThread{ReportID: reportID, User1ID: u1, User2ID: u2}
	created, err := store.CreateThreadIfAbsent(ctx, t)
	if err != nil {
		return nil, false, err
	}
	return t, created, nil
}

// CreateThread opens a chat between the actor and otherUserID about a report
// the actor can see. Repeating the call returns the existing thread.
func (s *Service) CreateThread(ctx context.Context, actor models.Actor, reportID, otherUserID uint) (*models.ChatThread, error) {
	if actor.ID == otherUserID {
		return nil, apperr.Validation("cannot open a chat with yourself")
	}
	report, err := s.Storage.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.VisibleTo(actor) {
		return nil, apperr.Forbidden("report %d is not visible to user %d", reportID, actor.ID)
	}
	if _, err := s.Storage.GetUserByID(ctx, otherUserID); err != nil {
		return nil, err
	}

	t, created, err := EnsureThread(ctx, s.Storage, reportID, actor.ID, otherUserID)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Infow("chat thread created", "thread_id", t.ID, "report_id", reportID, "user1_id", t.User1ID, "user2_id", t.User2ID)
	}
	return s.Storage.GetThreadByID(ctx, t.ID)
}

// FindByReport lists the report's threads. Staff see every thread, other
// users only those they take part in.
func (s *Service) FindByReport(ctx context.Context, actor models.Actor, reportID uint) ([]models.ChatThread, error) {
	report, err := s.Storage.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.VisibleTo(actor) {
		return nil, apperr.Forbidden("report %d is not visible to user %d", reportID, actor.ID)
	}
	threads, err := s.Storage.ListThreadsByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsStaff() {
		return threads, nil
	}
	mine := make([]models.ChatThread, 0, len(threads))
	for _, t := range threads {
		if t.HasParticipant(actor.ID) {
			mine = append(mine, t)
		}
	}
	return mine, nil
}

func (s *Service) FindByUser(ctx context.Context, actor models.Actor) ([]models.ChatThread, error) {
	return s.Storage.ListThreadsByUser(ctx, actor.ID)
}

// FindByID returns a thread the actor takes part in. Administrators may read any thread.
func (s *Service) FindByID(ctx context.Context, actor models.Actor, threadID uint) (*models.ChatThread, error) {
	t, err := s.Storage.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !t.HasParticipant(actor.ID) && !actor.Is(models.RoleMunicipalAdministrator) {
		return nil, apperr.Forbidden("user %d is not a participant of chat %d", actor.ID, threadID)
	}
	return t, nil
}

// PostToThread stores a message from the actor to the other participant.
func (s *Service) PostToThread(ctx context.Context, actor models.Actor, threadID uint, text string) (*models.Message, error) {
	clean, err := s.cleanText(text)
	if err != nil {
		return nil, err
	}
	t, err := s.Storage.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !t.HasParticipant(actor.ID) {
		return nil, apperr.Forbidden("user %d is not a participant of chat %d", actor.ID, threadID)
	}
	receiver := t.Other(actor.ID)
	msg := &models.Message{
		ReportID:   t.ReportID,
		ThreadID:   &t.ID,
		SenderID:   actor.ID,
		ReceiverID: &receiver,
		Text:       clean,
	}
	return s.save(ctx, msg)
}

// PostToReport adds a comment to the report's flat stream, optionally
// addressed to receiverID.
func (s *Service) PostToReport(ctx context.Context, actor models.Actor, reportID uint, text string, receiverID *uint) (*models.Message, error) {
	clean, err := s.cleanText(text)
	if err != nil {
		return nil, err
	}
	report, err := s.Storage.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.VisibleTo(actor) {
		return nil, apperr.Forbidden("report %d is not visible to user %d", reportID, actor.ID)
	}
	if receiverID != nil {
		if *receiverID == actor.ID {
			return nil, apperr.Validation("receiver must differ from sender")
		}
		if _, err := s.Storage.GetUserByID(ctx, *receiverID); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.Validation("receiver %d does not exist", *receiverID)
			}
			return nil, err
		}
	}
	msg := &models.Message{
		ReportID:   reportID,
		SenderID:   actor.ID,
		ReceiverID: receiverID,
		Text:       clean,
	}
	return s.save(ctx, msg)
}

func (s *Service) save(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.SentAt = s.clock()
	if err := s.Storage.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.log.Debugw("message stored", "message_id", msg.ID, "report_id", msg.ReportID, "sender_id", msg.SenderID)
	if s.Sink != nil {
		s.Sink.OnNewMessage(ctx, msg)
	}
	return msg, nil
}

func (s *Service) cleanText(text string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(s.sanitize.Sanitize(text)))
	if clean == "" {
		return "", apperr.Validation("message text must not be empty")
	}
	if utf8.RuneCountInString(clean) > config.MaxMessageLength {
		return "", apperr.Validation("message text exceeds %d characters", config.MaxMessageLength)
	}
	return clean, nil
}
