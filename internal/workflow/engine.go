// Package workflow enforces the report lifecycle: role gating, legal state
// transitions, assignment bookkeeping and status-change events.
package workflow

import (
	"context"
	"time"

	"civicreport/backend/internal/config"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage"

	"go.uber.org/zap"
)

// EventSink receives committed status changes.
type EventSink interface {
	OnStatusChange(ctx context.Context, report *models.Report, prev, next models.ReportStatus)
}

// ChatPolicy selects the two parties of the thread opened on external assignment.
type ChatPolicy string

const (
	// ChatStaffMaintainer opens a thread between the assigning technical
	// staff member and the maintainer.
	ChatStaffMaintainer ChatPolicy = "staff_maintainer"
	// ChatMaintainerCitizen opens a thread between the maintainer and the
	// report creator.
	ChatMaintainerCitizen ChatPolicy = "maintainer_citizen"
)

// ParseChatPolicy maps a configuration value to a policy, defaulting to ChatStaffMaintainer.
func ParseChatPolicy(v string) ChatPolicy {
	if ChatPolicy(v) == ChatMaintainerCitizen {
		return ChatMaintainerCitizen
	}
	return ChatStaffMaintainer
}

// Engine is the only writer of report status and assignment.
type Engine struct {
	Storage storage.Storage
	Events  EventSink

	log        *zap.SugaredLogger
	chatPolicy ChatPolicy
	timeout    time.Duration
}

type Option func(*Engine)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func WithChatPolicy(p ChatPolicy) Option {
	return func(e *Engine) { e.chatPolicy = p }
}

// WithTimeout bounds every engine operation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine Constructor. events may be nil.
func NewEngine(store storage.Storage, events EventSink, opts ...Option) *Engine {
	e := &Engine{
		Storage:    store,
		Events:     events,
		log:        zap.NewNop().Sugar(),
		chatPolicy: ChatStaffMaintainer,
		timeout:    config.DefaultOperationTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
