// Package handler exposes the report, chat and notification services over
// HTTP with gin.
package handler

import (
	"civicreport/backend/internal/auth"
	"civicreport/backend/internal/chathub"
	"civicreport/backend/internal/notify"
	"civicreport/backend/internal/workflow"

	"go.uber.org/zap"
)

// Handler holds the services the routes delegate to.
type Handler struct {
	Reports       *workflow.Engine
	Chats         *chathub.Service
	Notifications *notify.Dispatcher
	Identity      auth.Identity
	Log           *zap.SugaredLogger
}

func NewHandler(reports *workflow.Engine, chats *chathub.Service, notifications *notify.Dispatcher, identity auth.Identity, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{
		Reports:       reports,
		Chats:         chats,
		Notifications: notifications,
		Identity:      identity,
		Log:           log,
	}
}
