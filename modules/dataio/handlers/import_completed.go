// Package handlers contains the dataio event-bus subscribers.
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/pkg/application"
)

type ImportEventHandler struct {
	logger *logrus.Logger
}

func RegisterImportEventHandlers(app application.Application) *ImportEventHandler {
	handler := &ImportEventHandler{logger: app.Logger()}
	app.EventBus().Subscribe(handler.onImportCompleted)
	return handler
}

func (h *ImportEventHandler) onImportCompleted(event importrun.ImportCompleted) {
	h.logger.WithFields(logrus.Fields{
		"tenant":    event.TenantID,
		"target":    event.Target,
		"total":     event.Summary.Total,
		"succeeded": event.Summary.Succeeded,
		"failed":    event.Summary.Failed,
		"took":      event.Duration,
	}).Info("import completed")
}
