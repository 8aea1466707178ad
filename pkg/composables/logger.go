package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nordwell/desk-sdk/pkg/configuration"
	"github.com/nordwell/desk-sdk/pkg/constants"
)

// UseLogger returns the request-scoped logger, or the process logger when the
// context carries none.
func UseLogger(ctx context.Context) logrus.FieldLogger {
	if logger, ok := ctx.Value(constants.LoggerKey).(logrus.FieldLogger); ok {
		return logger
	}
	return configuration.Use().Logger()
}
