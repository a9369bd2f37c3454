package sim

import (
	"github.com/sirupsen/logrus"
)

// A LogHook is a hook that is resonsible for recording information from the
// simulation
type LogHook interface {
	Hook
}

// LogHookBase proovides the common logic for all LogHooks
type LogHookBase struct {
	*logrus.Logger
}

// NewLogHookBase creates a LogHookBase that writes to the given logger. A nil
// logger falls back to the standard logrus logger.
func NewLogHookBase(logger *logrus.Logger) LogHookBase {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return LogHookBase{Logger: logger}
}

// EventLogger is a LogHook that logs every hook invocation at debug level.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger.
func NewEventLogger(logger *logrus.Logger) *EventLogger {
	return &EventLogger{LogHookBase: NewLogHookBase(logger)}
}

// Func writes the hook position, the item and the detail as log fields.
func (h *EventLogger) Func(ctx HookCtx) {
	if !h.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	h.WithFields(logrus.Fields{
		"pos":    ctx.Pos.Name,
		"item":   ctx.Item,
		"detail": ctx.Detail,
	}).Debug("hook")
}
