package observability

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with structured logging
//
// Usage in defer statements:
//
//	func handle(event watcher.Event) {
//	    defer observability.RecoverPanic(logger, "watch handler")
//	    // ... code that might panic
//	}
//
// After logging, the panic is NOT re-raised, so a long-running watch loop
// keeps serving later events.
func RecoverPanic(logger *logrus.Logger, context string) {
	if r := recover(); r != nil {
		logger.WithFields(logrus.Fields{
			"panic":   r,
			"stack":   string(debug.Stack()),
			"context": context,
		}).Error("PANIC recovered")
	}
}
