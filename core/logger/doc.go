// Package logger provides slog attribute helpers shared by the mediator packages.
//
// Helpers follow the empty Attr pattern: a nil error or an empty identifier produces
// an empty slog.Attr, which slog handlers drop, so call sites never need nil checks:
//
//	log.ErrorContext(ctx, "handler failed",
//		logger.Lane("queue"),
//		logger.Message("OrderPlaced"),
//		logger.Attempts(3),
//		logger.Error(err),
//	)
//
// Lane, Message, MessageID, Attempts, BatchSize and Depth describe dispatch; Error and
// Errors describe failures; Duration and Elapsed describe timing.
package logger
