// Package logging provides structured logging for taskpanel.
//
// This package wraps Go's log/slog to produce JSON-formatted logs with
// persistent context attributes. Every component logs through a child logger
// tagged with its name, so a single log file can be filtered per component
// after the fact:
//
//	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	panelLog := logger.WithComponent("planpanel")
//	panelLog.Info("panel created", "view_type", "projectPlan")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"panel created","component":"planpanel","view_type":"projectPlan"}
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers share
// the parent's writer.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] to capture it.
package logging
