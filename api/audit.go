package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess    AuditEvent = "login_success"
	AuditLoginFailure    AuditEvent = "login_failure"
	AuditRegister        AuditEvent = "register"
	AuditLogout          AuditEvent = "logout"
	AuditAccessDenied    AuditEvent = "access_denied"
	AuditResetRequested  AuditEvent = "reset_requested"
	AuditPasswordChanged AuditEvent = "password_changed"
)

// redaction replaces PII attribute values in emitted audit entries.
const redaction = "***"

// piiFields names the attribute keys whose values never reach the log
// stream in the clear.
var piiFields = map[string]struct{}{
	"email":    {},
	"password": {},
	"phone":    {},
	"ssn":      {},
}

// redactAttr masks the value of a PII attribute, leaving the key so the
// entry still records which field was involved.
func redactAttr(a slog.Attr) slog.Attr {
	if _, ok := piiFields[a.Key]; ok {
		return slog.String(a.Key, redaction)
	}
	return a
}

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry. Identifiers logged here are
// user IDs, never tokens or password material; PII-carrying attributes
// are redacted before emission.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	for _, a := range attrs {
		baseAttrs = append(baseAttrs, redactAttr(a))
	}

	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	if al.metrics != nil {
		al.metrics.recordEvent(event)
	}
}

// logEvent is a convenience for events with a subject identifier.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, subject string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("subject", subject),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a failed authentication attempt.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
