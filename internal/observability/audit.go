package observability

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Audit emits a free-form audit log line tied to the request trace.
func Audit(r *http.Request, event string, attrs ...any) {
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), msg, base...)
}

// AuditInput is the caller-supplied portion of a taxonomy audit event.
type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetType  string
	TargetID    string
	Action      string
	Outcome     string
	Reason      string
}

// AuditEvent is the versioned audit record written for every admin and
// auth mutation. All fields are required.
type AuditEvent struct {
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorUserID  string `json:"actor_user_id"`
	ActorIP      string `json:"actor_ip"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Action       string `json:"action"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason"`
	RequestID    string `json:"request_id"`
	TS           string `json:"ts"`
}

func (e AuditEvent) Validate() error {
	required := map[string]string{
		"event_name":    e.EventName,
		"actor_user_id": e.ActorUserID,
		"actor_ip":      e.ActorIP,
		"target_type":   e.TargetType,
		"target_id":     e.TargetID,
		"action":        e.Action,
		"outcome":       e.Outcome,
		"reason":        e.Reason,
		"request_id":    e.RequestID,
		"ts":            e.TS,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("audit event missing %s", field)
		}
	}
	if e.EventVersion < 1 {
		return fmt.Errorf("audit event missing event_version")
	}
	return nil
}

func BuildAuditEvent(r *http.Request, input AuditInput) AuditEvent {
	actorIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		actorIP = host
	}
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = "unknown"
	}
	actorID := input.ActorUserID
	if actorID == "" {
		actorID = "anonymous"
	}
	return AuditEvent{
		EventVersion: 1,
		EventName:    input.EventName,
		ActorUserID:  actorID,
		ActorIP:      actorIP,
		TargetType:   input.TargetType,
		TargetID:     input.TargetID,
		Action:       input.Action,
		Outcome:      input.Outcome,
		Reason:       input.Reason,
		RequestID:    requestID,
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

// EmitAudit builds, validates, and logs a taxonomy audit event. Extra
// attrs are appended verbatim to the log record.
func EmitAudit(r *http.Request, input AuditInput, attrs ...any) {
	ev := BuildAuditEvent(r, input)
	if err := ev.Validate(); err != nil {
		slog.WarnContext(r.Context(), "audit event rejected", "error", err, "event_name", input.EventName)
		return
	}
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	base := []any{
		"event_version", ev.EventVersion,
		"event", ev.EventName,
		"actor_user_id", ev.ActorUserID,
		"actor_ip", ev.ActorIP,
		"target_type", ev.TargetType,
		"target_id", ev.TargetID,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), msg, base...)
}
