package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestAuditRedactsPII(t *testing.T) {
	var buf bytes.Buffer
	al := newAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	r := httptest.NewRequest("POST", "/api/v1/sessions", nil)

	al.logFailure(AuditLoginFailure, r, "invalid credentials",
		slog.String("email", "alice@example.com"))

	entry := auditLine(t, &buf)
	assert.Equal(t, "***", entry["email"])
	assert.NotContains(t, buf.String(), "alice@example.com")
	assert.Equal(t, string(AuditLoginFailure), entry["event"])
	assert.Equal(t, "invalid credentials", entry["reason"])
}

func TestAuditRedactsAllPIIFields(t *testing.T) {
	var buf bytes.Buffer
	al := newAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	r := httptest.NewRequest("POST", "/api/v1/users", nil)

	al.log(AuditRegister, r,
		slog.String("email", "bob@example.com"),
		slog.String("phone", "555-0100"),
		slog.String("ssn", "000-00-0000"),
		slog.String("password", "hunter22"))

	entry := auditLine(t, &buf)
	for _, field := range []string{"email", "phone", "ssn", "password"} {
		assert.Equal(t, "***", entry[field], field)
	}
}

func TestAuditKeepsNonPIIAttrs(t *testing.T) {
	var buf bytes.Buffer
	al := newAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	r := httptest.NewRequest("POST", "/api/v1/users", nil)

	al.logEvent(AuditRegister, r, "user-1234")

	entry := auditLine(t, &buf)
	assert.Equal(t, "user-1234", entry["subject"])
	assert.Equal(t, "audit", entry["component"])
	assert.NotEmpty(t, entry["remote_addr"])
	assert.NotEmpty(t, entry["timestamp"])
}
