package tenant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_Default(t *testing.T) {
	loc := Location("no-tz-tenant")
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLocation_FromEnv(t *testing.T) {
	t.Setenv("MCP_TZ_EKB_TENANT", "Asia/Yekaterinburg")
	loc := Location("ekb-tenant")
	assert.Equal(t, "Asia/Yekaterinburg", loc.String())
}

func TestLocation_InvalidFallsBack(t *testing.T) {
	t.Setenv("MCP_TZ_BROKEN_TENANT", "Mars/Olympus")
	loc := Location("broken-tenant")
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLocation_Cached(t *testing.T) {
	t.Setenv("MCP_TZ_CACHED_TENANT", "Europe/Samara")
	first := Location("cached-tenant")
	// Env changes after first resolution must not change the answer.
	t.Setenv("MCP_TZ_CACHED_TENANT", "Asia/Novosibirsk")
	second := Location("cached-tenant")
	assert.Same(t, first, second)
}

func TestParseSlot(t *testing.T) {
	t.Parallel()

	ekb, err := time.LoadLocation("Asia/Yekaterinburg")
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      string
		wantUTC string
		wantErr bool
	}{
		{"rfc3339 zulu", "2026-09-01T10:30:00Z", "2026-09-01T10:30:00Z", false},
		{"rfc3339 offset kept", "2026-09-01T10:30:00+04:00", "2026-09-01T06:30:00Z", false},
		{"offset without seconds", "2026-09-01T10:30+05:00", "2026-09-01T05:30:00Z", false},
		{"naive space is tenant-local", "2026-09-01 10:30", "2026-09-01T05:30:00Z", false},
		{"naive with seconds", "2026-09-01 10:30:45", "2026-09-01T05:30:45Z", false},
		{"naive t separator", "2026-09-01T10:30", "2026-09-01T05:30:00Z", false},
		{"garbage", "завтра в десять", "", true},
		{"empty", "  ", "", true},
		{"date only", "2026-09-01", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSlot(ekb, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUTC, got.UTC().Format(time.RFC3339))
		})
	}
}

func TestFormatSlot(t *testing.T) {
	t.Parallel()

	msk := Location("no-tz-tenant")
	ts := time.Date(2026, 9, 1, 7, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-01 10:30", FormatSlot(ts, msk))
}
