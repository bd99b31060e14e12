package tenant

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ai2b/zena-toolserver/internal/config"
)

// DefaultTZ is the fleet-wide fallback timezone.
const DefaultTZ = "Europe/Moscow"

var (
	locMu    sync.Mutex
	locCache = map[string]*time.Location{}
)

// Location resolves a tenant's timezone from MCP_TZ_<NAME>, falling back to
// Europe/Moscow when the variable is unset or names an unknown zone. The
// result is cached per tenant; a bad value logs once, it never fails a call.
func Location(name string) *time.Location {
	locMu.Lock()
	defer locMu.Unlock()
	if loc, ok := locCache[name]; ok {
		return loc
	}
	loc := defaultLocation()
	if tz := config.TenantTZ(name); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			slog.Warn("unknown tenant timezone, falling back",
				slog.String("tenant", name), slog.String("tz", tz), slog.String("fallback", DefaultTZ))
		} else {
			loc = parsed
		}
	}
	locCache[name] = loc
	return loc
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTZ)
	if err != nil {
		// tzdata missing entirely; fixed offset keeps the fleet running.
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// slot layouts tried in order. Offset-aware forms win; the naive forms are
// interpreted in the tenant's location.
var (
	offsetLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00"}
	naiveLayouts  = []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02T15:04"}
)

// ParseSlot parses one CRM timestamp. Strings carrying an explicit offset
// (including Z) keep it; naive "YYYY-MM-DD HH:MM[:SS]" strings are taken as
// local time in loc.
func ParseSlot(loc *time.Location, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("op=tenant.ParseSlot: empty timestamp")
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("op=tenant.ParseSlot: unsupported timestamp %q", s)
}

// FormatSlot renders a parsed slot back into the normalized tool-facing form.
func FormatSlot(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04")
}
