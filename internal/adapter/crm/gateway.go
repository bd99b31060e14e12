// Package crm is the gateway to the salon CRM on httpservice.ai2b.pro.
// All operations go through one pooled HTTP client and one retry envelope;
// response decoding honors the CRM's wire vocabulary as-is, misspellings
// included (avaliable_sequences).
package crm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
	"github.com/ai2b/zena-toolserver/internal/tenant"
)

// Endpoint paths, CRM spelling kept.
const (
	pathClientRecords     = "/get_client_records"
	pathDeleteRecord      = "/delete_client_record"
	pathRescheduleRecord  = "/reschedule_client_record"
	pathRecordTime        = "/record_time"
	pathMasterTimes       = "/avaliable_time_for_master"
	pathMasterTimesList   = "/avaliable_time_for_master_list"
	pathMasters           = "/get_masters"
	pathCallAdministrator = "/call_administrator"

	pathGoClientLessons = "/go/get_client_lessons"
	pathGoUpdateClient  = "/go/update_client_info"
	pathGoUpdateLesson  = "/go/update_client_lesson"
	pathGoClientStats   = "/go/get_client_statistics"
)

// Gateway holds the CRM base URL, the shared pooled client and the retry
// policy. It is safe for concurrent use by every tenant server.
type Gateway struct {
	baseURL string
	hc      *http.Client
	policy  Policy
	timeout time.Duration
	tracer  trace.Tracer

	// injected for tests
	locate func(name string) *time.Location
	now    func() time.Time
}

// NewGateway builds the process-wide CRM gateway. The base URL is trimmed of
// trailing slashes once; operation URLs are concatenated lazily per call.
func NewGateway(cfg config.Config, hc *http.Client) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(cfg.CRMBaseURL, "/"),
		hc:      hc,
		policy:  PolicyFromConfig(cfg),
		timeout: cfg.CRMTimeout(),
		tracer:  otel.Tracer("crm"),
		locate:  tenant.Location,
		now:     time.Now,
	}
}

// statusError maps a terminal non-2xx status onto the sentinel taxonomy.
// 5xx never reaches here (the envelope retries it); the default arm covers
// odd statuses like 3xx.
func statusError(operation string, status int) error {
	switch {
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s status 400", domain.ErrInvalidArgument, operation)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s status %d", domain.ErrUnauthorized, operation, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s status 404", domain.ErrNotFound, operation)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s status 409", domain.ErrConflict, operation)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: %s status %d", domain.ErrCRM, operation, status)
	default:
		return fmt.Errorf("%w: %s status %d", domain.ErrHTTP, operation, status)
	}
}

// decodeJSON unmarshals a CRM body, mapping malformed JSON to
// ErrInvalidResponse so callers never see raw decode errors.
func decodeJSON(operation string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidResponse, operation, err)
	}
	return nil
}
