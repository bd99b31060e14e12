package crm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ai2b/zena-toolserver/internal/domain"
	obsctx "github.com/ai2b/zena-toolserver/internal/observability"
)

// statusBugError is the exact error string the CRM emits when its own
// upstream answers 400 after the booking was already written. The record
// exists in that case, so the envelope counts as success.
const statusBugError = "Неожиданный код статуса: 400"

// RecordTime books a slot with a master. A response matching the known
// 400-status bug is normalized into a confirmation; any other CRM-reported
// failure surfaces as an error.
func (g *Gateway) RecordTime(ctx context.Context, req domain.BookingRequest) (domain.BookingConfirmation, error) {
	ctx, span := g.tracer.Start(ctx, "crm.record_time")
	defer span.End()

	payload := map[string]any{
		"product_id": req.ProductID,
		"date":       req.Date,
		"time":       req.Time,
		"user_id":    req.UserID,
		"staff_id":   req.StaffID,
		"channel_id": req.ChannelID,
	}
	if req.Comment != "" {
		payload["comment"] = req.Comment
	}

	resp, err := g.doJSON(ctx, "record_time", pathRecordTime, payload)
	if err != nil {
		return domain.BookingConfirmation{}, err
	}
	// The bug can surface as a raw 400 as well; decode before judging status.
	if resp.status != http.StatusOK && resp.status != http.StatusBadRequest {
		return domain.BookingConfirmation{}, fmt.Errorf("op=crm.record_time: %w", statusError("record_time", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := decodeJSON("record_time", resp.body, &out); err != nil {
		return domain.BookingConfirmation{}, fmt.Errorf("op=crm.record_time: %w", err)
	}

	if !out.Success {
		if out.Error != statusBugError {
			if resp.status == http.StatusBadRequest {
				return domain.BookingConfirmation{}, fmt.Errorf("op=crm.record_time: %w: %s", domain.ErrInvalidArgument, out.Error)
			}
			return domain.BookingConfirmation{}, fmt.Errorf("op=crm.record_time: %w: %s", domain.ErrCRM, out.Error)
		}
		obsctx.LoggerFromContext(ctx).Info("record_time status bug normalized",
			slog.String("product_id", req.ProductID), slog.Int64("staff_id", req.StaffID))
	}

	return domain.BookingConfirmation{
		Info: fmt.Sprintf("Запись к master_id=%d на %s %s создана", req.StaffID, req.Date, req.Time),
	}, nil
}
