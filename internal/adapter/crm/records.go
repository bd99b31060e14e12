package crm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ai2b/zena-toolserver/internal/domain"
	"github.com/ai2b/zena-toolserver/internal/tenant"
)

type recordWire struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Status string `json:"status"`
	// The CRM sends the master as an {id, name} object under "master_id".
	Master  domain.NamedRef `json:"master_id"`
	Product domain.NamedRef `json:"product"`
}

// ClientRecords returns the client's pending bookings in one branch, oldest
// first. Records whose date string does not parse keep their CRM order at
// the end of the list.
func (g *Gateway) ClientRecords(ctx context.Context, userID string, channelID int) ([]domain.ClientRecord, error) {
	ctx, span := g.tracer.Start(ctx, "crm.get_client_records")
	defer span.End()

	resp, err := g.doJSON(ctx, "get_client_records", pathClientRecords, map[string]any{
		"user_id":    userID,
		"channel_id": channelID,
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("op=crm.get_client_records: %w", statusError("get_client_records", resp.status))
	}

	var out struct {
		Success bool         `json:"success"`
		Error   string       `json:"error"`
		Records []recordWire `json:"records"`
	}
	if err := decodeJSON("get_client_records", resp.body, &out); err != nil {
		return nil, fmt.Errorf("op=crm.get_client_records: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("op=crm.get_client_records: %w: %s", domain.ErrCRM, out.Error)
	}

	records := make([]domain.ClientRecord, 0, len(out.Records))
	for _, w := range out.Records {
		if w.Status != "pending" {
			continue
		}
		rec := domain.ClientRecord{
			ID:          w.ID,
			Date:        w.Date,
			ChannelID:   channelID,
			MasterID:    w.Master.ID,
			MasterName:  w.Master.Name,
			ProductID:   w.Product.ID,
			ProductName: w.Product.Name,
			Status:      w.Status,
		}
		// UTC here is for ordering only; the strings go back out verbatim.
		if ts, err := tenant.ParseSlot(time.UTC, w.Date); err == nil {
			rec.ParsedAt = ts
		}
		records = append(records, rec)
	}
	domain.SortRecords(records)
	return records, nil
}

// DeleteClientRecord cancels one booking. The CRM reports unknown records
// with success=false rather than a 404.
func (g *Gateway) DeleteClientRecord(ctx context.Context, userID string, officeID int, recordID int64) (string, error) {
	ctx, span := g.tracer.Start(ctx, "crm.delete_client_record")
	defer span.End()

	resp, err := g.doJSON(ctx, "delete_client_record", pathDeleteRecord, map[string]any{
		"user_id":   userID,
		"office_id": officeID,
		"record_id": recordID,
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("op=crm.delete_client_record: %w", statusError("delete_client_record", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := decodeJSON("delete_client_record", resp.body, &out); err != nil {
		return "", fmt.Errorf("op=crm.delete_client_record: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("op=crm.delete_client_record: %w", domain.ErrNotFound)
	}
	if out.Message == "" {
		out.Message = "Запись отменена"
	}
	return out.Message, nil
}

// RescheduleClientRecord moves one booking to a new date and time.
func (g *Gateway) RescheduleClientRecord(ctx context.Context, userID string, officeID int, recordID int64, date, timeOfDay string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "crm.reschedule_client_record")
	defer span.End()

	resp, err := g.doJSON(ctx, "reschedule_client_record", pathRescheduleRecord, map[string]any{
		"user_id":   userID,
		"office_id": officeID,
		"record_id": recordID,
		"date":      date,
		"time":      timeOfDay,
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("op=crm.reschedule_client_record: %w", statusError("reschedule_client_record", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := decodeJSON("reschedule_client_record", resp.body, &out); err != nil {
		return "", fmt.Errorf("op=crm.reschedule_client_record: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("op=crm.reschedule_client_record: %w: %s", domain.ErrCRM, out.Error)
	}
	if out.Message == "" {
		out.Message = "Запись перенесена"
	}
	return out.Message, nil
}
