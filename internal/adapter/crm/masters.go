package crm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// Masters lists the bookable staff of one branch in CRM order.
func (g *Gateway) Masters(ctx context.Context, channelID int) ([]domain.Master, error) {
	ctx, span := g.tracer.Start(ctx, "crm.get_masters")
	defer span.End()

	resp, err := g.doJSON(ctx, "get_masters", pathMasters, map[string]any{
		"channel_id": channelID,
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("op=crm.get_masters: %w", statusError("get_masters", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Masters []struct {
			ID             int64  `json:"id"`
			Name           string `json:"name"`
			Specialization string `json:"specialization"`
		} `json:"masters"`
	}
	if err := decodeJSON("get_masters", resp.body, &out); err != nil {
		return nil, fmt.Errorf("op=crm.get_masters: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("op=crm.get_masters: %w: %s", domain.ErrCRM, out.Error)
	}

	masters := make([]domain.Master, len(out.Masters))
	for i, m := range out.Masters {
		masters[i] = domain.Master{ID: m.ID, Name: m.Name, Specialization: m.Specialization}
	}
	return masters, nil
}
