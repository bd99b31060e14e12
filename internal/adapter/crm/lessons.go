package crm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// The /go/* family talks to the secondary CRM. Same envelope, same retry
// semantics, different backend.

// LessonRecords lists the client's lessons in the secondary CRM.
func (g *Gateway) LessonRecords(ctx context.Context, userID string, channelID int) ([]domain.Lesson, error) {
	ctx, span := g.tracer.Start(ctx, "crm.go_get_client_lessons")
	defer span.End()

	resp, err := g.doJSON(ctx, "go_get_client_lessons", pathGoClientLessons, map[string]any{
		"user_id":    userID,
		"channel_id": channelID,
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("op=crm.go_get_client_lessons: %w", statusError("go_get_client_lessons", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Lessons []struct {
			ID      int64           `json:"id"`
			Date    string          `json:"date"`
			Status  string          `json:"status"`
			Product domain.NamedRef `json:"product"`
		} `json:"lessons"`
	}
	if err := decodeJSON("go_get_client_lessons", resp.body, &out); err != nil {
		return nil, fmt.Errorf("op=crm.go_get_client_lessons: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("op=crm.go_get_client_lessons: %w: %s", domain.ErrCRM, out.Error)
	}

	lessons := make([]domain.Lesson, len(out.Lessons))
	for i, l := range out.Lessons {
		lessons[i] = domain.Lesson{ID: l.ID, Date: l.Date, Status: l.Status, Product: l.Product}
	}
	return lessons, nil
}

// UpdateClientInfo patches client profile fields in the secondary CRM.
func (g *Gateway) UpdateClientInfo(ctx context.Context, userID string, channelID int, fields map[string]string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "crm.go_update_client_info")
	defer span.End()

	if len(fields) == 0 {
		return "", fmt.Errorf("op=crm.go_update_client_info: %w: no fields to update", domain.ErrInvalidArgument)
	}

	resp, err := g.doJSON(ctx, "go_update_client_info", pathGoUpdateClient, map[string]any{
		"user_id":    userID,
		"channel_id": channelID,
		"fields":     fields,
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("op=crm.go_update_client_info: %w", statusError("go_update_client_info", resp.status))
	}

	return decodeAck("go_update_client_info", resp.body, "Данные клиента обновлены")
}

// UpdateClientLesson moves or edits one lesson in the secondary CRM.
func (g *Gateway) UpdateClientLesson(ctx context.Context, userID string, lessonID int64, date, timeOfDay string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "crm.go_update_client_lesson")
	defer span.End()

	resp, err := g.doJSON(ctx, "go_update_client_lesson", pathGoUpdateLesson, map[string]any{
		"user_id":   userID,
		"lesson_id": lessonID,
		"date":      date,
		"time":      timeOfDay,
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("op=crm.go_update_client_lesson: %w", statusError("go_update_client_lesson", resp.status))
	}

	return decodeAck("go_update_client_lesson", resp.body, "Занятие обновлено")
}

// ClientStatistics returns the visit summary the secondary CRM keeps per
// client.
func (g *Gateway) ClientStatistics(ctx context.Context, userID string, channelID int) (domain.ClientStatistics, error) {
	ctx, span := g.tracer.Start(ctx, "crm.go_get_client_statistics")
	defer span.End()

	resp, err := g.doJSON(ctx, "go_get_client_statistics", pathGoClientStats, map[string]any{
		"user_id":    userID,
		"channel_id": channelID,
	})
	if err != nil {
		return domain.ClientStatistics{}, err
	}
	if resp.status != http.StatusOK {
		return domain.ClientStatistics{}, fmt.Errorf("op=crm.go_get_client_statistics: %w", statusError("go_get_client_statistics", resp.status))
	}

	var out struct {
		Success    bool                    `json:"success"`
		Error      string                  `json:"error"`
		Statistics domain.ClientStatistics `json:"statistics"`
	}
	if err := decodeJSON("go_get_client_statistics", resp.body, &out); err != nil {
		return domain.ClientStatistics{}, fmt.Errorf("op=crm.go_get_client_statistics: %w", err)
	}
	if !out.Success {
		return domain.ClientStatistics{}, fmt.Errorf("op=crm.go_get_client_statistics: %w: %s", domain.ErrCRM, out.Error)
	}
	return out.Statistics, nil
}

// decodeAck handles the common {success, message} acknowledgement shape.
func decodeAck(operation string, body []byte, fallback string) (string, error) {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := decodeJSON(operation, body, &out); err != nil {
		return "", fmt.Errorf("op=crm.%s: %w", operation, err)
	}
	if !out.Success {
		return "", fmt.Errorf("op=crm.%s: %w: %s", operation, domain.ErrCRM, out.Error)
	}
	if out.Message == "" {
		out.Message = fallback
	}
	return out.Message, nil
}
