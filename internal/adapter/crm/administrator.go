package crm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// CallAdministrator hands the whole conversation over to a human
// administrator. The envelope carries the full dialogue so the operator
// does not start blind.
func (g *Gateway) CallAdministrator(ctx context.Context, userID string, channelID int, reason string, conversation []domain.ConversationMessage) (string, error) {
	ctx, span := g.tracer.Start(ctx, "crm.call_administrator")
	defer span.End()

	resp, err := g.doJSON(ctx, "call_administrator", pathCallAdministrator, map[string]any{
		"user_id":      userID,
		"channel_id":   channelID,
		"reason":       reason,
		"conversation": conversation,
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("op=crm.call_administrator: %w", statusError("call_administrator", resp.status))
	}

	return decodeAck("call_administrator", resp.body, "Администратор подключится к диалогу")
}
