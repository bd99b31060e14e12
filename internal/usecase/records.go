package usecase

import (
	"fmt"
	"sync"

	"log/slog"

	"github.com/ai2b/zena-toolserver/internal/domain"
	obsctx "github.com/ai2b/zena-toolserver/internal/observability"
	"github.com/ai2b/zena-toolserver/internal/tenant"
)

// RecordsService lists a client's pending bookings across every branch of
// a tenant. Branch failures are tolerated as long as at least one branch
// answers; the merged list is re-sorted as one timeline.
type RecordsService struct {
	Records domain.RecordSource
}

// NewRecordsService constructs a RecordsService.
func NewRecordsService(records domain.RecordSource) RecordsService {
	return RecordsService{Records: records}
}

// ClientRecords queries all branches in parallel and merges the results.
// Only when every branch fails does the call fail, with the first error.
func (s RecordsService) ClientRecords(ctx domain.Context, t tenant.Spec, userID string) ([]domain.ClientRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id required", domain.ErrInvalidArgument)
	}

	perBranch := make([][]domain.ClientRecord, len(t.Channels))
	errs := make([]error, len(t.Channels))
	var wg sync.WaitGroup
	for i, channel := range t.Channels {
		wg.Add(1)
		go func(i, channel int) {
			defer wg.Done()
			perBranch[i], errs[i] = s.Records.ClientRecords(ctx, userID, channel)
		}(i, channel)
	}
	wg.Wait()

	var merged []domain.ClientRecord
	var failed int
	var firstErr error
	for i, channel := range t.Channels {
		if errs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			obsctx.LoggerFromContext(ctx).Warn("branch record listing failed",
				slog.String("tenant", t.Name),
				slog.Int("channel_id", channel),
				slog.Any("error", errs[i]))
			continue
		}
		merged = append(merged, perBranch[i]...)
	}
	if failed == len(t.Channels) {
		return nil, fmt.Errorf("op=records.client_records: %w: %v", domain.ErrCRMUnavailable, firstErr)
	}

	domain.SortRecords(merged)
	if merged == nil {
		merged = []domain.ClientRecord{}
	}
	return merged, nil
}
