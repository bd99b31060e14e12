// Package usecase contains application business logic services.
package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/domain"
	obsctx "github.com/ai2b/zena-toolserver/internal/observability"
	"github.com/ai2b/zena-toolserver/internal/tenant"
)

const (
	msgNoSlots      = "Свободных окон нет"
	msgBranchFailed = "Не удалось получить расписание филиала, попробуйте позже"
	msgNoMapping    = "Услуга недоступна в этом филиале"
)

// AvailabilityService answers "when is this service free" across all
// branches of a tenant. The primary branch is asked first; only when it
// has nothing do the remaining branches get queried, in parallel, each
// isolated from the others' failures.
type AvailabilityService struct {
	Slots    domain.SlotSource
	Articles domain.ArticleMapper
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(slots domain.SlotSource, articles domain.ArticleMapper) AvailabilityService {
	return AvailabilityService{Slots: slots, Articles: articles}
}

// parseProductID splits "channel-article" and validates both sides.
func parseProductID(productID string) (int, string, error) {
	if strings.Count(productID, "-") != 1 {
		return 0, "", fmt.Errorf("%w: product_id must look like \"1-232324\", got %q", domain.ErrInvalidArgument, productID)
	}
	channelStr, article, _ := strings.Cut(productID, "-")
	channel, err := strconv.Atoi(channelStr)
	if err != nil {
		return 0, "", fmt.Errorf("%w: product_id channel %q is not a number", domain.ErrInvalidArgument, channelStr)
	}
	if _, err := strconv.Atoi(article); err != nil {
		return 0, "", fmt.Errorf("%w: product_id article %q is not a number", domain.ErrInvalidArgument, article)
	}
	return channel, article, nil
}

// FreeSlots returns one BranchAvailability per queried branch: the
// requested office first, then, only when the office has no slots, the
// tenant's other branches in configured order.
func (s AvailabilityService) FreeSlots(ctx domain.Context, t tenant.Spec, sessionID string, officeID int, productID, date string, countSlots int) ([]domain.BranchAvailability, error) {
	start := time.Now()

	primaryChannel, article, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if !t.HasChannel(officeID) {
		return nil, fmt.Errorf("%w: office %d is not a branch of %s", domain.ErrInvalidArgument, officeID, t.Name)
	}

	// The requested office leads the answer. When it is not the branch
	// the product id belongs to, translate the article first.
	primaryProduct := productID
	if officeID != primaryChannel {
		mapped, err := s.Articles.BranchArticle(ctx, article, primaryChannel, officeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: услуга недоступна в выбранном филиале", domain.ErrInvalidArgument)
			}
			return nil, err
		}
		primaryProduct = fmt.Sprintf("%d-%s", officeID, mapped)
	}

	primary := s.fetchBranch(ctx, t, officeID, primaryProduct, date, countSlots)
	if errors.Is(primary.err, domain.ErrInvalidArgument) {
		// A bad date fails identically for every branch; surface it
		// instead of fanning out.
		return nil, primary.err
	}
	result := []domain.BranchAvailability{primary.availability}
	if hasSlots(primary.availability) {
		observability.ObserveAvailability(1, time.Since(start).Seconds())
		return result, nil
	}

	others := otherBranches(t.Channels, officeID)
	obsctx.LoggerFromContext(ctx).Debug("primary branch empty, fanning out",
		slog.String("tenant", t.Name),
		slog.String("session_id", sessionID),
		slog.Int("office_id", officeID),
		slog.Int("branches", len(others)))

	// Mapping lookups stay sequential (one short indexed query each);
	// the slot fetches fan out in parallel.
	products := make(map[int]string, len(others))
	branches := make([]domain.BranchAvailability, len(others))
	for i, branch := range others {
		if branch == primaryChannel {
			products[branch] = productID
			continue
		}
		mapped, err := s.Articles.BranchArticle(ctx, article, primaryChannel, branch)
		if err != nil {
			note := msgBranchFailed
			if errors.Is(err, domain.ErrNotFound) {
				note = msgNoMapping
			}
			branches[i] = emptyBranch(branch, "", note)
			continue
		}
		products[branch] = fmt.Sprintf("%d-%s", branch, mapped)
	}

	var wg sync.WaitGroup
	for i, branch := range others {
		product, ok := products[branch]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i, branch int, product string) {
			defer wg.Done()
			fetched := s.fetchBranch(ctx, t, branch, product, date, countSlots)
			branches[i] = fetched.availability
		}(i, branch, product)
	}
	wg.Wait()

	result = append(result, branches...)
	observability.ObserveAvailability(len(result), time.Since(start).Seconds())
	return result, nil
}

type branchResult struct {
	availability domain.BranchAvailability
	err          error
}

// fetchBranch wraps one slot lookup, degrading every failure except
// input validation into an empty branch with a user-facing note.
func (s AvailabilityService) fetchBranch(ctx domain.Context, t tenant.Spec, branch int, product, date string, countSlots int) branchResult {
	masters, err := s.Slots.ProductSlots(ctx, product, date, t.Name, countSlots)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return branchResult{err: err}
		}
		obsctx.LoggerFromContext(ctx).Warn("branch availability fetch failed",
			slog.String("tenant", t.Name),
			slog.Int("office_id", branch),
			slog.String("product_id", product),
			slog.Any("error", err))
		return branchResult{availability: emptyBranch(branch, product, msgBranchFailed)}
	}
	ba := domain.BranchAvailability{
		ChannelID: branch,
		ProductID: product,
		Masters:   masters,
	}
	if !hasSlots(ba) {
		ba.Masters = []domain.MasterSlots{}
		ba.Note = msgNoSlots
	}
	return branchResult{availability: ba}
}

func emptyBranch(branch int, product, note string) domain.BranchAvailability {
	return domain.BranchAvailability{
		ChannelID: branch,
		ProductID: product,
		Masters:   []domain.MasterSlots{},
		Note:      note,
	}
}

func hasSlots(ba domain.BranchAvailability) bool {
	for _, m := range ba.Masters {
		if len(m.Slots) > 0 {
			return true
		}
	}
	return false
}

// otherBranches returns channels minus the office, configured order kept,
// deduplicated.
func otherBranches(channels []int, officeID int) []int {
	seen := map[int]bool{officeID: true}
	out := make([]int, 0, len(channels))
	for _, ch := range channels {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}
