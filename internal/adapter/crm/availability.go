package crm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ai2b/zena-toolserver/internal/domain"
	obsctx "github.com/ai2b/zena-toolserver/internal/observability"
	"github.com/ai2b/zena-toolserver/internal/tenant"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const defaultCountSlots = 30

// masterSubstitutions redirects steps from masters who no longer take new
// clients to their designated replacements. Keyed by CRM master id.
var masterSubstitutions = map[int64]domain.NamedRef{
	1648: {ID: 2961, Name: "Виктория"},
	1723: {ID: 2961, Name: "Виктория"},
}

// serviceMasterFilter pins services to the masters certified for them.
// A service absent from the map accepts any master.
var serviceMasterFilter = map[string][]int64{
	"232324": {2961, 3104},
	"410112": {3104},
}

// ProductSlots returns per-master open slots for one product on one date.
// Slot strings come back normalized to the tenant timezone, future-only,
// ascending and truncated to countSlots per master. CRM staff order is kept.
func (g *Gateway) ProductSlots(ctx context.Context, productID, date, tenantName string, countSlots int) ([]domain.MasterSlots, error) {
	ctx, span := g.tracer.Start(ctx, "crm.avaliable_time_for_master")
	defer span.End()

	loc := g.locate(tenantName)
	if err := g.validateDate(date, loc); err != nil {
		return nil, fmt.Errorf("op=crm.avaliable_time_for_master: %w", err)
	}
	if countSlots <= 0 {
		countSlots = defaultCountSlots
	}

	resp, err := g.doJSON(ctx, "avaliable_time_for_master", pathMasterTimes, map[string]any{
		"service_id": productID,
		"date":       date,
	})
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("op=crm.avaliable_time_for_master: %w", statusError("avaliable_time_for_master", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Result  struct {
			Service struct {
				Staff []struct {
					ID    int64    `json:"id"`
					Name  string   `json:"name"`
					Dates []string `json:"dates"`
				} `json:"staff"`
			} `json:"service"`
		} `json:"result"`
	}
	if err := decodeJSON("avaliable_time_for_master", resp.body, &out); err != nil {
		return nil, fmt.Errorf("op=crm.avaliable_time_for_master: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("op=crm.avaliable_time_for_master: %w: %s", domain.ErrCRM, out.Error)
	}

	lg := obsctx.LoggerFromContext(ctx)
	now := g.now()
	masters := make([]domain.MasterSlots, 0, len(out.Result.Service.Staff))
	for _, staff := range out.Result.Service.Staff {
		parsed := make([]time.Time, 0, len(staff.Dates))
		for _, raw := range staff.Dates {
			ts, err := tenant.ParseSlot(loc, raw)
			if err != nil {
				lg.Debug("dropping unparseable slot", slog.String("slot", raw), slog.Int64("master_id", staff.ID))
				continue
			}
			if !ts.After(now) {
				continue
			}
			parsed = append(parsed, ts)
		}
		sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })
		if len(parsed) > countSlots {
			parsed = parsed[:countSlots]
		}
		slots := make([]string, len(parsed))
		for i, ts := range parsed {
			slots[i] = tenant.FormatSlot(ts, loc)
		}
		masters = append(masters, domain.MasterSlots{MasterID: staff.ID, MasterName: staff.Name, Slots: slots})
	}
	return masters, nil
}

// validateDate enforces YYYY-MM-DD and rejects dates before the tenant-local
// today.
func (g *Gateway) validateDate(date string, loc *time.Location) error {
	if !dateRe.MatchString(date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidArgument, date)
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return fmt.Errorf("%w: date %q: %v", domain.ErrInvalidArgument, date, err)
	}
	now := g.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return fmt.Errorf("%w: date %s is in the past", domain.ErrInvalidArgument, date)
	}
	return nil
}

// AvailableSequences asks the CRM for multi-step booking options covering
// several services at once. Steps pass through the master-substitution table,
// then sequences containing a step whose master is not certified for its
// service are dropped.
func (g *Gateway) AvailableSequences(ctx context.Context, serviceIDs []string, date, tenantName string) (domain.SequenceOptions, error) {
	ctx, span := g.tracer.Start(ctx, "crm.avaliable_time_for_master_list")
	defer span.End()

	loc := g.locate(tenantName)
	if err := g.validateDate(date, loc); err != nil {
		return domain.SequenceOptions{}, fmt.Errorf("op=crm.avaliable_time_for_master_list: %w", err)
	}
	if len(serviceIDs) == 0 {
		return domain.SequenceOptions{}, fmt.Errorf("op=crm.avaliable_time_for_master_list: %w: empty service list", domain.ErrInvalidArgument)
	}

	resp, err := g.doJSON(ctx, "avaliable_time_for_master_list", pathMasterTimesList, map[string]any{
		"service_ids": serviceIDs,
		"date":        date,
	})
	if err != nil {
		return domain.SequenceOptions{}, err
	}
	if resp.status != http.StatusOK {
		return domain.SequenceOptions{}, fmt.Errorf("op=crm.avaliable_time_for_master_list: %w", statusError("avaliable_time_for_master_list", resp.status))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Result  struct {
			// CRM wire name, original spelling.
			Sequences []struct {
				SequenceID     string `json:"sequence_id"`
				TotalStartTime string `json:"total_start_time"`
				Steps          []struct {
					ServiceID  string `json:"service_id"`
					MasterID   int64  `json:"master_id"`
					MasterName string `json:"master_name"`
					StartTime  string `json:"start_time"`
				} `json:"steps"`
			} `json:"avaliable_sequences"`
		} `json:"result"`
	}
	if err := decodeJSON("avaliable_time_for_master_list", resp.body, &out); err != nil {
		return domain.SequenceOptions{}, fmt.Errorf("op=crm.avaliable_time_for_master_list: %w", err)
	}
	if !out.Success {
		return domain.SequenceOptions{}, fmt.Errorf("op=crm.avaliable_time_for_master_list: %w: %s", domain.ErrCRM, out.Error)
	}

	options := domain.SequenceOptions{}
	for _, wire := range out.Result.Sequences {
		seq := domain.BookingSequence{
			SequenceID:     wire.SequenceID,
			TotalStartTime: wire.TotalStartTime,
			Steps:          make([]domain.SequenceStep, 0, len(wire.Steps)),
		}
		allowed := true
		for _, ws := range wire.Steps {
			step := domain.SequenceStep{
				ServiceID:  ws.ServiceID,
				MasterID:   ws.MasterID,
				MasterName: ws.MasterName,
				StartTime:  ws.StartTime,
			}
			if sub, ok := masterSubstitutions[step.MasterID]; ok {
				step.MasterID = sub.ID
				step.MasterName = sub.Name
			}
			if !masterAllowed(step.ServiceID, step.MasterID) {
				allowed = false
				break
			}
			seq.Steps = append(seq.Steps, step)
		}
		if !allowed {
			continue
		}
		options.Sequences = append(options.Sequences, seq)
		options.ShortList = append(options.ShortList, shortForm(seq))
	}
	return options, nil
}

func masterAllowed(serviceID string, masterID int64) bool {
	allowed, ok := serviceMasterFilter[serviceID]
	if !ok {
		return true
	}
	for _, id := range allowed {
		if id == masterID {
			return true
		}
	}
	return false
}

// shortForm flattens one sequence into a single line the agent can read back:
// "10:30: 10:30 — Виктория, 11:15 — Анна".
func shortForm(seq domain.BookingSequence) string {
	parts := make([]string, len(seq.Steps))
	for i, step := range seq.Steps {
		parts[i] = fmt.Sprintf("%s — %s", step.StartTime, step.MasterName)
	}
	return fmt.Sprintf("%s: %s", seq.TotalStartTime, strings.Join(parts, ", "))
}
