package domain

import (
	"context"
	"errors"
	"sort"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
	ErrCRMUnavailable  = errors.New("crm unavailable")
	ErrBadResponse     = errors.New("crm bad response")
	ErrCRM             = errors.New("crm rejected request")
	ErrNetwork         = errors.New("network failure")
	ErrInvalidResponse = errors.New("invalid response body")
	ErrHTTP            = errors.New("unexpected http status")
	ErrInternal        = errors.New("internal error")
)

// NamedRef is the CRM's {id, name} pair used for masters and products.
type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClientRecord is one booking as the CRM reports it.
// Date keeps the CRM's original string; ParsedAt is zero when the string
// did not parse (such records sort after all parseable ones).
type ClientRecord struct {
	ID          int64     `json:"record_id"`
	Date        string    `json:"record_date"`
	ChannelID   int       `json:"office_id"`
	MasterID    int64     `json:"master_id"`
	MasterName  string    `json:"master_name"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Status      string    `json:"status"`
	ParsedAt    time.Time `json:"-"`
}

// SortRecords orders records by parsed date ascending, stably pushing
// unparseable dates to the back.
func SortRecords(records []ClientRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.ParsedAt.IsZero():
			return false
		case b.ParsedAt.IsZero():
			return true
		default:
			return a.ParsedAt.Before(b.ParsedAt)
		}
	})
}

// MasterSlots is the free-time list of one master for one product/date.
// Slots are normalized "2006-01-02 15:04" strings in the tenant timezone,
// ascending, already truncated to the requested count.
type MasterSlots struct {
	MasterID   int64    `json:"master_id"`
	MasterName string   `json:"master_name"`
	Slots      []string `json:"master_slots"`
}

// BranchAvailability is one branch's answer inside a cross-branch fan-out.
// Note carries a user-facing message when the branch is empty or degraded.
type BranchAvailability struct {
	ChannelID int           `json:"office_id"`
	ProductID string        `json:"product_id"`
	Masters   []MasterSlots `json:"available_time"`
	Note      string        `json:"message,omitempty"`
}

// SequenceStep is one service inside a multi-step booking option.
type SequenceStep struct {
	ServiceID  string `json:"service_id"`
	MasterID   int64  `json:"master_id"`
	MasterName string `json:"master_name"`
	StartTime  string `json:"start_time"`
}

// BookingSequence is one CRM-proposed multi-step booking option.
type BookingSequence struct {
	SequenceID     string         `json:"sequence_id"`
	TotalStartTime string         `json:"total_start_time"`
	Steps          []SequenceStep `json:"steps"`
}

// SequenceOptions pairs the full selector list with a flattened short form
// suitable for reading back to the client.
type SequenceOptions struct {
	Sequences []BookingSequence `json:"sequences"`
	ShortList []string          `json:"short_list"`
}

// BookingRequest is the input of a booking create.
type BookingRequest struct {
	ProductID string
	Date      string
	Time      string
	UserID    string
	StaffID   int64
	ChannelID int
	Comment   string
}

// BookingConfirmation is the synthesized user-facing confirmation.
type BookingConfirmation struct {
	Info string `json:"info"`
}

// Master is a bookable staff member of one branch.
type Master struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
}

// Lesson is a record in the secondary CRM.
type Lesson struct {
	ID      int64    `json:"id"`
	Date    string   `json:"date"`
	Status  string   `json:"status"`
	Product NamedRef `json:"product"`
}

// ClientStatistics is the secondary CRM's per-client visit summary.
type ClientStatistics struct {
	Visits     int     `json:"visits"`
	Cancels    int     `json:"cancels"`
	LastVisit  string  `json:"last_visit,omitempty"`
	TotalSpent float64 `json:"total_spent"`
}

// ConversationMessage is one turn of the dialogue forwarded to a human
// administrator.
type ConversationMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// CatalogueKeys are the per-branch filter vocabularies a search tool may
// expose as enums. Empty sets are valid.
type CatalogueKeys struct {
	Indications       []string
	Contraindications []string
	BodyParts         []string
}

// SearchHit is one vector-search result with its stored payload.
type SearchHit struct {
	ID      string         `json:"id"`
	Score   float32        `json:"score"`
	Text    string         `json:"text"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ToolEvent is an audit row written for each tool invocation.
type ToolEvent struct {
	ID        string
	Tenant    string
	Tool      string
	SessionID string
	CreatedAt time.Time
}

// Repositories (ports)

type CatalogueRepository interface {
	Keys(ctx Context, channelID int) (CatalogueKeys, error)
}

type ArticleMapper interface {
	BranchArticle(ctx Context, article string, fromChannel, toChannel int) (string, error)
}

type ToolEventRepository interface {
	Record(ctx Context, ev ToolEvent) error
}

// Embedder (port)

type Embedder interface {
	// Embed returns one dense vector per input text, in input order.
	Embed(ctx Context, texts []string) ([][]float32, error)
}

// Searcher (port): hybrid text search over one vector collection.

type Searcher interface {
	HybridSearch(ctx Context, collection, query string, filters map[string]any, limit int) ([]SearchHit, error)
}

// SlotSource (port): implemented by the CRM gateway, consumed by the
// availability engine.

type SlotSource interface {
	ProductSlots(ctx Context, productID, date, tenant string, countSlots int) ([]MasterSlots, error)
}

// RecordSource (port): per-branch record listing for cross-branch merges.

type RecordSource interface {
	ClientRecords(ctx Context, userID string, channelID int) ([]ClientRecord, error)
}

// Context is an alias to allow decoupling from std context in domain
// Adapters and usecases should pass context.Context through

type Context = context.Context
