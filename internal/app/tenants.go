// Package app is the composition root: it assembles per-tenant tool sets
// from the shared infrastructure and supervises the tenant servers.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
	"github.com/ai2b/zena-toolserver/internal/tenant"
	"github.com/ai2b/zena-toolserver/internal/tool"
	"github.com/ai2b/zena-toolserver/internal/usecase"
)

// defaultCountSlots bounds each master's slot list unless the agent asks
// for fewer.
const defaultCountSlots = 30

// CRM is the slice of the gateway surface the tool builders consume.
// *crm.Gateway satisfies it; tests substitute fakes.
type CRM interface {
	ClientRecords(ctx domain.Context, userID string, channelID int) ([]domain.ClientRecord, error)
	DeleteClientRecord(ctx domain.Context, userID string, officeID int, recordID int64) (string, error)
	RescheduleClientRecord(ctx domain.Context, userID string, officeID int, recordID int64, date, timeOfDay string) (string, error)
	RecordTime(ctx domain.Context, req domain.BookingRequest) (domain.BookingConfirmation, error)
	ProductSlots(ctx domain.Context, productID, date, tenantName string, countSlots int) ([]domain.MasterSlots, error)
	AvailableSequences(ctx domain.Context, serviceIDs []string, date, tenantName string) (domain.SequenceOptions, error)
	Masters(ctx domain.Context, channelID int) ([]domain.Master, error)
	LessonRecords(ctx domain.Context, userID string, channelID int) ([]domain.Lesson, error)
	UpdateClientInfo(ctx domain.Context, userID string, channelID int, fields map[string]string) (string, error)
	UpdateClientLesson(ctx domain.Context, userID string, lessonID int64, date, timeOfDay string) (string, error)
	ClientStatistics(ctx domain.Context, userID string, channelID int) (domain.ClientStatistics, error)
	CallAdministrator(ctx domain.Context, userID string, channelID int, reason string, conversation []domain.ConversationMessage) (string, error)
}

// Infra bundles the process-shared collaborators handed to every tenant
// builder. Builders own nothing: lifecycle stays with the supervisor.
type Infra struct {
	Cfg       config.Config
	CRM       CRM
	Catalogue domain.CatalogueRepository
	Articles  domain.ArticleMapper
	Events    domain.ToolEventRepository
	Search    domain.Searcher
}

// Builder composes one tenant's tool set.
type Builder func(ctx context.Context, t tenant.Spec, inf Infra) (*tool.Set, error)

// builders is the static tenant registry. tenant.Names drives which
// entries boot and in what order.
var builders = map[string]Builder{
	"sofia": buildSofia,
	"alisa": buildAlisa,
}

// BuilderFor returns the registered builder for a tenant name.
func BuilderFor(name string) (Builder, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("op=app.BuilderFor: no builder registered for tenant %q", name)
	}
	return b, nil
}

// buildSofia composes the booking-lifecycle tenant: record management,
// availability, booking, FAQ and the human-operator escalation.
func buildSofia(ctx context.Context, t tenant.Spec, inf Infra) (*tool.Set, error) {
	s := tool.NewSet()
	for _, add := range []func(*tool.Set, tenant.Spec, Infra) error{
		addListClientRecords,
		addRescheduleRecord,
		addCancelRecord,
		addFreeSlots,
		addBookTime,
		addCallAdministrator,
		addSearchFAQ,
	} {
		if err := add(s, t, inf); err != nil {
			return nil, fmt.Errorf("op=app.buildSofia: %w", err)
		}
	}
	return s, nil
}

// buildAlisa composes the discovery tenant: catalogue search, availability
// (simple and multi-step), booking, masters and the secondary-CRM lessons
// family.
func buildAlisa(ctx context.Context, t tenant.Spec, inf Infra) (*tool.Set, error) {
	keys := catalogueKeys(ctx, t, inf)

	s := tool.NewSet()
	if err := addSearchServices(s, t, inf, keys); err != nil {
		return nil, fmt.Errorf("op=app.buildAlisa: %w", err)
	}
	for _, add := range []func(*tool.Set, tenant.Spec, Infra) error{
		addSearchProducts,
		addSearchFAQ,
		addFreeSlots,
		addFreeSlotSequences,
		addBookTime,
		addListMasters,
		addClientLessons,
		addUpdateClientInfo,
		addUpdateClientLesson,
		addClientStatistics,
	} {
		if err := add(s, t, inf); err != nil {
			return nil, fmt.Errorf("op=app.buildAlisa: %w", err)
		}
	}
	return s, nil
}

// catalogueKeys reads the tenant's filter vocabularies once per build.
// A failed read degrades to empty sets: the tenant still boots, search
// just loses its enum guidance.
func catalogueKeys(ctx context.Context, t tenant.Spec, inf Infra) domain.CatalogueKeys {
	if inf.Catalogue == nil {
		return domain.CatalogueKeys{}
	}
	keys, err := inf.Catalogue.Keys(ctx, t.Primary())
	if err != nil {
		slog.Warn("catalogue keys unavailable, search enums disabled",
			slog.String("tenant", t.Name),
			slog.Int("channel_id", t.Primary()),
			slog.Any("error", err))
		return domain.CatalogueKeys{}
	}
	return keys
}

// --- booking lifecycle tools ---

type listRecordsArgs struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id"`
}

func addListClientRecords(s *tool.Set, t tenant.Spec, inf Infra) error {
	records := usecase.NewRecordsService(inf.CRM)
	return s.Add(tool.Tool{
		Name: "list_client_records",
		Description: "Показывает активные записи клиента во всех филиалах. " +
			"Вызывай перед переносом или отменой, чтобы получить record_id и office_id.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":    tool.String("Идентификатор клиента"),
			"session_id": tool.String("Идентификатор диалога"),
		}, "user_id"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args listRecordsArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			list, err := records.ClientRecords(ctx, t, args.UserID)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](list)
		},
	})
}

type rescheduleArgs struct {
	UserID   string `json:"user_id" validate:"required"`
	OfficeID int    `json:"office_id" validate:"gt=0"`
	RecordID int64  `json:"record_id" validate:"gt=0"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
}

func addRescheduleRecord(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name: "reschedule_record",
		Description: "Переносит существующую запись на новые дату и время. " +
			"Сначала убедись через free_slots, что новое время свободно.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":   tool.String("Идентификатор клиента"),
			"office_id": tool.Integer("Филиал записи"),
			"record_id": tool.Integer("Идентификатор записи"),
			"date":      tool.String("Новая дата, YYYY-MM-DD"),
			"time":      tool.String("Новое время, HH:MM"),
		}, "user_id", "office_id", "record_id", "date", "time"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args rescheduleArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			if !t.HasChannel(args.OfficeID) {
				return domain.Err[any](domain.CodeValidation, "Указан филиал другой сети")
			}
			msg, err := inf.CRM.RescheduleClientRecord(ctx, args.UserID, args.OfficeID, args.RecordID, args.Date, args.Time)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](map[string]string{"info": msg})
		},
	})
}

type cancelArgs struct {
	UserID   string `json:"user_id" validate:"required"`
	OfficeID int    `json:"office_id" validate:"gt=0"`
	RecordID int64  `json:"record_id" validate:"gt=0"`
}

func addCancelRecord(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name:        "cancel_record",
		Description: "Отменяет запись клиента. Подтверди отмену с клиентом до вызова.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":   tool.String("Идентификатор клиента"),
			"office_id": tool.Integer("Филиал записи"),
			"record_id": tool.Integer("Идентификатор записи"),
		}, "user_id", "office_id", "record_id"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args cancelArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			if !t.HasChannel(args.OfficeID) {
				return domain.Err[any](domain.CodeValidation, "Указан филиал другой сети")
			}
			msg, err := inf.CRM.DeleteClientRecord(ctx, args.UserID, args.OfficeID, args.RecordID)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](map[string]string{"info": msg})
		},
	})
}

type freeSlotsArgs struct {
	SessionID  string `json:"session_id"`
	OfficeID   int    `json:"office_id" validate:"gt=0"`
	ProductID  string `json:"product_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	CountSlots int    `json:"count_slots" validate:"gte=0,lte=100"`
}

func addFreeSlots(s *tool.Set, t tenant.Spec, inf Infra) error {
	availability := usecase.NewAvailabilityService(inf.CRM, inf.Articles)
	return s.Add(tool.Tool{
		Name: "free_slots",
		Description: "Ищет свободные окна для услуги на дату. Сначала смотрит выбранный " +
			"филиал; если там пусто — проверяет остальные филиалы сети.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"session_id":  tool.String("Идентификатор диалога"),
			"office_id":   tool.Integer("Филиал, куда хочет клиент"),
			"product_id":  tool.String("Идентификатор услуги вида \"1-232324\""),
			"date":        tool.String("Дата, YYYY-MM-DD"),
			"count_slots": tool.Integer("Сколько слотов вернуть на мастера (по умолчанию 30)"),
		}, "office_id", "product_id", "date"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args freeSlotsArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			count := args.CountSlots
			if count == 0 {
				count = defaultCountSlots
			}
			branches, err := availability.FreeSlots(ctx, t, args.SessionID, args.OfficeID, args.ProductID, args.Date, count)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](branches)
		},
	})
}

type sequencesArgs struct {
	SessionID  string   `json:"session_id"`
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
}

func addFreeSlotSequences(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name: "free_slot_sequences",
		Description: "Подбирает цепочки свободного времени для нескольких услуг подряд " +
			"(комплекс). Возвращает варианты с мастером и временем каждого шага.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"session_id":  tool.String("Идентификатор диалога"),
			"product_ids": tool.StringArray("Идентификаторы услуг в нужном порядке"),
			"date":        tool.String("Дата, YYYY-MM-DD"),
		}, "product_ids", "date"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args sequencesArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			opts, err := inf.CRM.AvailableSequences(ctx, args.ProductIDs, args.Date, t.Name)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](opts)
		},
	})
}

type bookTimeArgs struct {
	UserID    string `json:"user_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	OfficeID  int    `json:"office_id" validate:"gt=0"`
	StaffID   int64  `json:"staff_id" validate:"gt=0"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required"`
	Comment   string `json:"comment"`
}

func addBookTime(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name: "book_time",
		Description: "Создаёт запись клиента к мастеру на выбранные дату и время. " +
			"Время бери только из ответа free_slots.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":    tool.String("Идентификатор клиента"),
			"product_id": tool.String("Идентификатор услуги вида \"1-232324\""),
			"office_id":  tool.Integer("Филиал записи"),
			"staff_id":   tool.Integer("Идентификатор мастера"),
			"date":       tool.String("Дата, YYYY-MM-DD"),
			"time":       tool.String("Время, HH:MM"),
			"comment":    tool.String("Комментарий к записи"),
		}, "user_id", "product_id", "office_id", "staff_id", "date", "time"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args bookTimeArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			if !t.HasChannel(args.OfficeID) {
				return domain.Err[any](domain.CodeValidation, "Указан филиал другой сети")
			}
			conf, err := inf.CRM.RecordTime(ctx, domain.BookingRequest{
				ProductID: args.ProductID,
				Date:      args.Date,
				Time:      args.Time,
				UserID:    args.UserID,
				StaffID:   args.StaffID,
				ChannelID: args.OfficeID,
				Comment:   args.Comment,
			})
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](conf)
		},
	})
}

type administratorArgs struct {
	UserID       string                       `json:"user_id" validate:"required"`
	OfficeID     int                          `json:"office_id" validate:"gt=0"`
	Reason       string                       `json:"reason" validate:"required"`
	Conversation []domain.ConversationMessage `json:"conversation"`
}

func addCallAdministrator(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name: "call_administrator",
		Description: "Передаёт диалог живому администратору. Используй, когда клиент просит " +
			"человека или вопрос выходит за рамки твоих инструментов.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":      tool.String("Идентификатор клиента"),
			"office_id":    tool.Integer("Филиал клиента"),
			"reason":       tool.String("Краткая причина эскалации"),
			"conversation": {
				Type:        "array",
				Description: "Последние реплики диалога, объекты {role, text}",
				Items:       &jsonschema.Schema{Type: "object"},
			},
		}, "user_id", "office_id", "reason"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args administratorArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			msg, err := inf.CRM.CallAdministrator(ctx, args.UserID, args.OfficeID, args.Reason, args.Conversation)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](map[string]string{"info": msg})
		},
	})
}

// --- discovery tools ---

type searchArgs struct {
	Query string `json:"query" validate:"required"`
}

func addSearchFAQ(s *tool.Set, t tenant.Spec, inf Infra) error {
	retriever := usecase.NewRetriever(inf.Search, inf.Cfg.CollectionFAQ, t.Primary())
	return s.Add(tool.Tool{
		Name:        "search_faq",
		Description: "Ищет ответ в базе вопросов и ответов салона: адреса, цены, правила подготовки, уход.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"query": tool.String("Вопрос клиента своими словами"),
		}, "query"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args searchArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			hits, err := retriever.Find(ctx, args.Query, nil)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](hits)
		},
	})
}

type searchServicesArgs struct {
	Query            string `json:"query" validate:"required"`
	Indication       string `json:"indication"`
	Contraindication string `json:"contraindication"`
	BodyPart         string `json:"body_part"`
}

// addSearchServices is the one catalogue-driven tool: the allowed filter
// values come from the tenant's catalogue keys, fetched at build time, and
// appear both in the description and as schema enums.
func addSearchServices(s *tool.Set, t tenant.Spec, inf Infra, keys domain.CatalogueKeys) error {
	retriever := usecase.NewRetriever(inf.Search, inf.Cfg.CollectionServices, t.Primary())
	desc := "Подбирает услуги салона под запрос клиента."
	if len(keys.Indications) > 0 {
		desc += " Допустимые показания: " + strings.Join(keys.Indications, ", ") + "."
	}
	if len(keys.Contraindications) > 0 {
		desc += " Допустимые противопоказания: " + strings.Join(keys.Contraindications, ", ") + "."
	}
	if len(keys.BodyParts) > 0 {
		desc += " Допустимые зоны: " + strings.Join(keys.BodyParts, ", ") + "."
	}
	return s.Add(tool.Tool{
		Name:        "search_services",
		Description: desc,
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"query":            tool.String("Что хочет клиент, своими словами"),
			"indication":       tool.StringEnum("Показание из списка допустимых", keys.Indications),
			"contraindication": tool.StringEnum("Противопоказание из списка допустимых", keys.Contraindications),
			"body_part":        tool.StringEnum("Зона из списка допустимых", keys.BodyParts),
		}, "query"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args searchServicesArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			hits, err := retriever.Find(ctx, args.Query, map[string]string{
				"indications_key":       args.Indication,
				"contraindications_key": args.Contraindication,
				"body_parts":            args.BodyPart,
			})
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](hits)
		},
	})
}

type searchProductsArgs struct {
	Query    string `json:"query" validate:"required"`
	Category string `json:"category"`
}

func addSearchProducts(s *tool.Set, t tenant.Spec, inf Infra) error {
	retriever := usecase.NewRetriever(inf.Search, inf.Cfg.CollectionProducts, t.Primary())
	return s.Add(tool.Tool{
		Name:        "search_products",
		Description: "Ищет товары и средства ухода, которые продаются в салоне.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"query":    tool.String("Что ищет клиент"),
			"category": tool.String("Категория товара, если клиент её назвал"),
		}, "query"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args searchProductsArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			hits, err := retriever.Find(ctx, args.Query, map[string]string{"category": args.Category})
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](hits)
		},
	})
}

type listMastersArgs struct {
	OfficeID int `json:"office_id" validate:"gt=0"`
}

func addListMasters(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name:        "list_masters",
		Description: "Показывает мастеров филиала и их специализации.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"office_id": tool.Integer("Филиал"),
		}, "office_id"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args listMastersArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			if !t.HasChannel(args.OfficeID) {
				return domain.Err[any](domain.CodeValidation, "Указан филиал другой сети")
			}
			masters, err := inf.CRM.Masters(ctx, args.OfficeID)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](masters)
		},
	})
}

// --- secondary-CRM lessons family ---

type lessonsArgs struct {
	UserID   string `json:"user_id" validate:"required"`
	OfficeID int    `json:"office_id" validate:"gt=0"`
}

func addClientLessons(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name:        "client_lessons",
		Description: "Показывает занятия клиента в учебном центре.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":   tool.String("Идентификатор клиента"),
			"office_id": tool.Integer("Филиал"),
		}, "user_id", "office_id"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args lessonsArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			lessons, err := inf.CRM.LessonRecords(ctx, args.UserID, args.OfficeID)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](lessons)
		},
	})
}

type updateClientInfoArgs struct {
	UserID   string            `json:"user_id" validate:"required"`
	OfficeID int               `json:"office_id" validate:"gt=0"`
	Fields   map[string]string `json:"fields" validate:"required,min=1"`
}

func addUpdateClientInfo(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name:        "update_client_info",
		Description: "Обновляет контактные данные клиента (имя, телефон, e-mail).",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":   tool.String("Идентификатор клиента"),
			"office_id": tool.Integer("Филиал"),
			"fields":    {Type: "object", Description: "Поля для обновления, например {\"phone\": \"+7...\"}"},
		}, "user_id", "office_id", "fields"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args updateClientInfoArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			msg, err := inf.CRM.UpdateClientInfo(ctx, args.UserID, args.OfficeID, args.Fields)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](map[string]string{"info": msg})
		},
	})
}

type updateLessonArgs struct {
	UserID   string `json:"user_id" validate:"required"`
	LessonID int64  `json:"lesson_id" validate:"gt=0"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
}

func addUpdateClientLesson(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name:        "update_client_lesson",
		Description: "Переносит занятие клиента в учебном центре.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":   tool.String("Идентификатор клиента"),
			"lesson_id": tool.Integer("Идентификатор занятия"),
			"date":      tool.String("Новая дата, YYYY-MM-DD"),
			"time":      tool.String("Новое время, HH:MM"),
		}, "user_id", "lesson_id", "date", "time"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args updateLessonArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			msg, err := inf.CRM.UpdateClientLesson(ctx, args.UserID, args.LessonID, args.Date, args.Time)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](map[string]string{"info": msg})
		},
	})
}

func addClientStatistics(s *tool.Set, t tenant.Spec, inf Infra) error {
	return s.Add(tool.Tool{
		Name:        "client_statistics",
		Description: "Показывает статистику визитов клиента: посещения, отмены, последний визит.",
		InputSchema: tool.Object(map[string]*jsonschema.Schema{
			"user_id":   tool.String("Идентификатор клиента"),
			"office_id": tool.Integer("Филиал"),
		}, "user_id", "office_id"),
		Handler: func(ctx domain.Context, raw json.RawMessage) domain.Result[any] {
			var args lessonsArgs
			if err := tool.Decode(raw, &args); err != nil {
				return domain.ErrFrom[any](err)
			}
			stats, err := inf.CRM.ClientStatistics(ctx, args.UserID, args.OfficeID)
			if err != nil {
				return domain.ErrFrom[any](err)
			}
			return domain.OK[any](stats)
		},
	})
}
