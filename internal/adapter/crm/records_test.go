package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

func TestClientRecords_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/get_client_records", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "client-77", req["user_id"])

		_, _ = w.Write([]byte(`{"success":true,"records":[
			{"id":1,"date":"2026-09-03 15:00:00","status":"pending","master_id":{"id":7,"name":"Анна"},"product":{"id":3,"name":"Маникюр"}},
			{"id":2,"date":"2026-09-01 10:00:00","status":"done","master_id":{"id":7,"name":"Анна"},"product":{"id":3,"name":"Маникюр"}},
			{"id":3,"date":"скоро","status":"pending","master_id":{"id":8,"name":"Ольга"},"product":{"id":4,"name":"Педикюр"}},
			{"id":4,"date":"2026-09-02 11:30:00","status":"pending","master_id":{"id":7,"name":"Анна"},"product":{"id":3,"name":"Маникюр"}}
		]}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	records, err := g.ClientRecords(context.Background(), "client-77", 1)
	require.NoError(t, err)

	require.Len(t, records, 3, "non-pending records are dropped")
	assert.Equal(t, int64(4), records[0].ID, "earliest parseable date first")
	assert.Equal(t, int64(1), records[1].ID)
	assert.Equal(t, int64(3), records[2].ID, "unparseable date sorts last")
	assert.Equal(t, "Анна", records[0].MasterName)
	assert.Equal(t, "Маникюр", records[0].ProductName)
	assert.Equal(t, 1, records[0].ChannelID)
}

func TestClientRecords_CRMFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"клиент не найден"}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	_, err := g.ClientRecords(context.Background(), "ghost", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCRM)
}

func TestSortRecords_StableForUnparseable(t *testing.T) {
	t.Parallel()

	records := []domain.ClientRecord{
		{ID: 1, Date: "???"},
		{ID: 2, Date: "!!!"},
	}
	domain.SortRecords(records)
	assert.Equal(t, int64(1), records[0].ID, "two unparseable dates keep arrival order")
	assert.Equal(t, int64(2), records[1].ID)
}

func TestDeleteClientRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantErr  error
		wantMsg  string
	}{
		{"success with message", `{"success":true,"message":"Запись №5 отменена"}`, nil, "Запись №5 отменена"},
		{"success without message", `{"success":true}`, nil, "Запись отменена"},
		{"unknown record", `{"success":false,"error":"нет такой записи"}`, domain.ErrNotFound, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/delete_client_record", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := testGateway(srv.URL)
			msg, err := g.DeleteClientRecord(context.Background(), "client-77", 1, 5)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestRescheduleClientRecord_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"bad request", http.StatusBadRequest, domain.ErrInvalidArgument},
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized},
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"conflict", http.StatusConflict, domain.ErrConflict},
		{"teapot", http.StatusTeapot, domain.ErrCRM},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			g := testGateway(srv.URL)
			_, err := g.RescheduleClientRecord(context.Background(), "client-77", 1, 5, "2026-09-02", "12:00")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRescheduleClientRecord_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2026-09-02", req["date"])
		assert.Equal(t, "12:00", req["time"])
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	msg, err := g.RescheduleClientRecord(context.Background(), "client-77", 1, 5, "2026-09-02", "12:00")
	require.NoError(t, err)
	assert.Equal(t, "Запись перенесена", msg)
}
