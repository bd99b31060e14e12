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

func TestProductSlots_ValidatesDate(t *testing.T) {
	t.Parallel()

	g := testGateway("http://unused")
	tests := []struct {
		name string
		date string
	}{
		{"wrong format", "01.09.2026"},
		{"missing zero padding", "2026-9-1"},
		{"garbage", "завтра"},
		{"impossible date", "2026-13-40"},
		{"past date", "2026-08-23"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := g.ProductSlots(context.Background(), "1-232324", tt.date, "sofia", 30)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestProductSlots_TodayIsNotPast(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{"service":{"staff":[]}}}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	_, err := g.ProductSlots(context.Background(), "1-232324", "2026-08-24", "sofia", 30)
	require.NoError(t, err)
}

func TestProductSlots_ParsesFiltersSortsTruncates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/avaliable_time_for_master", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1-232324", req["service_id"])
		assert.Equal(t, "2026-09-01", req["date"])

		// Mixed shapes: naive local, offset-aware, already-passed, garbage.
		_, _ = w.Write([]byte(`{"success":true,"result":{"service":{"staff":[
			{"id":7,"name":"Анна","dates":[
				"2026-09-01 15:00",
				"2026-09-01T09:30:00Z",
				"2026-09-01 11:45",
				"2026-08-20 10:00",
				"не время",
				"2026-09-01 10:15"
			]},
			{"id":8,"name":"Ольга","dates":["2026-09-01 12:00"]}
		]}}}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	masters, err := g.ProductSlots(context.Background(), "1-232324", "2026-09-01", "sofia", 3)
	require.NoError(t, err)

	require.Len(t, masters, 2, "CRM staff order preserved")
	assert.Equal(t, int64(7), masters[0].MasterID)
	// testGateway resolves every tenant to UTC, so the Z slot stays 09:30.
	assert.Equal(t, []string{"2026-09-01 09:30", "2026-09-01 10:15", "2026-09-01 11:45"}, masters[0].Slots,
		"past and unparseable slots dropped, rest sorted and truncated to 3")
	assert.Equal(t, []string{"2026-09-01 12:00"}, masters[1].Slots)
}

func TestProductSlots_EmptyStaffMeansNoMasters(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{"service":{"staff":[]}}}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	masters, err := g.ProductSlots(context.Background(), "1-232324", "2026-09-01", "sofia", 30)
	require.NoError(t, err)
	assert.Empty(t, masters)
}

func TestAvailableSequences_SubstitutionAndFilter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/avaliable_time_for_master_list", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"result":{"avaliable_sequences":[
			{"sequence_id":"s-1","total_start_time":"10:30","steps":[
				{"service_id":"232324","master_id":1648,"master_name":"Мария","start_time":"10:30"},
				{"service_id":"777000","master_id":12,"master_name":"Анна","start_time":"11:15"}
			]},
			{"sequence_id":"s-2","total_start_time":"12:00","steps":[
				{"service_id":"410112","master_id":12,"master_name":"Анна","start_time":"12:00"}
			]}
		]}}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	opts, err := g.AvailableSequences(context.Background(), []string{"232324", "777000"}, "2026-09-01", "sofia")
	require.NoError(t, err)

	require.Len(t, opts.Sequences, 1, "sequence with uncertified master for 410112 is dropped")
	seq := opts.Sequences[0]
	assert.Equal(t, "s-1", seq.SequenceID)
	require.Len(t, seq.Steps, 2)
	assert.Equal(t, int64(2961), seq.Steps[0].MasterID, "master 1648 is substituted")
	assert.Equal(t, "Виктория", seq.Steps[0].MasterName)
	assert.Equal(t, int64(12), seq.Steps[1].MasterID, "unlisted service keeps its master")

	require.Len(t, opts.ShortList, 1)
	assert.Equal(t, "10:30: 10:30 — Виктория, 11:15 — Анна", opts.ShortList[0])
}

func TestAvailableSequences_EmptyServiceList(t *testing.T) {
	t.Parallel()

	g := testGateway("http://unused")
	_, err := g.AvailableSequences(context.Background(), nil, "2026-09-01", "sofia")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAvailableSequences_NoOptions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":{"avaliable_sequences":[]}}`))
	}))
	defer srv.Close()

	g := testGateway(srv.URL)
	opts, err := g.AvailableSequences(context.Background(), []string{"232324"}, "2026-09-01", "sofia")
	require.NoError(t, err)
	assert.Empty(t, opts.Sequences)
	assert.Empty(t, opts.ShortList)
}
