package livehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"stockai/internal/store"
)

type stubQueries struct {
	decisions []store.DecisionRecord
	orders    []store.OrderRecord
	cycles    []store.CycleRecord
}

func (s *stubQueries) RecentDecisions(_ context.Context, symbol string, limit int) ([]store.DecisionRecord, error) {
	if symbol == "" {
		return s.decisions, nil
	}
	var out []store.DecisionRecord
	for _, d := range s.decisions {
		if d.Symbol == symbol {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *stubQueries) DecisionByID(_ context.Context, id int64) (*store.DecisionRecord, error) {
	for i := range s.decisions {
		if s.decisions[i].ID == id {
			return &s.decisions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubQueries) OrdersForDecision(context.Context, int64) ([]store.OrderRecord, error) {
	return s.orders, nil
}

func (s *stubQueries) RecentCycles(context.Context, int) ([]store.CycleRecord, error) {
	return s.cycles, nil
}

func newTestServer(t *testing.T, queries DecisionQueries) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Addr: ":0", Queries: queries})
	require.NoError(t, err)
	return srv
}

func doGet(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubQueries{})
	w := doGet(srv, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListDecisionsFiltersBySymbol(t *testing.T) {
	srv := newTestServer(t, &stubQueries{decisions: []store.DecisionRecord{
		{ID: 1, Symbol: "AAPL", Signal: "buy"},
		{ID: 2, Symbol: "MSFT", Signal: "hold"},
	}})

	w := doGet(srv, "/api/live/decisions?symbol=aapl")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Decisions []store.DecisionRecord `json:"decisions"`
		Count     int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "AAPL", body.Decisions[0].Symbol)
}

func TestDecisionDetailWithOrderTrail(t *testing.T) {
	srv := newTestServer(t, &stubQueries{
		decisions: []store.DecisionRecord{{ID: 7, Symbol: "NVDA", Signal: "buy"}},
		orders:    []store.OrderRecord{{ID: 1, DecisionID: 7, BrokerOrderID: "ord-9"}},
	})

	w := doGet(srv, "/api/live/decisions/7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ord-9")
}

func TestDecisionDetailNotFound(t *testing.T) {
	srv := newTestServer(t, &stubQueries{})
	w := doGet(srv, "/api/live/decisions/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecisionDetailRejectsBadID(t *testing.T) {
	srv := newTestServer(t, &stubQueries{})
	w := doGet(srv, "/api/live/decisions/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsReturnsCycles(t *testing.T) {
	srv := newTestServer(t, &stubQueries{cycles: []store.CycleRecord{
		{ID: 1, Symbols: 3, Executed: 1},
	}})

	w := doGet(srv, "/api/live/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"symbols":3`)
}
