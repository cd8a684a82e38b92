package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/settlement"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := settlement.NewFileStore(t.TempDir())
	require.NoError(t, err)
	server := httptest.NewServer(NewServer(store).Router())
	t.Cleanup(server.Close)
	return server
}

func sampleDetail(title string) *models.SettlementDetail {
	return &models.SettlementDetail{
		Title:        title,
		Participants: []string{"민수", "영희"},
		Payments: []models.Payment{
			{ID: 1, Item: "저녁", Amount: 30000, Payer: "민수", Target: []string{"민수", "영희"}, Ratio: []float64{0.5, 0.5}},
		},
	}
}

func putSettlement(t *testing.T, server *httptest.Server, id string, record *models.SettlementDetail) *http.Response {
	t.Helper()
	body, err := json.Marshal(record)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/settlements/"+id, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSettlements_PutGetRoundTrip(t *testing.T) {
	server := newTestServer(t)

	resp := putSettlement(t, server, "trip-1", sampleDetail("제주 여행"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var saved models.SettlementDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, "trip-1", saved.ID)

	getResp, err := http.Get(server.URL + "/api/settlements/trip-1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched models.SettlementDetail
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	assert.Equal(t, "제주 여행", fetched.Title)
	require.Len(t, fetched.Payments, 1)
	assert.Equal(t, int64(30000), fetched.Payments[0].Amount)
}

func TestSettlements_List(t *testing.T) {
	server := newTestServer(t)

	putSettlement(t, server, "trip-1", sampleDetail("제주 여행")).Body.Close()
	putSettlement(t, server, "trip-2", sampleDetail("부산 여행")).Body.Close()

	resp, err := http.Get(server.URL + "/api/settlements")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []models.SettlementSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "trip-1", list[0].ID)
	assert.Equal(t, int64(30000), list[0].TotalAmount)
	assert.Equal(t, 2, list[0].ParticipantCount)
}

func TestSettlements_GetNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/settlements/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "정산 정보를 찾을 수 없습니다", body["error"])
}

func TestSettlements_PutInvalid(t *testing.T) {
	server := newTestServer(t)

	record := sampleDetail("잘못된 정산")
	record.Payments[0].Ratio = []float64{0.5, 0.3}

	resp := putSettlement(t, server, "bad-1", record)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nothing was stored.
	getResp, err := http.Get(server.URL + "/api/settlements/bad-1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestSettlements_PutMalformedBody(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/settlements/trip-1", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
