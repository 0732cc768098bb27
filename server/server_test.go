package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basket/itemset"
	serviceDisk "basket/services/disk"
	"basket/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	rs, err := store.New(10, serviceDisk.New(t.TempDir()), nil)
	require.Nil(t, err)
	return New(rs, 1, itemset.DefaultMinSetSize).Router(true)
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var basketTxs = []itemset.Transaction{{2, 3, 4}, {2, 3, 0, 4}, {2, 6, 3}, {2, 3, 4, 5, 6}}

var basketSubsets = []Subset{
	{Items: []itemset.Item{2, 3}, Count: 4},
	{Items: []itemset.Item{2, 4}, Count: 3},
	{Items: []itemset.Item{3, 4}, Count: 3},
	{Items: []itemset.Item{2, 3, 4}, Count: 3},
}

func intPtr(i int) *int {
	return &i
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) RunResponse {
	var resp RunResponse
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStatus(t *testing.T) {
	w := doRequest(newTestRouter(t), http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIdHeader))
}

func TestRequestIdIsKept(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(RequestIdHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIdHeader))
}

func TestMineAndGetRun(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodPost, "/v1/mine", MineRequest{
		Transactions: basketTxs,
		Sigma:        intPtr(3),
		MinSetSize:   intPtr(2),
		DatasetId:    "retail",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	mined := decodeRun(t, w)
	assert.Equal(t, "retail", mined.DatasetId)
	assert.NotEmpty(t, mined.RunId)
	assert.Equal(t, basketSubsets, mined.Subsets)

	w = doRequest(r, http.MethodGet, "/v1/datasets/retail/runs/"+mined.RunId, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mined, decodeRun(t, w))

	w = doRequest(r, http.MethodGet, "/v1/datasets/retail/runs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":["`+mined.RunId+`"]}`, w.Body.String())
}

func TestMineStoredDataset(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodPost, "/v1/mine", MineRequest{Transactions: basketTxs, Sigma: intPtr(3)})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeRun(t, w)
	assert.NotEmpty(t, first.DatasetId)
	// Default min set size drops the pairs.
	assert.Equal(t, basketSubsets[3:], first.Subsets)

	w = doRequest(r, http.MethodPost, "/v1/mine", MineRequest{DatasetId: first.DatasetId, Sigma: intPtr(3), MinSetSize: intPtr(2)})
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeRun(t, w)
	assert.Equal(t, first.DatasetId, second.DatasetId)
	assert.NotEqual(t, first.RunId, second.RunId)
	assert.Equal(t, basketSubsets, second.Subsets)
}

func TestMineBadRequests(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/mine", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/mine", MineRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tests := []struct {
		name string
		req  MineRequest
	}{
		{"zero sigma", MineRequest{Transactions: basketTxs, Sigma: intPtr(0), MinSetSize: intPtr(2)}},
		{"negative sigma", MineRequest{Transactions: basketTxs, Sigma: intPtr(-1)}},
		{"single item sets", MineRequest{Transactions: basketTxs, MinSetSize: intPtr(1)}},
		{"zero min set size", MineRequest{Transactions: basketTxs, MinSetSize: intPtr(0)}},
		{"path in dataset id", MineRequest{Transactions: basketTxs, DatasetId: "../etc"}},
		{"long dataset id", MineRequest{Transactions: basketTxs, DatasetId: strings.Repeat("a", 65)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/v1/mine", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	// Sigma 0 sent as raw json, not only through the request struct.
	w = doRequest(r, http.MethodPost, "/v1/mine", map[string]interface{}{
		"transactions": basketTxs, "sigma": 0, "min_set_size": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidPathIds(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/v1/datasets/retail/runs/bad.id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/datasets/"+strings.Repeat("a", 65)+"/runs", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMineExistingDatasetConflicts(t *testing.T) {
	r := newTestRouter(t)
	req := MineRequest{Transactions: basketTxs, Sigma: intPtr(3), DatasetId: "retail"}
	w := doRequest(r, http.MethodPost, "/v1/mine", req)
	require.Equal(t, http.StatusOK, w.Code)

	req.Transactions = []itemset.Transaction{{1, 2, 3}}
	w = doRequest(r, http.MethodPost, "/v1/mine", req)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Mining the stored dataset again still works.
	w = doRequest(r, http.MethodPost, "/v1/mine", MineRequest{DatasetId: "retail", Sigma: intPtr(3), MinSetSize: intPtr(2)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, basketSubsets, decodeRun(t, w).Subsets)
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/v1/datasets/retail/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/mine", MineRequest{DatasetId: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/v1/datasets/retail/runs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}
