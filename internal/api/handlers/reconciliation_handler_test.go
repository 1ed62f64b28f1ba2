package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"reconciliation-service/internal/core/reconciler"
	"reconciliation-service/internal/session"
)

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

type testServer struct {
	router  *gin.Engine
	handler *ReconciliationHandler
	store   *session.Store
	metrics *Metrics
}

func newTestServer(t *testing.T, opts Options) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	store := session.NewStore(16, time.Hour)
	metrics := NewMetrics(prometheus.NewRegistry())
	h := NewReconciliationHandler(reconciler.NewService(logger), store, logger, metrics, opts)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))
	return testServer{router: router, handler: h, store: store, metrics: metrics}
}

func xlsx(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func fechamentoFixture(t *testing.T) []byte {
	return xlsx(t, [][]any{
		{"Mes", "CNPJ", "Nome_Fantasia", "Vendedor", "Bandeira", "Produto", "Valor", "MDR (R$) Bruto", "Total MDR (R$) Liquido Vegas Pay"},
		{"2024-01", "11.111.111/0001-11", "Loja A", "Ana", "VISA", "Crédito", 100, 3, 1},
		{"2024-01", "11.111.111/0001-11", "Loja A", "Ana", "VISA", "Débito", 50, 1, 0.5},
		{"2024-02", "22.222.222/0001-22", "Bar B", "Bruno", "ELO", "Pix", "abc", 0, 0},
	})
}

func novosFixture(t *testing.T) []byte {
	return xlsx(t, [][]any{
		{"Data de Cadastro", "FANTASIA", "CNPJ", "Vendedor", "UF", "Previsão de Mov. Financeira", "Meta 70% da Movimentação "},
		{"15/01/2024", "Loja A", "11111111000111", "Ana", "GO", 1000, 700},
		{"03/02/2024", "Bar B", "22222222000122", "Bruno", "DF", 500, 350},
	})
}

func multipartBody(t *testing.T, files map[string][]byte, names map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for field, data := range files {
		part, err := w.CreateFormFile(field, names[field])
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (s testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "" && bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s testServer) upload(t *testing.T, sessionID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, contentType := multipartBody(t,
		map[string][]byte{"fechamentoFile": fechamentoFixture(t), "novosFile": novosFixture(t)},
		map[string]string{"fechamentoFile": "Fechamento.xlsx", "novosFile": "Novos_Comercios.xlsx"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	return s.do(t, req)
}

func TestHandleUpload(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, env := s.upload(t, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, "success", env.Status)

	var st DatasetsStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, session.SourceSession, st.Source)
	assert.Equal(t, 3, st.SettlementRows)
	assert.Equal(t, 2, st.MerchantRows)
	require.Len(t, st.Files, 2)
	assert.Equal(t, 1, st.Files[0].Issues, "the invalid amount is reported, not fatal")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.uploads.WithLabelValues(datasetSettlements, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.issues.WithLabelValues("numero_invalido", "valor")))
}

func TestHandleUpload_PartialFailure(t *testing.T) {
	s := newTestServer(t, Options{})
	body, contentType := multipartBody(t,
		map[string][]byte{"fechamentoFile": []byte("%PDF"), "novosFile": novosFixture(t)},
		map[string]string{"fechamentoFile": "fechamento.pdf", "novosFile": "novos.xlsx"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)

	rec, env := s.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Planilhas carregadas parcialmente", env.Message)
	var st DatasetsStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, 0, st.SettlementRows)
	assert.Equal(t, 2, st.MerchantRows)
	assert.NotEmpty(t, st.Files[0].Error)
}

func TestHandleUpload_NoFiles(t *testing.T) {
	s := newTestServer(t, Options{})
	body, contentType := multipartBody(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)

	rec, env := s.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestHandleSales(t *testing.T) {
	s := newTestServer(t, Options{})
	up, _ := s.upload(t, "")
	id := up.Header().Get(SessionHeader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendas?vendedor=Ana&mes=2024-01", nil)
	req.Header.Set(SessionHeader, id)
	rec, env := s.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, rec.Header().Get(SessionHeader))

	var payload struct {
		Source string `json:"source"`
		KPIs   struct {
			Amount   float64 `json:"vendas_brutas"`
			GrossFee float64 `json:"mdr_bruto"`
		} `json:"kpis"`
		Monthly struct {
			Rows []map[string]any `json:"rows"`
		} `json:"monthly"`
		Facets map[string][]string `json:"facets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "session", payload.Source)
	assert.Equal(t, 150.0, payload.KPIs.Amount)
	assert.Equal(t, 4.0, payload.KPIs.GrossFee)
	assert.Len(t, payload.Monthly.Rows, 1)
	assert.Equal(t, []string{"Ana", "Bruno"}, payload.Facets["vendedor"])
}

func TestHandleMerchants(t *testing.T) {
	s := newTestServer(t, Options{})
	up, _ := s.upload(t, "")
	id := up.Header().Get(SessionHeader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/novos?uf=GO", nil)
	req.Header.Set(SessionHeader, id)
	rec, env := s.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Strategy string `json:"strategy"`
		Filtered []struct {
			Month    string  `json:"mes"`
			Realized float64 `json:"realizado"`
		} `json:"filtered"`
		Movement []map[string]any `json:"movement"`
		KPIs     struct {
			Attainment float64 `json:"atingimento_pct"`
		} `json:"kpis"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "cnpj", payload.Strategy)
	require.Len(t, payload.Filtered, 1)
	assert.Equal(t, "2024-01", payload.Filtered[0].Month)
	assert.Equal(t, 150.0, payload.Filtered[0].Realized)
	assert.Len(t, payload.Movement, 1)
	assert.InDelta(t, 150.0/700*100, payload.KPIs.Attainment, 1e-9)
}

func TestHandleReports_EmptySession(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/vendas", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Nenhum dado de fechamento carregado", env.Message)

	rec, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/novos", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Nenhum dado de novos comércios carregado", env.Message)
}

func TestHandleExports(t *testing.T) {
	s := newTestServer(t, Options{})
	up, _ := s.upload(t, "")
	id := up.Header().Get(SessionHeader)

	tests := []struct {
		path   string
		sheets []string
	}{
		{"/api/v1/vendas/export", []string{"Base_Filtrada", "Resumo_Mensal", "Resumo_Vendedor", "Resumo_Bandeira_Produto"}},
		{"/api/v1/novos/export", []string{"Novos_Filtrado", "Movimentacao_Comercios", "Resumo_Vendedor_Novos"}},
		{"/api/v1/datasets/export", []string{"Fechamento", "Novos_Comercios"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(SessionHeader, id)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

			f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, tt.sheets, f.GetSheetList())
		})
	}
}

func TestHandleReload(t *testing.T) {
	dir := t.TempDir()
	fech := filepath.Join(dir, "Fechamento.xlsx")
	require.NoError(t, os.WriteFile(fech, fechamentoFixture(t), 0o644))
	s := newTestServer(t, Options{SettlementPath: fech, MerchantPath: filepath.Join(dir, "ausente.xlsx")})

	rec, env := s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/datasets/reload", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st DatasetsStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, session.SourceRepo, st.Source)
	assert.Equal(t, 3, st.SettlementRows)
	assert.Equal(t, 0, st.MerchantRows)
	assert.NotEmpty(t, st.Files[1].Error)

	_, fresh := s.store.Open("")
	assert.Equal(t, 3, fresh.Settlements.Len(), "new sessions start from the reloaded defaults")
}

func TestHandleReload_NothingToLoad(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, Options{SettlementPath: filepath.Join(dir, "a.xlsx"), MerchantPath: filepath.Join(dir, "b.xlsx")})

	rec, env := s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/datasets/reload", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, env.Errors, 2)
}
