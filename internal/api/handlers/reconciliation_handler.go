// internal/api/handlers/reconciliation_handler.go
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/core/reconciler"
	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/export"
	"reconciliation-service/internal/session"
	"reconciliation-service/internal/sheets"
)

const (
	// SessionHeader identifica a sessão do cliente; é devolvido em toda resposta.
	SessionHeader = "X-Session-ID"

	datasetSettlements = "fechamento"
	datasetMerchants   = "novos"

	sessionIDKey = "sessionID"
	datasetsKey  = "datasets"

	maxIssueSample = 20
	maxIssueLogs   = 50
)

// Options configura o handler.
type Options struct {
	SettlementPath string
	MerchantPath   string
	MaxUploadBytes int64
}

// ReconciliationHandler lida com as requisições de upload, relatórios e exportação.
type ReconciliationHandler struct {
	service reconciler.Service
	store   *session.Store
	logger  *zap.Logger
	metrics *Metrics
	opts    Options
}

// NewReconciliationHandler cria um novo handler de conciliação.
func NewReconciliationHandler(service reconciler.Service, store *session.Store, logger *zap.Logger, metrics *Metrics, opts Options) *ReconciliationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &ReconciliationHandler{
		service: service,
		store:   store,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// FileResult é o resultado do carregamento de uma planilha.
type FileResult struct {
	Dataset     string         `json:"dataset"`
	Filename    string         `json:"filename"`
	Rows        int            `json:"rows"`
	Schema      domain.Schema  `json:"schema"`
	Issues      int            `json:"issues"`
	IssueSample []domain.Issue `json:"issue_sample,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// DatasetsStatus descreve as bases em uso pela sessão.
type DatasetsStatus struct {
	SessionID        string         `json:"session_id"`
	Source           session.Source `json:"source"`
	SettlementRows   int            `json:"settlement_rows"`
	SettlementSchema domain.Schema  `json:"settlement_schema"`
	MerchantRows     int            `json:"merchant_rows"`
	MerchantSchema   domain.Schema  `json:"merchant_schema"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Files            []FileResult   `json:"files,omitempty"`
}

type salesPayload struct {
	Source session.Source `json:"source"`
	domain.SalesReport
}

type merchantPayload struct {
	Source session.Source `json:"source"`
	domain.MerchantReport
}

// Session resolve a sessão pelo cabeçalho X-Session-ID, criando uma nova quando preciso.
func (h *ReconciliationHandler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, datasets := h.store.Open(c.GetHeader(SessionHeader))
		c.Header(SessionHeader, id)
		c.Set(sessionIDKey, id)
		c.Set(datasetsKey, datasets)
		c.Next()
	}
}

func (h *ReconciliationHandler) current(c *gin.Context) (string, session.Datasets) {
	id := c.GetString(sessionIDKey)
	if v, ok := c.Get(datasetsKey); ok {
		if d, ok := v.(session.Datasets); ok {
			return id, d
		}
	}
	id, d := h.store.Open(id)
	return id, d
}

func status(id string, d session.Datasets, files []FileResult) DatasetsStatus {
	return DatasetsStatus{
		SessionID:        id,
		Source:           d.Source,
		SettlementRows:   d.Settlements.Len(),
		SettlementSchema: d.Settlements.Schema,
		MerchantRows:     d.Merchants.Len(),
		MerchantSchema:   d.Merchants.Schema,
		UpdatedAt:        d.UpdatedAt,
		Files:            files,
	}
}

// logIssues registra como aviso os valores que degradaram para o padrão na normalização.
func (h *ReconciliationHandler) logIssues(dataset, filename string, issues []domain.Issue) {
	h.metrics.observeIssues(issues)
	for i, is := range issues {
		if i == maxIssueLogs {
			h.logger.Warn("mais problemas de conversão omitidos",
				zap.String("dataset", dataset),
				zap.Int("omitidos", len(issues)-maxIssueLogs),
			)
			break
		}
		h.logger.Warn("valor não convertido",
			zap.String("dataset", dataset),
			zap.String("file", filename),
			zap.String("kind", string(is.Kind)),
			zap.String("field", is.Field),
			zap.Int("row", is.Row),
			zap.String("value", is.Value),
		)
	}
}

func fileResult(dataset, filename string, rows int, schema domain.Schema, issues []domain.Issue, err error) FileResult {
	res := FileResult{Dataset: dataset, Filename: filename, Rows: rows, Schema: schema, Issues: len(issues)}
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if len(issues) > maxIssueSample {
		res.IssueSample = issues[:maxIssueSample]
	} else {
		res.IssueSample = issues
	}
	return res
}

func (h *ReconciliationHandler) uploadSettlements(id string, fh *multipart.FileHeader) FileResult {
	f, err := fh.Open()
	if err != nil {
		err = fmt.Errorf("não foi possível abrir o arquivo de fechamento: %w", err)
		h.metrics.observeUpload(datasetSettlements, err)
		return fileResult(datasetSettlements, fh.Filename, 0, 0, nil, err)
	}
	defer f.Close()

	table, issues, err := sheets.LoadSettlements(f, fh.Filename)
	h.metrics.observeUpload(datasetSettlements, err)
	if err != nil {
		h.logger.Error("erro ao carregar fechamento", zap.String("file", fh.Filename), zap.Error(err))
		return fileResult(datasetSettlements, fh.Filename, 0, 0, nil, err)
	}
	h.logIssues(datasetSettlements, fh.Filename, issues)
	h.store.ReplaceSettlements(id, table)
	return fileResult(datasetSettlements, fh.Filename, table.Len(), table.Schema, issues, nil)
}

func (h *ReconciliationHandler) uploadMerchants(id string, fh *multipart.FileHeader) FileResult {
	f, err := fh.Open()
	if err != nil {
		err = fmt.Errorf("não foi possível abrir o arquivo de novos comércios: %w", err)
		h.metrics.observeUpload(datasetMerchants, err)
		return fileResult(datasetMerchants, fh.Filename, 0, 0, nil, err)
	}
	defer f.Close()

	table, issues, err := sheets.LoadMerchants(f, fh.Filename)
	h.metrics.observeUpload(datasetMerchants, err)
	if err != nil {
		h.logger.Error("erro ao carregar novos comércios", zap.String("file", fh.Filename), zap.Error(err))
		return fileResult(datasetMerchants, fh.Filename, 0, 0, nil, err)
	}
	h.logIssues(datasetMerchants, fh.Filename, issues)
	h.store.ReplaceMerchants(id, table)
	return fileResult(datasetMerchants, fh.Filename, table.Len(), table.Schema, issues, nil)
}

// HandleUpload recebe fechamentoFile e/ou novosFile. Uma planilha com erro não impede a outra.
func (h *ReconciliationHandler) HandleUpload(c *gin.Context) {
	id, _ := h.current(c)
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}

	settlementHeader, errS := c.FormFile("fechamentoFile")
	merchantHeader, errM := c.FormFile("novosFile")
	if errS != nil && errM != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(errS, &tooLarge) || errors.As(errM, &tooLarge) {
			responses.Error(c, http.StatusRequestEntityTooLarge, "Arquivo excede o tamanho máximo permitido")
			return
		}
		responses.Error(c, http.StatusBadRequest, "Nenhum arquivo enviado (fechamentoFile ou novosFile)")
		return
	}

	var results []FileResult
	var errs []string
	if errS == nil {
		res := h.uploadSettlements(id, settlementHeader)
		results = append(results, res)
		if res.Error != "" {
			errs = append(errs, res.Error)
		}
	}
	if errM == nil {
		res := h.uploadMerchants(id, merchantHeader)
		results = append(results, res)
		if res.Error != "" {
			errs = append(errs, res.Error)
		}
	}

	if len(errs) == len(results) {
		responses.Error(c, http.StatusBadRequest, "Não foi possível carregar as planilhas enviadas", errs...)
		return
	}

	d, _ := h.store.Get(id)
	msg := "Planilhas carregadas com sucesso"
	if len(errs) > 0 {
		msg = "Planilhas carregadas parcialmente"
	}
	responses.Success(c, status(id, d, results), msg)
}

// LoadRepository lê as planilhas padrão do repositório. Uma base ausente fica vazia e o erro volta nos resultados.
func (h *ReconciliationHandler) LoadRepository() (session.Datasets, []FileResult) {
	var results []FileResult
	d := session.Datasets{Source: session.SourceRepo}

	settlements, issues, err := sheets.LoadSettlementsFile(h.opts.SettlementPath)
	if err != nil {
		h.logger.Warn("fechamento padrão não carregado", zap.String("path", h.opts.SettlementPath), zap.Error(err))
	} else {
		h.logIssues(datasetSettlements, h.opts.SettlementPath, issues)
		d.Settlements = settlements
	}
	results = append(results, fileResult(datasetSettlements, h.opts.SettlementPath, settlements.Len(), settlements.Schema, issues, err))

	merchants, issues, err := sheets.LoadMerchantsFile(h.opts.MerchantPath)
	if err != nil {
		h.logger.Warn("novos comércios padrão não carregados", zap.String("path", h.opts.MerchantPath), zap.Error(err))
	} else {
		h.logIssues(datasetMerchants, h.opts.MerchantPath, issues)
		d.Merchants = merchants
	}
	results = append(results, fileResult(datasetMerchants, h.opts.MerchantPath, merchants.Len(), merchants.Schema, issues, err))

	if d.Empty() {
		d.Source = session.SourceEmpty
	}
	return d, results
}

// HandleReload relê as planilhas padrão do repositório para a sessão.
func (h *ReconciliationHandler) HandleReload(c *gin.Context) {
	id, _ := h.current(c)

	loaded, results := h.LoadRepository()
	if results[0].Error != "" && results[1].Error != "" {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível ler as planilhas do repositório", results[0].Error, results[1].Error)
		return
	}

	h.store.SetDefaults(loaded)
	d := h.store.Reset(id)
	responses.Success(c, status(id, d, results), "Bases do repositório recarregadas")
}

// HandleDatasets informa as bases em uso pela sessão.
func (h *ReconciliationHandler) HandleDatasets(c *gin.Context) {
	id, d := h.current(c)
	responses.Success(c, status(id, d, nil), "")
}

// HandleDatasetsExport baixa as duas bases da sessão com os cabeçalhos canônicos.
func (h *ReconciliationHandler) HandleDatasetsExport(c *gin.Context) {
	_, d := h.current(c)

	data, err := export.Datasets(d.Settlements, d.Merchants)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar a planilha", err.Error())
		return
	}
	responses.Attachment(c, timestamped("bases"), data)
}

func (h *ReconciliationHandler) salesReport(c *gin.Context) (session.Datasets, domain.SalesReport, bool) {
	var filter domain.SettlementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return session.Datasets{}, domain.SalesReport{}, false
	}
	_, d := h.current(c)

	timer := h.metrics.reportTimer("vendas")
	report := h.service.SalesReport(d.Settlements, filter)
	timer.ObserveDuration()
	return d, report, true
}

func (h *ReconciliationHandler) merchantReport(c *gin.Context) (session.Datasets, domain.MerchantReport, bool) {
	var filter domain.MerchantFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		responses.Error(c, http.StatusBadRequest, "Filtro inválido", err.Error())
		return session.Datasets{}, domain.MerchantReport{}, false
	}
	_, d := h.current(c)

	timer := h.metrics.reportTimer("novos")
	report := h.service.MerchantReport(d.Merchants, d.Settlements, filter)
	timer.ObserveDuration()
	return d, report, true
}

// HandleSales devolve o relatório de vendas & MDR para os filtros da query string.
func (h *ReconciliationHandler) HandleSales(c *gin.Context) {
	d, report, ok := h.salesReport(c)
	if !ok {
		return
	}
	msg := "Relatório de vendas gerado com sucesso"
	if d.Settlements.Len() == 0 {
		msg = "Nenhum dado de fechamento carregado"
	}
	responses.Success(c, salesPayload{Source: d.Source, SalesReport: report}, msg)
}

// HandleSalesExport baixa a base filtrada e os resumos de vendas.
func (h *ReconciliationHandler) HandleSalesExport(c *gin.Context) {
	_, report, ok := h.salesReport(c)
	if !ok {
		return
	}
	data, err := export.Sales(report)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar a planilha", err.Error())
		return
	}
	responses.Attachment(c, timestamped("vendas_mdr"), data)
}

// HandleMerchants devolve o relatório de novos comércios para os filtros da query string.
func (h *ReconciliationHandler) HandleMerchants(c *gin.Context) {
	d, report, ok := h.merchantReport(c)
	if !ok {
		return
	}
	msg := "Relatório de novos comércios gerado com sucesso"
	switch {
	case d.Merchants.Len() == 0:
		msg = "Nenhum dado de novos comércios carregado"
	case d.Settlements.Len() == 0:
		msg = "Nenhum dado de fechamento carregado; realizado zerado"
	}
	responses.Success(c, merchantPayload{Source: d.Source, MerchantReport: report}, msg)
}

// HandleMerchantsExport baixa os novos comércios filtrados e a movimentação por comércio.
func (h *ReconciliationHandler) HandleMerchantsExport(c *gin.Context) {
	_, report, ok := h.merchantReport(c)
	if !ok {
		return
	}
	data, err := export.Merchants(report)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar a planilha", err.Error())
		return
	}
	responses.Attachment(c, timestamped("novos_movimentacao"), data)
}

func timestamped(prefix string) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("20060102_150405"))
}

// RegisterRoutes registra as rotas de conciliação no grupo, todas sob o middleware de sessão.
func (h *ReconciliationHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.Use(h.Session())
	{
		group.POST("/uploads", h.HandleUpload)
		group.GET("/datasets", h.HandleDatasets)
		group.POST("/datasets/reload", h.HandleReload)
		group.GET("/datasets/export", h.HandleDatasetsExport)
		group.GET("/vendas", h.HandleSales)
		group.GET("/vendas/export", h.HandleSalesExport)
		group.GET("/novos", h.HandleMerchants)
		group.GET("/novos/export", h.HandleMerchantsExport)
	}
}
