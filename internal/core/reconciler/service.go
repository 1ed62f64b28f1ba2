// package reconciler/service.go
package reconciler

import (
	"time"

	"go.uber.org/zap"

	"reconciliation-service/internal/core/aggregator"
	"reconciliation-service/internal/core/matcher"
	"reconciliation-service/internal/domain"
)

// Service monta os relatórios das páginas de vendas e de novos comércios.
// Recebe as tabelas e o filtro como parâmetros e não guarda estado entre chamadas.
type Service interface {
	SalesReport(settlements domain.SettlementTable, filter domain.SettlementFilter) domain.SalesReport
	MerchantReport(merchants domain.MerchantTable, settlements domain.SettlementTable, filter domain.MerchantFilter) domain.MerchantReport
}

type service struct {
	logger        *zap.Logger
	minSimilarity float64
}

// NewService cria o serviço de conciliação. Um logger nil desliga os logs.
func NewService(logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{logger: logger, minSimilarity: matcher.DefaultMinSimilarity}
}

// SalesReport filtra o fechamento e calcula KPIs e os três resumos. Cada resumo é
// independente: um agrupamento sem as colunas necessárias volta vazio sem afetar os outros.
func (s *service) SalesReport(settlements domain.SettlementTable, filter domain.SettlementFilter) domain.SalesReport {
	start := time.Now()

	filtered := FilterSettlements(settlements, filter)
	report := domain.SalesReport{
		Filtered:       filtered,
		KPIs:           aggregator.Totals(filtered),
		Monthly:        aggregator.Summarize(filtered, domain.ByMonth),
		BySalesperson:  aggregator.Summarize(filtered, domain.ByMonthSalesperson),
		ByBrandProduct: aggregator.Summarize(filtered, domain.ByMonthBrandProduct),
		Facets:         SettlementFacets(settlements),
	}

	s.logger.Debug("relatório de vendas calculado",
		zap.Int("linhas", settlements.Len()),
		zap.Int("filtradas", filtered.Len()),
		zap.Duration("duracao", time.Since(start)),
	)
	return report
}

// MerchantReport calcula o realizado sobre a tabela completa de novos comércios, aplica o
// filtro e então monta KPIs, resumo por vendedor, movimentação e sugestões de nome.
func (s *service) MerchantReport(merchants domain.MerchantTable, settlements domain.SettlementTable, filter domain.MerchantFilter) domain.MerchantReport {
	start := time.Now()

	realized := matcher.Realize(merchants, settlements)
	filtered := FilterMerchants(realized.Rows, realized.Schema, filter)

	report := domain.MerchantReport{
		Filtered:      filtered,
		Schema:        realized.Schema.With(domain.FieldRealized),
		Strategy:      realized.Strategy,
		KPIs:          MerchantTotals(filtered),
		BySalesperson: PipelineBySalesperson(filtered, realized.Schema),
		Movement:      Movement(filtered, settlements),
		Suggestions:   matcher.Suggest(filtered, settlements, s.minSimilarity),
		Facets:        MerchantFacets(realized.Rows, realized.Schema),
	}
	if report.Suggestions == nil {
		report.Suggestions = []domain.NameSuggestion{}
	}

	s.logger.Debug("relatório de novos comércios calculado",
		zap.Int("comercios", merchants.Len()),
		zap.Int("filtrados", len(filtered)),
		zap.String("estrategia", string(realized.Strategy)),
		zap.Int("sugestoes", len(report.Suggestions)),
		zap.Duration("duracao", time.Since(start)),
	)
	return report
}
