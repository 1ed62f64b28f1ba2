// Package matcher liga novos comércios às linhas do fechamento para calcular o realizado.
package matcher

import (
	"reconciliation-service/internal/core/normalizer"
	"reconciliation-service/internal/domain"
)

type monthKey struct {
	month string
	key   string
}

// SelectStrategy decide a chave de conciliação para o par de tabelas.
// CNPJ+Mes é usado sempre que o fechamento traz CNPJ, Mes e Valor; o nome fantasia só entra
// quando o fechamento não tem coluna de CNPJ. As duas estratégias nunca se misturam.
func SelectStrategy(merchants domain.MerchantTable, settlements domain.SettlementTable) domain.MatchStrategy {
	if settlements.Len() == 0 {
		return domain.MatchNone
	}
	fs := settlements.Schema
	if fs.Has(domain.FieldTaxID, domain.FieldMonth, domain.FieldAmount) {
		return domain.MatchTaxID
	}
	if !fs.Has(domain.FieldTaxID) &&
		fs.Has(domain.FieldTradeName, domain.FieldMonth, domain.FieldAmount) &&
		merchants.Schema.Has(domain.FieldTradeName) {
		return domain.MatchName
	}
	return domain.MatchNone
}

func settlementKey(strategy domain.MatchStrategy, rec domain.SettlementRecord) string {
	if strategy == domain.MatchTaxID {
		return rec.TaxID
	}
	return normalizer.FoldName(rec.TradeName)
}

func merchantKey(strategy domain.MatchStrategy, rec domain.MerchantRecord) string {
	if strategy == domain.MatchTaxID {
		return normalizer.CanonTaxID(rec.TaxID)
	}
	return normalizer.FoldName(rec.TradeName)
}

// Realize acrescenta a cada novo comércio a soma de Valor do fechamento no mesmo mês e mesma chave.
// Chaves vazias nunca casam; comércio sem correspondência fica com 0.
func Realize(merchants domain.MerchantTable, settlements domain.SettlementTable) domain.RealizedTable {
	strategy := SelectStrategy(merchants, settlements)

	out := domain.RealizedTable{
		Rows:     make([]domain.RealizedMerchant, len(merchants.Records)),
		Strategy: strategy,
		Schema:   merchants.Schema,
	}
	for i, rec := range merchants.Records {
		out.Rows[i] = domain.RealizedMerchant{MerchantRecord: rec}
	}
	if strategy == domain.MatchNone {
		return out
	}

	realized := make(map[monthKey]float64)
	for _, rec := range settlements.Records {
		key := settlementKey(strategy, rec)
		if key == "" {
			continue
		}
		realized[monthKey{month: rec.Month, key: key}] += rec.Amount
	}

	for i := range out.Rows {
		key := merchantKey(strategy, out.Rows[i].MerchantRecord)
		if key == "" {
			continue
		}
		out.Rows[i].Realized = realized[monthKey{month: out.Rows[i].Month, key: key}]
	}
	return out
}
