// Package aggregator agrupa o fechamento canônico e calcula somas e percentuais de MDR.
package aggregator

import (
	"math"
	"sort"

	"reconciliation-service/internal/domain"
)

// Ratio devolve num/den*100, ou 0 quando den <= 0. Nunca devolve NaN ou Inf.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0.0
	}
	r := num / den * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0.0
	}
	return r
}

// RequiredFields são as colunas sem as quais o agrupamento não é calculado.
func RequiredFields(dim domain.Dimension) []domain.Field {
	switch dim {
	case domain.ByMonthSalesperson:
		return []domain.Field{domain.FieldMonth, domain.FieldSalesperson, domain.FieldAmount}
	case domain.ByMonthBrandProduct:
		return []domain.Field{domain.FieldMonth, domain.FieldBrand, domain.FieldProduct, domain.FieldAmount}
	default:
		return []domain.Field{domain.FieldMonth, domain.FieldAmount}
	}
}

func keyFor(dim domain.Dimension, rec domain.SettlementRecord) domain.SummaryKey {
	key := domain.SummaryKey{Month: rec.Month}
	switch dim {
	case domain.ByMonthSalesperson:
		key.Salesperson = rec.Salesperson
	case domain.ByMonthBrandProduct:
		key.Brand = rec.Brand
		key.Product = rec.Product
	}
	return key
}

func lessKey(a, b domain.SummaryKey) bool {
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	if a.Salesperson != b.Salesperson {
		return a.Salesperson < b.Salesperson
	}
	if a.Brand != b.Brand {
		return a.Brand < b.Brand
	}
	return a.Product < b.Product
}

// Summarize agrupa o fechamento pela dimensão pedida. Valores vazios formam seu próprio grupo.
// Se faltar alguma coluna de RequiredFields o resumo volta vazio; colunas de MDR ausentes somam 0.
// Os grupos saem ordenados pela chave.
func Summarize(t domain.SettlementTable, dim domain.Dimension) domain.Summary {
	out := domain.Summary{Dimension: dim, Rows: []domain.SummaryRow{}}
	if t.Len() == 0 || !t.Schema.Has(RequiredFields(dim)...) {
		return out
	}

	index := make(map[domain.SummaryKey]int)
	for _, rec := range t.Records {
		key := keyFor(dim, rec)
		i, ok := index[key]
		if !ok {
			i = len(out.Rows)
			index[key] = i
			out.Rows = append(out.Rows, domain.SummaryRow{SummaryKey: key})
		}
		row := &out.Rows[i]
		row.Count++
		row.Amount += rec.Amount
		row.GrossFee += rec.GrossFee
		row.NetFeeTotal += rec.NetFeeTotal
		if dim == domain.ByMonth {
			row.NetFeeCard += rec.NetFeeCard
			row.NetFeeAdvance += rec.NetFeeAdvance
			row.NetFeePix += rec.NetFeePix
		}
	}

	for i := range out.Rows {
		row := &out.Rows[i]
		row.GrossFeePct = Ratio(row.GrossFee, row.Amount)
		row.NetFeePct = Ratio(row.NetFeeTotal, row.Amount)
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		return lessKey(out.Rows[i].SummaryKey, out.Rows[j].SummaryKey)
	})
	return out
}

// Totals calcula os KPIs do fechamento filtrado.
func Totals(t domain.SettlementTable) domain.SalesKPIs {
	var k domain.SalesKPIs
	for _, rec := range t.Records {
		k.Amount += rec.Amount
		k.GrossFee += rec.GrossFee
		k.NetFee += rec.NetFeeTotal
	}
	k.GrossFeePct = Ratio(k.GrossFee, k.Amount)
	k.NetFeePct = Ratio(k.NetFee, k.Amount)
	return k
}
