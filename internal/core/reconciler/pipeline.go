package reconciler

import (
	"sort"

	"reconciliation-service/internal/core/aggregator"
	"reconciliation-service/internal/domain"
)

// MerchantTotals calcula os KPIs dos novos comércios filtrados.
// Atingimento = realizado / meta70 * 100, ou 0 sem meta.
func MerchantTotals(rows []domain.RealizedMerchant) domain.MerchantKPIs {
	k := domain.MerchantKPIs{Count: len(rows)}
	for _, row := range rows {
		k.Forecast += row.Forecast
		k.Target += row.Target
		k.Realized += row.Realized
	}
	k.AttainmentPct = aggregator.Ratio(k.Realized, k.Target)
	return k
}

// PipelineBySalesperson agrupa os novos comércios por vendedor, em ordem alfabética.
// Fica vazio quando a planilha não tem a coluna Vendedor.
func PipelineBySalesperson(rows []domain.RealizedMerchant, schema domain.Schema) []domain.PipelineRow {
	out := []domain.PipelineRow{}
	if !schema.Has(domain.FieldSalesperson) {
		return out
	}

	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.Salesperson]
		if !ok {
			i = len(out)
			index[row.Salesperson] = i
			out = append(out, domain.PipelineRow{Salesperson: row.Salesperson})
		}
		p := &out[i]
		p.Count++
		p.Forecast += row.Forecast
		p.Target += row.Target
		p.Realized += row.Realized
	}
	for i := range out {
		out[i].AttainmentPct = aggregator.Ratio(out[i].Realized, out[i].Target)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Salesperson < out[j].Salesperson
	})
	return out
}
