package reconciler

import (
	"sort"

	"reconciliation-service/internal/core/aggregator"
	"reconciliation-service/internal/core/normalizer"
	"reconciliation-service/internal/domain"
)

type totals struct {
	amount   float64
	grossFee float64
	netFee   float64
}

// movementFields são as colunas do fechamento sem as quais a movimentação não é montada.
var movementFields = []domain.Field{domain.FieldAmount, domain.FieldGrossFee, domain.FieldNetFeeTotal}

func groupBy(records []domain.SettlementRecord, key func(domain.SettlementRecord) string) map[string]totals {
	out := make(map[string]totals)
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		t := out[k]
		t.amount += rec.Amount
		t.grossFee += rec.GrossFee
		t.netFee += rec.NetFeeTotal
		out[k] = t
	}
	return out
}

// Movement soma toda a movimentação histórica do fechamento para cada comércio filtrado,
// sem olhar o mês de cadastro. Cada campo (vendas, MDR bruto, MDR líquido) é resolvido pelo
// CNPJ e, se não houver, pelo nome fantasia, de forma independente. O resultado tem uma linha
// por comércio, em ordem decrescente de vendas; empates mantêm a ordem de entrada.
// Devolve vazio quando alguma das tabelas está vazia ou faltam colunas de valor no fechamento.
func Movement(merchants []domain.RealizedMerchant, settlements domain.SettlementTable) []domain.MovementRow {
	if len(merchants) == 0 || settlements.Len() == 0 || !settlements.Schema.Has(movementFields...) {
		return []domain.MovementRow{}
	}

	var byTaxID, byName map[string]totals
	if settlements.Schema.Has(domain.FieldTaxID) {
		byTaxID = groupBy(settlements.Records, func(r domain.SettlementRecord) string { return r.TaxID })
	}
	if settlements.Schema.Has(domain.FieldTradeName) {
		byName = groupBy(settlements.Records, func(r domain.SettlementRecord) string { return normalizer.FoldName(r.TradeName) })
	}

	out := make([]domain.MovementRow, 0, len(merchants))
	for _, m := range merchants {
		row := domain.MovementRow{
			TradeName:   m.TradeName,
			TaxID:       m.TaxID,
			Salesperson: m.Salesperson,
			City:        m.City,
			State:       m.State,
			MCCCategory: m.MCCCategory,
			Match: domain.MovementMatch{
				Amount:   domain.MatchNone,
				GrossFee: domain.MatchNone,
				NetFee:   domain.MatchNone,
			},
		}

		id, idOK := lookup(byTaxID, normalizer.CanonTaxID(m.TaxID))
		name, nameOK := lookup(byName, normalizer.FoldName(m.TradeName))

		row.Amount, row.Match.Amount = resolve(idOK, id.amount, nameOK, name.amount)
		row.GrossFee, row.Match.GrossFee = resolve(idOK, id.grossFee, nameOK, name.grossFee)
		row.NetFee, row.Match.NetFee = resolve(idOK, id.netFee, nameOK, name.netFee)

		row.GrossFeePct = aggregator.Ratio(row.GrossFee, row.Amount)
		row.NetFeePct = aggregator.Ratio(row.NetFee, row.Amount)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}

func lookup(index map[string]totals, key string) (totals, bool) {
	if key == "" || index == nil {
		return totals{}, false
	}
	t, ok := index[key]
	return t, ok
}

func resolve(idOK bool, idVal float64, nameOK bool, nameVal float64) (float64, domain.MatchStrategy) {
	switch {
	case idOK:
		return idVal, domain.MatchTaxID
	case nameOK:
		return nameVal, domain.MatchName
	default:
		return 0, domain.MatchNone
	}
}
