package export

import (
	"reconciliation-service/internal/core/normalizer"
	"reconciliation-service/internal/domain"
)

// Nomes das abas exportadas.
const (
	SheetSettlements     = "Fechamento"
	SheetMerchants       = "Novos_Comercios"
	SheetFilteredSales   = "Base_Filtrada"
	SheetMonthly         = "Resumo_Mensal"
	SheetBySalesperson   = "Resumo_Vendedor"
	SheetByBrandProduct  = "Resumo_Bandeira_Produto"
	SheetFilteredNovos   = "Novos_Filtrado"
	SheetMovement        = "Movimentacao_Comercios"
	SheetNovosByVendedor = "Resumo_Vendedor_Novos"
)

var moneyHeaders = map[string]bool{
	domain.ColAmount:        true,
	domain.ColGrossFee:      true,
	domain.ColNetFeeCard:    true,
	domain.ColNetFeeAdvance: true,
	domain.ColNetFeePix:     true,
	domain.ColNetFeeTotal:   true,
	domain.ColForecast:      true,
	domain.ColTarget:        true,
	domain.ColRealized:      true,
}

func settlementSheet(name string, t domain.SettlementTable, required bool) sheet {
	raw := normalizer.SettlementsToRaw(t)
	return sheet{name: name, rows: raw.Len(), columns: rawColumns(raw.Header, raw.Rows, moneyHeaders), required: required}
}

func merchantSheet(name string, t domain.MerchantTable, required bool) sheet {
	raw := normalizer.MerchantsToRaw(t)
	return sheet{name: name, rows: raw.Len(), columns: rawColumns(raw.Header, raw.Rows, moneyHeaders), required: required}
}

func summarySheet(name string, s domain.Summary, required bool) sheet {
	rows := s.Rows
	text := func(header string, get func(domain.SummaryRow) string) column {
		return column{header: header, kind: kindText, value: func(i int) any { return get(rows[i]) }}
	}
	num := func(header string, kind cellKind, get func(domain.SummaryRow) float64) column {
		return column{header: header, kind: kind, value: func(i int) any { return get(rows[i]) }}
	}

	cols := []column{text(domain.ColMonth, func(r domain.SummaryRow) string { return r.Month })}
	switch s.Dimension {
	case domain.ByMonthSalesperson:
		cols = append(cols, text(domain.ColSalesperson, func(r domain.SummaryRow) string { return r.Salesperson }))
	case domain.ByMonthBrandProduct:
		cols = append(cols,
			text(domain.ColBrand, func(r domain.SummaryRow) string { return r.Brand }),
			text(domain.ColProduct, func(r domain.SummaryRow) string { return r.Product }),
		)
	}
	cols = append(cols,
		num(domain.ColSalesAmount, kindMoney, func(r domain.SummaryRow) float64 { return r.Amount }),
		num(domain.ColSumGrossFee, kindMoney, func(r domain.SummaryRow) float64 { return r.GrossFee }),
	)
	if s.Dimension == domain.ByMonth {
		cols = append(cols,
			num(domain.ColSumNetCard, kindMoney, func(r domain.SummaryRow) float64 { return r.NetFeeCard }),
			num(domain.ColSumNetAdvance, kindMoney, func(r domain.SummaryRow) float64 { return r.NetFeeAdvance }),
			num(domain.ColSumNetPix, kindMoney, func(r domain.SummaryRow) float64 { return r.NetFeePix }),
		)
	}
	cols = append(cols,
		num(domain.ColSumNetTotal, kindMoney, func(r domain.SummaryRow) float64 { return r.NetFeeTotal }),
		num(domain.ColGrossFeePct, kindPercent, func(r domain.SummaryRow) float64 { return r.GrossFeePct }),
		num(domain.ColNetFeePct, kindPercent, func(r domain.SummaryRow) float64 { return r.NetFeePct }),
	)
	return sheet{name: name, rows: len(rows), columns: cols, required: required}
}

func realizedSheet(rows []domain.RealizedMerchant, schema domain.Schema) sheet {
	records := make([]domain.MerchantRecord, len(rows))
	for i, row := range rows {
		records[i] = row.MerchantRecord
	}
	sh := merchantSheet(SheetFilteredNovos, domain.MerchantTable{Records: records, Schema: schema}, true)
	sh.columns = append(sh.columns, column{
		header: domain.ColRealized,
		kind:   kindMoney,
		value:  func(i int) any { return rows[i].Realized },
	})
	return sh
}

func movementSheet(rows []domain.MovementRow) sheet {
	text := func(header string, get func(domain.MovementRow) string) column {
		return column{header: header, kind: kindText, value: func(i int) any { return get(rows[i]) }}
	}
	num := func(header string, kind cellKind, get func(domain.MovementRow) float64) column {
		return column{header: header, kind: kind, value: func(i int) any { return get(rows[i]) }}
	}
	return sheet{
		name: SheetMovement,
		rows: len(rows),
		columns: []column{
			text(domain.ColMerchantName, func(r domain.MovementRow) string { return r.TradeName }),
			text(domain.ColTaxID, func(r domain.MovementRow) string { return r.TaxID }),
			text(domain.ColSalesperson, func(r domain.MovementRow) string { return r.Salesperson }),
			text(domain.ColCity, func(r domain.MovementRow) string { return r.City }),
			text(domain.ColState, func(r domain.MovementRow) string { return r.State }),
			text(domain.ColMCCCategory, func(r domain.MovementRow) string { return r.MCCCategory }),
			num(domain.ColSalesAmount, kindMoney, func(r domain.MovementRow) float64 { return r.Amount }),
			num(domain.ColSumGrossFee, kindMoney, func(r domain.MovementRow) float64 { return r.GrossFee }),
			num(domain.ColMovementNet, kindMoney, func(r domain.MovementRow) float64 { return r.NetFee }),
			num(domain.ColGrossFeePct, kindPercent, func(r domain.MovementRow) float64 { return r.GrossFeePct }),
			num(domain.ColMovementNetPc, kindPercent, func(r domain.MovementRow) float64 { return r.NetFeePct }),
		},
	}
}

func pipelineSheet(rows []domain.PipelineRow) sheet {
	num := func(header string, kind cellKind, get func(domain.PipelineRow) float64) column {
		return column{header: header, kind: kind, value: func(i int) any { return get(rows[i]) }}
	}
	return sheet{
		name: SheetNovosByVendedor,
		rows: len(rows),
		columns: []column{
			{header: domain.ColSalesperson, kind: kindText, value: func(i int) any { return rows[i].Salesperson }},
			{header: domain.ColCount, kind: kindCount, value: func(i int) any { return rows[i].Count }},
			num(domain.ColForecastSum, kindMoney, func(r domain.PipelineRow) float64 { return r.Forecast }),
			num(domain.ColTargetSum, kindMoney, func(r domain.PipelineRow) float64 { return r.Target }),
			num(domain.ColRealized, kindMoney, func(r domain.PipelineRow) float64 { return r.Realized }),
			num(domain.ColAttainmentPct, kindPercent, func(r domain.PipelineRow) float64 { return r.AttainmentPct }),
		},
	}
}

// Sales exporta a base filtrada e os resumos da página de vendas.
func Sales(report domain.SalesReport) ([]byte, error) {
	return build([]sheet{
		settlementSheet(SheetFilteredSales, report.Filtered, true),
		summarySheet(SheetMonthly, report.Monthly, true),
		summarySheet(SheetBySalesperson, report.BySalesperson, false),
		summarySheet(SheetByBrandProduct, report.ByBrandProduct, false),
	})
}

// Merchants exporta os novos comércios filtrados com o realizado e a movimentação por comércio.
func Merchants(report domain.MerchantReport) ([]byte, error) {
	return build([]sheet{
		realizedSheet(report.Filtered, report.Schema),
		movementSheet(report.Movement),
		pipelineSheet(report.BySalesperson),
	})
}

// Datasets exporta as duas bases atuais da sessão com os cabeçalhos canônicos.
func Datasets(settlements domain.SettlementTable, merchants domain.MerchantTable) ([]byte, error) {
	return build([]sheet{
		settlementSheet(SheetSettlements, settlements, true),
		merchantSheet(SheetMerchants, merchants, false),
	})
}
