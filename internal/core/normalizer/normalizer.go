// Package normalizer converte planilhas cruas de fechamento e de novos comércios
// para os registros canônicos do domínio. Nenhuma função aqui falha: valores
// inválidos degradam para o padrão e são devolvidos como []domain.Issue.
package normalizer

import (
	"strconv"
	"strings"

	"reconciliation-service/internal/domain"
)

type valueKind int

const (
	kindText valueKind = iota
	kindAmount
	kindMonth
	kindTaxID
)

type settlementColumn struct {
	field domain.Field
	name  string
	kind  valueKind
	str   func(r *domain.SettlementRecord) *string
	num   func(r *domain.SettlementRecord) *float64
}

type merchantColumn struct {
	field domain.Field
	name  string
	kind  valueKind
	str   func(r *domain.MerchantRecord) *string
	num   func(r *domain.MerchantRecord) *float64
}

// A ordem das colunas é a ordem de exportação.
var settlementColumns = []settlementColumn{
	{field: domain.FieldMonth, name: domain.ColMonth, kind: kindMonth, str: func(r *domain.SettlementRecord) *string { return &r.Month }},
	{field: domain.FieldTaxID, name: domain.ColTaxID, kind: kindTaxID, str: func(r *domain.SettlementRecord) *string { return &r.TaxID }},
	{field: domain.FieldTradeName, name: domain.ColTradeName, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.TradeName }},
	{field: domain.FieldCity, name: domain.ColCity, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.City }},
	{field: domain.FieldState, name: domain.ColState, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.State }},
	{field: domain.FieldSalesperson, name: domain.ColSalesperson, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.Salesperson }},
	{field: domain.FieldMCCCategory, name: domain.ColMCCCategory, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.MCCCategory }},
	{field: domain.FieldBrand, name: domain.ColBrand, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.Brand }},
	{field: domain.FieldProduct, name: domain.ColProduct, kind: kindText, str: func(r *domain.SettlementRecord) *string { return &r.Product }},
	{field: domain.FieldAmount, name: domain.ColAmount, kind: kindAmount, num: func(r *domain.SettlementRecord) *float64 { return &r.Amount }},
	{field: domain.FieldGrossFee, name: domain.ColGrossFee, kind: kindAmount, num: func(r *domain.SettlementRecord) *float64 { return &r.GrossFee }},
	{field: domain.FieldNetFeeCard, name: domain.ColNetFeeCard, kind: kindAmount, num: func(r *domain.SettlementRecord) *float64 { return &r.NetFeeCard }},
	{field: domain.FieldNetFeeAdvance, name: domain.ColNetFeeAdvance, kind: kindAmount, num: func(r *domain.SettlementRecord) *float64 { return &r.NetFeeAdvance }},
	{field: domain.FieldNetFeePix, name: domain.ColNetFeePix, kind: kindAmount, num: func(r *domain.SettlementRecord) *float64 { return &r.NetFeePix }},
	{field: domain.FieldNetFeeTotal, name: domain.ColNetFeeTotal, kind: kindAmount, num: func(r *domain.SettlementRecord) *float64 { return &r.NetFeeTotal }},
}

var merchantColumns = []merchantColumn{
	{field: domain.FieldMonth, name: domain.ColMonth, kind: kindMonth, str: func(r *domain.MerchantRecord) *string { return &r.Month }},
	{field: domain.FieldTradeName, name: domain.ColMerchantName, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.TradeName }},
	{field: domain.FieldTaxID, name: domain.ColTaxID, kind: kindTaxID, str: func(r *domain.MerchantRecord) *string { return &r.TaxID }},
	{field: domain.FieldSalesperson, name: domain.ColSalesperson, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.Salesperson }},
	{field: domain.FieldCity, name: domain.ColCity, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.City }},
	{field: domain.FieldState, name: domain.ColState, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.State }},
	{field: domain.FieldMCC, name: domain.ColMCC, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.MCC }},
	{field: domain.FieldMCCCategory, name: domain.ColMCCCategory, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.MCCCategory }},
	{field: domain.FieldRegistrationDate, name: domain.ColRegistrationDate, kind: kindText, str: func(r *domain.MerchantRecord) *string { return &r.RegistrationDate }},
	{field: domain.FieldForecast, name: domain.ColForecast, kind: kindAmount, num: func(r *domain.MerchantRecord) *float64 { return &r.Forecast }},
	{field: domain.FieldTarget, name: domain.ColTarget, kind: kindAmount, num: func(r *domain.MerchantRecord) *float64 { return &r.Target }},
}

// Grafias alternativas conhecidas, já reduzidas por headerKey. Os nomes canônicos entram em init.
var settlementAliases = map[string]domain.Field{
	"MES REFERENCIA":               domain.FieldMonth,
	"MES DE REFERENCIA":            domain.FieldMonth,
	"REFERENCIA":                   domain.FieldMonth,
	"PREPOSTO":                     domain.FieldSalesperson,
	"MCC CATEGORIA":                domain.FieldMCCCategory,
	"CATEGORIA MCC":                domain.FieldMCCCategory,
	"CNPJ ESTABELECIMENTO":         domain.FieldTaxID,
	"ESTABELECIMENTO":              domain.FieldTradeName,
	"FANTASIA":                     domain.FieldTradeName,
	"TOTAL MDR R LIQUIDO":          domain.FieldNetFeeTotal,
	"MDR R LIQUIDO CARTAO":         domain.FieldNetFeeCard,
	"MDR R LIQUIDO ANTECIPACOES":   domain.FieldNetFeeAdvance,
	"TOTAL MDR R LIQUIDO VEGASPAY": domain.FieldNetFeeTotal,
	"VALOR BRUTO":                  domain.FieldAmount,
}

var merchantAliases = map[string]domain.Field{
	"NOME FANTASIA":            domain.FieldTradeName,
	"PREPOSTO":                 domain.FieldSalesperson,
	"MCC CATEGORIA":            domain.FieldMCCCategory,
	"CATEGORIA MCC":            domain.FieldMCCCategory,
	"DATA CADASTRO":            domain.FieldRegistrationDate,
	"PREVISAO DE MOVIMENTACAO": domain.FieldForecast,
	"PREVISAO MOV FINANCEIRA":  domain.FieldForecast,
	"META 70 DA MOVIMENTACAO":  domain.FieldTarget,
	"META 70":                  domain.FieldTarget,
}

func init() {
	for _, c := range settlementColumns {
		settlementAliases[headerKey(c.name)] = c.field
	}
	for _, c := range merchantColumns {
		merchantAliases[headerKey(c.name)] = c.field
	}
}

// resolveColumns associa cada campo canônico ao índice da primeira coluna que o representa.
func resolveColumns(header []string, aliases map[string]domain.Field) map[domain.Field]int {
	cols := make(map[domain.Field]int)
	for idx, h := range header {
		f, ok := aliases[headerKey(h)]
		if !ok {
			continue
		}
		if _, seen := cols[f]; seen {
			continue
		}
		cols[f] = idx
	}
	return cols
}

type cellReader struct {
	row    []string
	rowNum int
	issues *[]domain.Issue
}

func (c cellReader) raw(idx int) string {
	if idx < len(c.row) {
		return c.row[idx]
	}
	return ""
}

func (c cellReader) read(idx int, kind valueKind, field domain.Field) (string, float64) {
	val := c.raw(idx)
	switch kind {
	case kindAmount:
		f, ok := ParseAmount(val)
		if !ok {
			c.report(domain.IssueInvalidNumber, field, val)
		}
		return "", f
	case kindMonth:
		m, ok := MonthBucket(val)
		if !ok {
			c.report(domain.IssueInvalidDate, field, val)
		}
		return m, 0
	case kindTaxID:
		return CanonTaxID(strings.TrimSpace(val)), 0
	default:
		return strings.TrimSpace(val), 0
	}
}

func (c cellReader) report(kind domain.IssueKind, field domain.Field, val string) {
	*c.issues = append(*c.issues, domain.Issue{
		Kind:  kind,
		Field: field.String(),
		Row:   c.rowNum,
		Value: val,
	})
}

// NormalizeSettlements renomeia, tipa e limpa o fechamento consolidado.
func NormalizeSettlements(raw domain.RawTable) (domain.SettlementTable, []domain.Issue) {
	cols := resolveColumns(raw.Header, settlementAliases)

	var schema domain.Schema
	for f := range cols {
		schema = schema.With(f)
	}

	var issues []domain.Issue
	records := make([]domain.SettlementRecord, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		reader := cellReader{row: row, rowNum: i + 1, issues: &issues}
		var rec domain.SettlementRecord
		for _, c := range settlementColumns {
			idx, ok := cols[c.field]
			if !ok {
				continue
			}
			s, f := reader.read(idx, c.kind, c.field)
			if c.num != nil {
				*c.num(&rec) = f
			} else {
				*c.str(&rec) = s
			}
		}
		records = append(records, rec)
	}

	return domain.SettlementTable{Records: records, Schema: schema}, issues
}

// NormalizeMerchants renomeia, tipa e limpa a planilha de novos comércios.
// O mês vem da data de cadastro; sem ela, de uma coluna Mes já existente.
func NormalizeMerchants(raw domain.RawTable) (domain.MerchantTable, []domain.Issue) {
	cols := resolveColumns(raw.Header, merchantAliases)

	var schema domain.Schema
	for f := range cols {
		schema = schema.With(f)
	}

	monthIdx, monthOK := cols[domain.FieldMonth]
	if dateIdx, ok := cols[domain.FieldRegistrationDate]; ok {
		monthIdx, monthOK = dateIdx, true
	}
	if monthOK {
		schema = schema.With(domain.FieldMonth)
	}

	var issues []domain.Issue
	records := make([]domain.MerchantRecord, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		reader := cellReader{row: row, rowNum: i + 1, issues: &issues}
		var rec domain.MerchantRecord
		for _, c := range merchantColumns {
			idx, ok := cols[c.field]
			if c.field == domain.FieldMonth {
				idx, ok = monthIdx, monthOK
			}
			if !ok {
				continue
			}
			s, f := reader.read(idx, c.kind, c.field)
			if c.num != nil {
				*c.num(&rec) = f
			} else {
				*c.str(&rec) = s
			}
		}
		records = append(records, rec)
	}

	return domain.MerchantTable{Records: records, Schema: schema}, issues
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SettlementHeader lista os nomes canônicos das colunas presentes no schema.
func SettlementHeader(schema domain.Schema) []string {
	var header []string
	for _, c := range settlementColumns {
		if schema.Has(c.field) {
			header = append(header, c.name)
		}
	}
	return header
}

// SettlementsToRaw devolve o fechamento canônico como planilha crua com cabeçalhos canônicos.
// Normalizar o resultado reproduz a tabela de entrada.
func SettlementsToRaw(t domain.SettlementTable) domain.RawTable {
	out := domain.RawTable{Header: SettlementHeader(t.Schema)}
	for i := range t.Records {
		rec := &t.Records[i]
		row := make([]string, 0, len(out.Header))
		for _, c := range settlementColumns {
			if !t.Schema.Has(c.field) {
				continue
			}
			if c.num != nil {
				row = append(row, formatAmount(*c.num(rec)))
			} else {
				row = append(row, *c.str(rec))
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// MerchantHeader lista os nomes canônicos das colunas presentes no schema.
func MerchantHeader(schema domain.Schema) []string {
	var header []string
	for _, c := range merchantColumns {
		if schema.Has(c.field) {
			header = append(header, c.name)
		}
	}
	return header
}

// MerchantsToRaw devolve os novos comércios canônicos como planilha crua.
func MerchantsToRaw(t domain.MerchantTable) domain.RawTable {
	out := domain.RawTable{Header: MerchantHeader(t.Schema)}
	for i := range t.Records {
		rec := &t.Records[i]
		row := make([]string, 0, len(out.Header))
		for _, c := range merchantColumns {
			if !t.Schema.Has(c.field) {
				continue
			}
			if c.num != nil {
				row = append(row, formatAmount(*c.num(rec)))
			} else {
				row = append(row, *c.str(rec))
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
