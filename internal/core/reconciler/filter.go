package reconciler

import (
	"sort"
	"strings"

	"reconciliation-service/internal/core/normalizer"
	"reconciliation-service/internal/domain"
)

// criterion é um filtro de uma coluna. Seleções sobre colunas ausentes são ignoradas.
type criterion[T any] struct {
	field domain.Field
	sel   domain.Selection
	value func(T) string
}

func active[T any](schema domain.Schema, all []criterion[T]) []criterion[T] {
	var out []criterion[T]
	for _, c := range all {
		if c.sel != nil && schema.Has(c.field) {
			out = append(out, c)
		}
	}
	return out
}

func accepts[T any](row T, cs []criterion[T]) bool {
	for _, c := range cs {
		if !c.sel.Accepts(c.value(row)) {
			return false
		}
	}
	return true
}

func settlementCriteria(f domain.SettlementFilter) []criterion[domain.SettlementRecord] {
	return []criterion[domain.SettlementRecord]{
		{domain.FieldMonth, domain.NewSelection(f.Months), func(r domain.SettlementRecord) string { return r.Month }},
		{domain.FieldSalesperson, domain.NewSelection(f.Salespeople), func(r domain.SettlementRecord) string { return r.Salesperson }},
		{domain.FieldBrand, domain.NewSelection(f.Brands), func(r domain.SettlementRecord) string { return r.Brand }},
		{domain.FieldProduct, domain.NewSelection(f.Products), func(r domain.SettlementRecord) string { return r.Product }},
		{domain.FieldMCCCategory, domain.NewSelection(f.Categories), func(r domain.SettlementRecord) string { return r.MCCCategory }},
	}
}

func merchantCriteria(f domain.MerchantFilter) []criterion[domain.RealizedMerchant] {
	return []criterion[domain.RealizedMerchant]{
		{domain.FieldMonth, domain.NewSelection(f.Months), func(r domain.RealizedMerchant) string { return r.Month }},
		{domain.FieldSalesperson, domain.NewSelection(f.Salespeople), func(r domain.RealizedMerchant) string { return r.Salesperson }},
		{domain.FieldCity, domain.NewSelection(f.Cities), func(r domain.RealizedMerchant) string { return r.City }},
		{domain.FieldState, domain.NewSelection(f.States), func(r domain.RealizedMerchant) string { return r.State }},
		{domain.FieldMCC, domain.NewSelection(f.MCCs), func(r domain.RealizedMerchant) string { return r.MCC }},
		{domain.FieldMCCCategory, domain.NewSelection(f.Categories), func(r domain.RealizedMerchant) string { return r.MCCCategory }},
	}
}

// FilterSettlements devolve uma nova tabela só com as linhas aceitas pelo filtro.
func FilterSettlements(t domain.SettlementTable, f domain.SettlementFilter) domain.SettlementTable {
	cs := active(t.Schema, settlementCriteria(f))
	out := domain.SettlementTable{Schema: t.Schema, Records: make([]domain.SettlementRecord, 0, len(t.Records))}
	for _, rec := range t.Records {
		if accepts(rec, cs) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// FilterMerchants aplica o filtro aos novos comércios. O nome é procurado por substring sem acentos.
func FilterMerchants(rows []domain.RealizedMerchant, schema domain.Schema, f domain.MerchantFilter) []domain.RealizedMerchant {
	cs := active(schema, merchantCriteria(f))
	needle := normalizer.FoldName(f.NameContains)
	byName := needle != "" && schema.Has(domain.FieldTradeName)

	out := make([]domain.RealizedMerchant, 0, len(rows))
	for _, row := range rows {
		if !accepts(row, cs) {
			continue
		}
		if byName && !strings.Contains(normalizer.FoldName(row.TradeName), needle) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func distinct[T any](rows []T, value func(T) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, row := range rows {
		v := value(row)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func facetsFor[T any](rows []T, schema domain.Schema, keys []string, cs []criterion[T]) domain.Facets {
	out := make(domain.Facets)
	for i, c := range cs {
		if schema.Has(c.field) {
			out[keys[i]] = distinct(rows, c.value)
		}
	}
	return out
}

// SettlementFacets lista as opções de cada filtro de vendas, a partir da tabela completa.
func SettlementFacets(t domain.SettlementTable) domain.Facets {
	keys := []string{"mes", "vendedor", "bandeira", "produto", "categoria"}
	return facetsFor(t.Records, t.Schema, keys, settlementCriteria(domain.SettlementFilter{}))
}

// MerchantFacets lista as opções de cada filtro de novos comércios.
func MerchantFacets(rows []domain.RealizedMerchant, schema domain.Schema) domain.Facets {
	keys := []string{"mes", "vendedor", "cidade", "uf", "mcc", "categoria"}
	return facetsFor(rows, schema, keys, merchantCriteria(domain.MerchantFilter{}))
}
