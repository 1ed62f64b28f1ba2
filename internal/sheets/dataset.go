package sheets

import (
	"io"

	"reconciliation-service/internal/core/normalizer"
	"reconciliation-service/internal/domain"
)

// LoadSettlements lê e normaliza uma planilha de fechamento.
func LoadSettlements(r io.Reader, filename string) (domain.SettlementTable, []domain.Issue, error) {
	raw, err := Load(r, filename)
	if err != nil {
		return domain.SettlementTable{}, nil, err
	}
	table, issues := normalizer.NormalizeSettlements(raw)
	return table, issues, nil
}

// LoadMerchants lê e normaliza uma planilha de novos comércios.
func LoadMerchants(r io.Reader, filename string) (domain.MerchantTable, []domain.Issue, error) {
	raw, err := Load(r, filename)
	if err != nil {
		return domain.MerchantTable{}, nil, err
	}
	table, issues := normalizer.NormalizeMerchants(raw)
	return table, issues, nil
}

// LoadSettlementsFile é LoadSettlements sobre um arquivo do disco.
func LoadSettlementsFile(path string) (domain.SettlementTable, []domain.Issue, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return domain.SettlementTable{}, nil, err
	}
	table, issues := normalizer.NormalizeSettlements(raw)
	return table, issues, nil
}

// LoadMerchantsFile é LoadMerchants sobre um arquivo do disco.
func LoadMerchantsFile(path string) (domain.MerchantTable, []domain.Issue, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return domain.MerchantTable{}, nil, err
	}
	table, issues := normalizer.NormalizeMerchants(raw)
	return table, issues, nil
}
