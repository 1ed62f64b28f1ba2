package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconciliation-service/internal/domain"
)

func fechamentoRaw() domain.RawTable {
	return domain.RawTable{
		Header: []string{
			"Mês Referencia", "Preposto", "MCC - Categoria", "CNPJ Estabelecimento", "Estabelecimento",
			"Bandeira", "Produto", "Valor", "MDR (R$) Bruto", "MDR (R$) Liquido Cartões",
			"MDR (R$) Liquido Antecipação", "MDR (R$) Liquido Pix", "Total MDR (R$) Liquido Vegas Pay",
			"Cidade", "UF",
		},
		Rows: [][]string{
			{"2024-03-15", " Ana ", " Alimentação ", "12.345.678/0001-90", " Loja Açaí ", " VISA ", "Crédito", "1000", "25", "10", "5", "2", "17", " Recife ", "PE"},
			{"45366", "Bruno", "Serviços", "98765432000100", "Oficina", "MASTER", "Débito", "R$ 1.234,56", "12,5", "x", "", "0", "3", "Olinda", "PE"},
			{"sem data", "Ana", "Serviços", "", "Sem CNPJ", "", "Pix", "abc", "", "", "", "", "", "", ""},
		},
	}
}

func TestNormalizeSettlements(t *testing.T) {
	table, issues := NormalizeSettlements(fechamentoRaw())

	require.Len(t, table.Records, 3)
	assert.True(t, table.Schema.Has(
		domain.FieldMonth, domain.FieldSalesperson, domain.FieldMCCCategory, domain.FieldTaxID,
		domain.FieldTradeName, domain.FieldAmount, domain.FieldGrossFee, domain.FieldNetFeeTotal,
		domain.FieldBrand, domain.FieldProduct, domain.FieldCity, domain.FieldState,
	))

	first := table.Records[0]
	assert.Equal(t, "2024-03", first.Month)
	assert.Equal(t, "Ana", first.Salesperson)
	assert.Equal(t, "Alimentação", first.MCCCategory)
	assert.Equal(t, "12345678000190", first.TaxID)
	assert.Equal(t, "Loja Açaí", first.TradeName)
	assert.Equal(t, "VISA", first.Brand)
	assert.Equal(t, "Recife", first.City)
	assert.Equal(t, 1000.0, first.Amount)
	assert.Equal(t, 17.0, first.NetFeeTotal)

	second := table.Records[1]
	assert.Equal(t, "2024-03", second.Month, "Excel serial 45366 is 2024-03-15")
	assert.InDelta(t, 1234.56, second.Amount, 1e-9)
	assert.InDelta(t, 12.5, second.GrossFee, 1e-9)
	assert.Equal(t, 0.0, second.NetFeeCard)

	third := table.Records[2]
	assert.Equal(t, "sem data", third.Month)
	assert.Equal(t, "", third.TaxID)
	assert.Equal(t, 0.0, third.Amount)

	kinds := map[string]domain.IssueKind{}
	for _, is := range issues {
		kinds[is.Field+"@"+is.Value] = is.Kind
	}
	assert.Equal(t, domain.IssueInvalidNumber, kinds["mdr_liq_cartoes@x"])
	assert.Equal(t, domain.IssueInvalidNumber, kinds["valor@abc"])
	assert.Equal(t, domain.IssueInvalidDate, kinds["mes@sem data"])
	assert.Len(t, issues, 3)
}

func TestNormalizeSettlements_MissingColumns(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"Mes", "Valor"},
		Rows:   [][]string{{"2024-01", "10"}, {"2024-02"}},
	}
	table, issues := NormalizeSettlements(raw)

	assert.Empty(t, issues)
	assert.True(t, table.Schema.Has(domain.FieldMonth, domain.FieldAmount))
	assert.False(t, table.Schema.Has(domain.FieldTaxID))
	assert.False(t, table.Schema.Has(domain.FieldGrossFee))
	require.Len(t, table.Records, 2)
	assert.Equal(t, 0.0, table.Records[1].Amount, "short rows read as empty cells")
}

func TestNormalizeSettlements_Idempotent(t *testing.T) {
	once, _ := NormalizeSettlements(fechamentoRaw())
	twice, issues := NormalizeSettlements(SettlementsToRaw(once))

	assert.Equal(t, once.Schema, twice.Schema)
	assert.Equal(t, once.Records, twice.Records)
	// o texto verbatim de uma data inválida continua inválido
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueInvalidDate, issues[0].Kind)
}

func TestNormalizeMerchants(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{
			"CNPJ", "FANTASIA", "MCC", "Categoria MCC", "Cidade", "UF", "Vendedor",
			"Data de Cadastro", "Previsão de Mov. Financeira", "Meta 70% da Movimentação ",
		},
		Rows: [][]string{
			{"11.111.111/0001-11", " Loja Ãçaí ", "5812", "Alimentação", "Recife", "PE", "Ana", "15/03/2024", "10000", "7000"},
			{"", "Padaria", "5462", "Alimentação", "Olinda", "PE", "Bruno", "2024-04-02 00:00:00", "n/d", ""},
		},
	}

	table, issues := NormalizeMerchants(raw)

	require.Len(t, table.Records, 2)
	assert.True(t, table.Schema.Has(domain.FieldMonth, domain.FieldTarget, domain.FieldForecast, domain.FieldRegistrationDate))

	first := table.Records[0]
	assert.Equal(t, "2024-03", first.Month)
	assert.Equal(t, "11111111000111", first.TaxID)
	assert.Equal(t, "Loja Ãçaí", first.TradeName)
	assert.Equal(t, 7000.0, first.Target)

	second := table.Records[1]
	assert.Equal(t, "2024-04", second.Month)
	assert.Equal(t, 0.0, second.Forecast)
	assert.Equal(t, 0.0, second.Target)

	require.Len(t, issues, 1)
	assert.Equal(t, "previsao", issues[0].Field)
	assert.Equal(t, 2, issues[0].Row)

	again, _ := NormalizeMerchants(MerchantsToRaw(table))
	assert.Equal(t, table, again)
}

func TestNormalizeMerchants_MonthColumnWithoutDate(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"Mes", "CNPJ"},
		Rows:   [][]string{{"2024-05", "1"}},
	}
	table, _ := NormalizeMerchants(raw)

	assert.True(t, table.Schema.Has(domain.FieldMonth))
	assert.Equal(t, "2024-05", table.Records[0].Month)
}

func TestCanonTaxID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345/678-90", "1234567890"},
		{"", ""},
		{"abc", ""},
		{" 11 222 333 ", "11222333"},
		{"1234567890", "1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := CanonTaxID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CanonTaxID(got))
		})
	}
}

func TestMonthBucket(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"iso date", "2024-03-15", "2024-03", true},
		{"iso datetime", "2024-03-15 10:30:00", "2024-03", true},
		{"rfc3339", "2024-03-15T10:30:00Z", "2024-03", true},
		{"day first", "15/03/2024", "2024-03", true},
		{"day first ambiguous", "03/01/2024", "2024-01", true},
		{"excel serial", "45366", "2024-03", true},
		{"already bucketed", "2024-03", "2024-03", true},
		{"month/year", "03/2024", "2024-03", true},
		{"portuguese abbreviation", "mar/24", "2024-03", true},
		{"portuguese full", "Março de 2024", "2024-03", true},
		{"empty", "  ", "", true},
		{"garbage", " n/d ", "n/d", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MonthBucket(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234.56", 1234.56, true},
		{"1.5E+3", 1500, true},
		{"R$ 1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"(10,00)", -10, true},
		{"-3,5", -3.5, true},
		{"", 0, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "LOJA ACAI", FoldName(" Loja Ãçaí "))
	assert.Equal(t, FoldName("LOJA ACAI"), FoldName("loja açaí"))
	assert.Equal(t, "", FoldName("   "))
}

func TestHeaderKey(t *testing.T) {
	assert.Equal(t, "MES REFERENCIA", headerKey("Mês Referencia"))
	assert.Equal(t, "META 70 DA MOVIMENTACAO", headerKey("Meta 70% da Movimentação "))
	assert.Equal(t, "TOTAL MDR R LIQUIDO VEGAS PAY", headerKey("Total MDR (R$) Liquido Vegas Pay"))
}
