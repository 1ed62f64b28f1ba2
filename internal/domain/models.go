// package domain/models.go
package domain

// RawTable é uma planilha como chega do carregador: cabeçalho + linhas de células em texto.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Len retorna o número de linhas de dados.
func (t RawTable) Len() int {
	return len(t.Rows)
}

// --- Modelos do Fechamento ---

// SettlementRecord representa uma linha canônica do fechamento consolidado.
type SettlementRecord struct {
	Month         string  `json:"mes"`
	Amount        float64 `json:"valor"`
	GrossFee      float64 `json:"mdr_bruto"`
	NetFeeCard    float64 `json:"mdr_liq_cartoes"`
	NetFeeAdvance float64 `json:"mdr_liq_antecipacao"`
	NetFeePix     float64 `json:"mdr_liq_pix"`
	NetFeeTotal   float64 `json:"mdr_liq_total"`
	Brand         string  `json:"bandeira"`
	Product       string  `json:"produto"`
	Salesperson   string  `json:"vendedor"`
	MCCCategory   string  `json:"categoria_mcc"`
	TaxID         string  `json:"cnpj"`
	TradeName     string  `json:"nome_fantasia"`
	City          string  `json:"cidade"`
	State         string  `json:"uf"`
}

// SettlementTable é o fechamento normalizado junto com as colunas presentes na origem.
type SettlementTable struct {
	Records []SettlementRecord `json:"records"`
	Schema  Schema             `json:"schema"`
}

// Len retorna o número de registros.
func (t SettlementTable) Len() int {
	return len(t.Records)
}

// --- Modelos de Novos Comércios ---

// MerchantRecord representa uma linha canônica da planilha de novos comércios.
type MerchantRecord struct {
	Month            string  `json:"mes"`
	TradeName        string  `json:"fantasia"`
	TaxID            string  `json:"cnpj"`
	MCC              string  `json:"mcc"`
	MCCCategory      string  `json:"categoria_mcc"`
	City             string  `json:"cidade"`
	State            string  `json:"uf"`
	Salesperson      string  `json:"vendedor"`
	RegistrationDate string  `json:"data_cadastro"`
	Forecast         float64 `json:"previsao"`
	Target           float64 `json:"meta70"`
}

// MerchantTable é a planilha de novos comércios normalizada.
type MerchantTable struct {
	Records []MerchantRecord `json:"records"`
	Schema  Schema           `json:"schema"`
}

// Len retorna o número de registros.
func (t MerchantTable) Len() int {
	return len(t.Records)
}

// --- Problemas de normalização ---

// IssueKind classifica uma conversão que degradou para o valor padrão.
type IssueKind string

const (
	IssueInvalidNumber IssueKind = "numero_invalido"
	IssueInvalidDate   IssueKind = "data_invalida"
)

// Issue registra um valor que não pôde ser convertido. Row é 1-based e não conta o cabeçalho.
type Issue struct {
	Kind  IssueKind `json:"kind"`
	Field string    `json:"field"`
	Row   int       `json:"row"`
	Value string    `json:"value"`
}

// --- Conciliação ---

// MatchStrategy indica por qual chave um comércio foi ligado ao fechamento.
type MatchStrategy string

const (
	MatchNone  MatchStrategy = "nenhum"
	MatchTaxID MatchStrategy = "cnpj"
	MatchName  MatchStrategy = "nome"
)

// RealizedMerchant é um novo comércio acrescido do realizado no mês de cadastro.
type RealizedMerchant struct {
	MerchantRecord
	Realized float64 `json:"realizado"`
}

// RealizedTable é a tabela de novos comércios com a coluna Realizado_R$.
type RealizedTable struct {
	Rows     []RealizedMerchant `json:"rows"`
	Strategy MatchStrategy      `json:"strategy"`
	Schema   Schema             `json:"schema"`
}

// MovementMatch guarda a origem de cada campo da movimentação; os campos são resolvidos de forma independente.
type MovementMatch struct {
	Amount   MatchStrategy `json:"valor"`
	GrossFee MatchStrategy `json:"mdr_bruto"`
	NetFee   MatchStrategy `json:"mdr_liq"`
}

// MovementRow é a movimentação histórica de um comércio filtrado.
type MovementRow struct {
	TradeName   string        `json:"fantasia"`
	TaxID       string        `json:"cnpj"`
	Salesperson string        `json:"vendedor"`
	City        string        `json:"cidade"`
	State       string        `json:"uf"`
	MCCCategory string        `json:"categoria_mcc"`
	Amount      float64       `json:"vendas_brutas"`
	GrossFee    float64       `json:"mdr_bruto"`
	NetFee      float64       `json:"mdr_liq"`
	GrossFeePct float64       `json:"mdr_bruto_pct"`
	NetFeePct   float64       `json:"mdr_liq_pct"`
	Match       MovementMatch `json:"match"`
}

// NameSuggestion é um candidato de nome no fechamento para um comércio sem realizado.
type NameSuggestion struct {
	Month      string  `json:"mes"`
	TradeName  string  `json:"fantasia"`
	TaxID      string  `json:"cnpj"`
	Candidate  string  `json:"candidato"`
	Distance   int     `json:"distancia"`
	Similarity float64 `json:"similaridade"`
}

// --- Resumos ---

// Dimension identifica o agrupamento de um resumo de vendas.
type Dimension string

const (
	ByMonth             Dimension = "mes"
	ByMonthSalesperson  Dimension = "mes_vendedor"
	ByMonthBrandProduct Dimension = "mes_bandeira_produto"
)

// SummaryKey é a tupla de agrupamento; campos fora da dimensão ficam vazios.
type SummaryKey struct {
	Month       string `json:"mes"`
	Salesperson string `json:"vendedor"`
	Brand       string `json:"bandeira"`
	Product     string `json:"produto"`
}

// SummaryRow é um grupo do resumo de vendas.
type SummaryRow struct {
	SummaryKey
	Amount        float64 `json:"vendas_brutas"`
	GrossFee      float64 `json:"mdr_bruto"`
	NetFeeCard    float64 `json:"mdr_liq_cartoes"`
	NetFeeAdvance float64 `json:"mdr_liq_antecipacao"`
	NetFeePix     float64 `json:"mdr_liq_pix"`
	NetFeeTotal   float64 `json:"mdr_liq_total"`
	GrossFeePct   float64 `json:"mdr_bruto_pct"`
	NetFeePct     float64 `json:"mdr_liq_pct"`
	Count         int     `json:"qtd"`
}

// Summary é um resumo de vendas agrupado por Dimension.
type Summary struct {
	Dimension Dimension    `json:"dimension"`
	Rows      []SummaryRow `json:"rows"`
}

// Empty informa se o resumo não tem grupos.
func (s Summary) Empty() bool {
	return len(s.Rows) == 0
}

// SalesKPIs são os totais do fechamento filtrado.
type SalesKPIs struct {
	Amount      float64 `json:"vendas_brutas"`
	GrossFee    float64 `json:"mdr_bruto"`
	NetFee      float64 `json:"mdr_liq"`
	GrossFeePct float64 `json:"mdr_bruto_pct"`
	NetFeePct   float64 `json:"mdr_liq_pct"`
}

// MerchantKPIs são os totais dos novos comércios filtrados.
type MerchantKPIs struct {
	Count         int     `json:"qtd"`
	Forecast      float64 `json:"previsao"`
	Target        float64 `json:"meta70"`
	Realized      float64 `json:"realizado"`
	AttainmentPct float64 `json:"atingimento_pct"`
}

// PipelineRow resume os novos comércios de um vendedor.
type PipelineRow struct {
	Salesperson   string  `json:"vendedor"`
	Count         int     `json:"qtd"`
	Forecast      float64 `json:"previsao"`
	Target        float64 `json:"meta70"`
	Realized      float64 `json:"realizado"`
	AttainmentPct float64 `json:"atingimento_pct"`
}

// --- Relatórios ---

// SalesReport é tudo o que a página de Vendas & MDR exibe para um filtro.
type SalesReport struct {
	Filtered       SettlementTable `json:"filtered"`
	KPIs           SalesKPIs       `json:"kpis"`
	Monthly        Summary         `json:"monthly"`
	BySalesperson  Summary         `json:"by_salesperson"`
	ByBrandProduct Summary         `json:"by_brand_product"`
	Facets         Facets          `json:"facets"`
}

// MerchantReport é tudo o que a página de Novos Comércios exibe para um filtro.
type MerchantReport struct {
	Filtered      []RealizedMerchant `json:"filtered"`
	Schema        Schema             `json:"schema"`
	Strategy      MatchStrategy      `json:"strategy"`
	KPIs          MerchantKPIs       `json:"kpis"`
	BySalesperson []PipelineRow      `json:"by_salesperson"`
	Movement      []MovementRow      `json:"movement"`
	Suggestions   []NameSuggestion   `json:"suggestions"`
	Facets        Facets             `json:"facets"`
}
