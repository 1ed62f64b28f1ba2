package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Field identifica uma coluna canônica opcional.
type Field uint32

const (
	FieldMonth Field = 1 << iota
	FieldAmount
	FieldGrossFee
	FieldNetFeeCard
	FieldNetFeeAdvance
	FieldNetFeePix
	FieldNetFeeTotal
	FieldBrand
	FieldProduct
	FieldSalesperson
	FieldMCCCategory
	FieldTaxID
	FieldTradeName
	FieldCity
	FieldState
	FieldMCC
	FieldRegistrationDate
	FieldForecast
	FieldTarget
	FieldRealized
)

// Nomes canônicos das colunas. São o contrato com a exportação em planilha.
const (
	ColMonth            = "Mes"
	ColAmount           = "Valor"
	ColGrossFee         = "MDR (R$) Bruto"
	ColNetFeeCard       = "MDR (R$) Liquido Cartões"
	ColNetFeeAdvance    = "MDR (R$) Liquido Antecipação"
	ColNetFeePix        = "MDR (R$) Liquido Pix"
	ColNetFeeTotal      = "Total MDR (R$) Liquido Vegas Pay"
	ColBrand            = "Bandeira"
	ColProduct          = "Produto"
	ColSalesperson      = "Vendedor"
	ColMCCCategory      = "Categoria_MCC"
	ColTaxID            = "CNPJ"
	ColTradeName        = "Nome_Fantasia"
	ColMerchantName     = "FANTASIA"
	ColCity             = "Cidade"
	ColState            = "UF"
	ColMCC              = "MCC"
	ColRegistrationDate = "Data de Cadastro"
	ColForecast         = "Previsão de Mov. Financeira"
	ColTarget           = "Meta 70% da Movimentação"
	ColRealized         = "Realizado_R$"

	ColSalesAmount   = "Vendas_Brutas_R$"
	ColSumGrossFee   = "MDR_Bruto_R$"
	ColSumNetCard    = "MDR_Liq_Cartoes_R$"
	ColSumNetAdvance = "MDR_Liq_Antecip_R$"
	ColSumNetPix     = "MDR_Liq_PIX_R$"
	ColSumNetTotal   = "MDR_Liq_Total_R$"
	ColGrossFeePct   = "MDR_Bruto_%"
	ColNetFeePct     = "MDR_Líquido_%"
	ColMovementNet   = "MDR_Liq_R$"
	ColMovementNetPc = "MDR_Liq_%"
	ColCount         = "Qtd"
	ColForecastSum   = "Previsão_R$"
	ColTargetSum     = "Meta70_R$"
	ColAttainmentPct = "Atingimento_%"
)

var fieldNames = map[Field]string{
	FieldMonth:            "mes",
	FieldAmount:           "valor",
	FieldGrossFee:         "mdr_bruto",
	FieldNetFeeCard:       "mdr_liq_cartoes",
	FieldNetFeeAdvance:    "mdr_liq_antecipacao",
	FieldNetFeePix:        "mdr_liq_pix",
	FieldNetFeeTotal:      "mdr_liq_total",
	FieldBrand:            "bandeira",
	FieldProduct:          "produto",
	FieldSalesperson:      "vendedor",
	FieldMCCCategory:      "categoria_mcc",
	FieldTaxID:            "cnpj",
	FieldTradeName:        "nome_fantasia",
	FieldCity:             "cidade",
	FieldState:            "uf",
	FieldMCC:              "mcc",
	FieldRegistrationDate: "data_cadastro",
	FieldForecast:         "previsao",
	FieldTarget:           "meta70",
	FieldRealized:         "realizado",
}

// String retorna o nome curto do campo.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "desconhecido"
}

// Schema é o conjunto de colunas opcionais presentes numa tabela normalizada.
// É calculado uma vez na normalização e consultado pelos demais componentes.
type Schema uint32

// NewSchema monta um Schema a partir dos campos informados.
func NewSchema(fields ...Field) Schema {
	var s Schema
	for _, f := range fields {
		s |= Schema(f)
	}
	return s
}

// With retorna uma cópia do schema com o campo incluído.
func (s Schema) With(f Field) Schema {
	return s | Schema(f)
}

// Has informa se todos os campos estão presentes.
func (s Schema) Has(fields ...Field) bool {
	for _, f := range fields {
		if s&Schema(f) == 0 {
			return false
		}
	}
	return true
}

// Fields lista os campos presentes, em ordem estável.
func (s Schema) Fields() []Field {
	var out []Field
	for f := FieldMonth; f <= FieldRealized; f <<= 1 {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// MarshalJSON expõe o schema como lista de nomes de campo.
func (s Schema) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(fieldNames))
	for _, f := range s.Fields() {
		names = append(names, f.String())
	}
	sort.Strings(names)
	return json.Marshal(names)
}

// UnmarshalJSON lê a lista de nomes gerada por MarshalJSON. Nome desconhecido é erro.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out Schema
	for _, name := range names {
		f, ok := fieldByName[name]
		if !ok {
			return fmt.Errorf("campo de schema desconhecido: %q", name)
		}
		out = out.With(f)
	}
	*s = out
	return nil
}

var fieldByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldNames))
	for f, name := range fieldNames {
		m[name] = f
	}
	return m
}()
