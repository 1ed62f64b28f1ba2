package domain

// SettlementFilter são as seleções da página de vendas. Lista vazia não restringe.
type SettlementFilter struct {
	Months      []string `form:"mes" json:"mes"`
	Salespeople []string `form:"vendedor" json:"vendedor"`
	Brands      []string `form:"bandeira" json:"bandeira"`
	Products    []string `form:"produto" json:"produto"`
	Categories  []string `form:"categoria" json:"categoria"`
}

// MerchantFilter são as seleções da página de novos comércios.
// NameContains é comparado contra o nome fantasia sem acentos e em maiúsculas.
type MerchantFilter struct {
	Months       []string `form:"mes" json:"mes"`
	Salespeople  []string `form:"vendedor" json:"vendedor"`
	Cities       []string `form:"cidade" json:"cidade"`
	States       []string `form:"uf" json:"uf"`
	MCCs         []string `form:"mcc" json:"mcc"`
	Categories   []string `form:"categoria" json:"categoria"`
	NameContains string   `form:"nome" json:"nome"`
}

// Facets mapeia o nome do filtro para os valores distintos disponíveis, ordenados.
type Facets map[string][]string

// Selection é um conjunto de valores aceitos por um filtro.
type Selection map[string]struct{}

// NewSelection cria a seleção; retorna nil para lista vazia, que aceita tudo.
func NewSelection(values []string) Selection {
	if len(values) == 0 {
		return nil
	}
	sel := make(Selection, len(values))
	for _, v := range values {
		sel[v] = struct{}{}
	}
	return sel
}

// Accepts informa se o valor passa pela seleção.
func (s Selection) Accepts(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}
