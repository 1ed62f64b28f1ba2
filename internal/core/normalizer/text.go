package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

func stripMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// FoldName normaliza um nome fantasia para comparação: sem acentos, maiúsculo e sem espaços nas pontas.
// "Loja Ãçaí" e "LOJA ACAI" produzem a mesma chave.
func FoldName(s string) string {
	return strings.TrimSpace(strings.ToUpper(stripMarks(s)))
}

// headerKey reduz um cabeçalho de planilha a uma chave comparável:
// "Mês Referencia", "MES_REFERENCIA" e " mes referência " viram "MES REFERENCIA".
func headerKey(s string) string {
	result := strings.ToUpper(stripMarks(s))
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// CanonTaxID mantém apenas os dígitos do CNPJ.
func CanonTaxID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
