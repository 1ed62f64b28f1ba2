package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converte uma célula monetária em float64.
// Aceita valores crus do Excel ("1234.5", "1.2E+3") e texto brasileiro ("R$ 1.234,56", "(10,00)").
// Célula vazia vale 0 sem erro; texto não numérico vale 0 e ok=false.
func ParseAmount(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0.0, true
	}

	if d, err := decimal.NewFromString(s); err == nil {
		return d.InexactFloat64(), true
	}

	d, ok := parseBRLDecimal(s)
	if !ok {
		return 0.0, false
	}
	return d.InexactFloat64(), true
}

// parseBRLDecimal: heurística para entradas brasileiras/anglo com separador de milhar.
func parseBRLDecimal(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, false
	}

	// tratar sinais/parenteses
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}

	// a última ocorrência de . ou , decide qual é o separador decimal
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
		if strings.Count(s, ".") > 1 {
			parts := strings.Split(s, ".")
			s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
		}
	}

	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, false
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}
