package matcher

import (
	"strings"

	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"reconciliation-service/internal/core/normalizer"
	"reconciliation-service/internal/domain"
)

// DefaultMinSimilarity descarta candidatos muito distantes.
const DefaultMinSimilarity = 0.6

var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Suggest propõe, para comércios sem realizado, o nome mais próximo existente no fechamento.
// É só diagnóstico: nenhum valor de realizado ou movimentação muda por causa dele.
func Suggest(rows []domain.RealizedMerchant, settlements domain.SettlementTable, minSimilarity float64) []domain.NameSuggestion {
	if !settlements.Schema.Has(domain.FieldTradeName) || len(rows) == 0 {
		return nil
	}

	// closestmatch indexa em minúsculas; lower guarda o nome dobrado original
	var names []string
	seen := make(map[string]bool)
	lower := make(map[string]string)
	for _, rec := range settlements.Records {
		name := normalizer.FoldName(rec.TradeName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		lower[strings.ToLower(name)] = name
		names = append(names, strings.ToLower(name))
	}
	if len(names) == 0 {
		return nil
	}

	cm := closestmatch.New(names, []int{2, 3})
	cache := make(map[string]string)

	var out []domain.NameSuggestion
	for _, row := range rows {
		if row.Realized != 0 {
			continue
		}
		key := normalizer.FoldName(row.TradeName)
		if key == "" {
			continue
		}

		match, ok := cache[key]
		if !ok {
			if seen[key] {
				match = key
			} else {
				match = lower[cm.Closest(strings.ToLower(key))]
			}
			cache[key] = match
		}
		if match == "" {
			continue
		}

		a, b := []rune(key), []rune(match)
		dist := levenshtein.DistanceForStrings(a, b, unitCost)
		maxLen := len(a)
		if len(b) > maxLen {
			maxLen = len(b)
		}
		similarity := 1 - float64(dist)/float64(maxLen)
		if similarity < minSimilarity {
			continue
		}

		out = append(out, domain.NameSuggestion{
			Month:      row.Month,
			TradeName:  row.TradeName,
			TaxID:      row.TaxID,
			Candidate:  match,
			Distance:   dist,
			Similarity: similarity,
		})
	}
	return out
}
