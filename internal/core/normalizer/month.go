package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MonthLayout é o formato canônico do mês de referência.
const MonthLayout = "2006-01"

// Datas brasileiras são dia-primeiro; "03/01/2024" é 3 de janeiro.
var dateLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"2006/01",
	"01/2006",
	"1/2006",
	"01-2006",
	"200601",
}

var ptMonths = map[string]time.Month{
	"JAN": time.January, "FEV": time.February, "MAR": time.March, "ABR": time.April,
	"MAI": time.May, "JUN": time.June, "JUL": time.July, "AGO": time.August,
	"SET": time.September, "OUT": time.October, "NOV": time.November, "DEZ": time.December,
}

var ptMonthRegex = regexp.MustCompile(`^([A-Z]{3})[A-Z]*\s*(?:/|-|\s|DE)\s*(\d{2}|\d{4})$`)

// MonthBucket trunca uma célula de data para "AAAA-MM".
// Quando nenhum formato reconhece o valor, devolve o texto original (sem espaços nas pontas) e ok=false.
// Célula vazia devolve "" e ok=true.
func MonthBucket(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", true
	}

	if t, ok := parseDate(s); ok {
		return t.Format(MonthLayout), true
	}
	return s, false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// serial do Excel (células lidas sem formatação)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f > 20000 && f < 80000 {
			return excelSerialToDate(f), true
		}
		return time.Time{}, false
	}

	if m := ptMonthRegex.FindStringSubmatch(strings.ToUpper(stripMarks(s))); m != nil {
		month, ok := ptMonths[m[1]]
		if !ok {
			return time.Time{}, false
		}
		year, _ := strconv.Atoi(m[2])
		if year < 100 {
			year += 2000
		}
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

func excelSerialToDate(serial float64) time.Time {
	// base Excel serial -> 1899-12-30
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	frac := serial - float64(int64(serial))
	duration := time.Duration(int64(serial)*24) * time.Hour
	duration += time.Duration(frac * 24 * float64(time.Hour))
	return base.Add(duration)
}
