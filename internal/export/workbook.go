// Package export gera as planilhas .xlsx baixadas pelas páginas de vendas e de novos comércios.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

type cellKind int

const (
	kindText cellKind = iota
	kindMoney
	kindPercent
	kindCount
)

const (
	moneyFormat   = `"R$" #,##0.00;-"R$" #,##0.00`
	percentFormat = `0.00"%"`
)

type column struct {
	header string
	kind   cellKind
	value  func(i int) any
}

type sheet struct {
	name     string
	rows     int
	columns  []column
	required bool
}

type styles struct {
	header  int
	money   int
	percent int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	money := moneyFormat
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &money}); err != nil {
		return s, err
	}
	percent := percentFormat
	if s.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percent}); err != nil {
		return s, err
	}
	return s, nil
}

// build grava as abas na ordem recebida. Abas vazias são omitidas, exceto as obrigatórias.
func build(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar estilos: %w", err)
	}

	written := 0
	for _, sh := range sheets {
		if sh.rows == 0 && !sh.required {
			continue
		}
		if written == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sh.name)
		} else {
			_, err = f.NewSheet(sh.name)
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao criar aba %s: %w", sh.name, err)
		}
		if err := writeSheet(f, st, sh); err != nil {
			return nil, fmt.Errorf("erro ao preencher aba %s: %w", sh.name, err)
		}
		written++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar planilha: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, st styles, sh sheet) error {
	for i, c := range sh.columns {
		var style int
		switch c.kind {
		case kindMoney:
			style = st.money
		case kindPercent:
			style = st.percent
		default:
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColStyle(sh.name, name, style); err != nil {
			return err
		}
	}

	header := make([]any, len(sh.columns))
	for i, c := range sh.columns {
		header[i] = c.header
	}
	if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
		return err
	}
	if len(sh.columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(sh.columns))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sh.name, "A1", last+"1", st.header); err != nil {
			return err
		}
	}

	for r := 0; r < sh.rows; r++ {
		row := make([]any, len(sh.columns))
		for i, c := range sh.columns {
			row[i] = c.value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// rawColumns expõe uma tabela de texto como colunas; os cabeçalhos em money viram números.
func rawColumns(header []string, rows [][]string, money map[string]bool) []column {
	cols := make([]column, len(header))
	for i, h := range header {
		c := column{header: h, kind: kindText, value: func(r int) any { return rows[r][i] }}
		if money[h] {
			c.kind = kindMoney
			c.value = func(r int) any {
				v, err := strconv.ParseFloat(rows[r][i], 64)
				if err != nil {
					return rows[r][i]
				}
				return v
			}
		}
		cols[i] = c
	}
	return cols
}
