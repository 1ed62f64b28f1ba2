// Package sheets lê as planilhas enviadas (.xlsx, .xls, .csv) para uma domain.RawTable.
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"reconciliation-service/internal/domain"
)

// PreferredSheet é lida quando existe; senão vale a primeira aba.
const PreferredSheet = "Planilha1"

var (
	ErrUnsupportedFormat = errors.New("formato de arquivo não suportado")
	ErrEmptyWorkbook     = errors.New("a planilha não contém dados")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load lê o arquivo pela extensão do nome. A primeira linha não vazia é o cabeçalho;
// linhas vazias são descartadas e linhas curtas completadas com "".
func Load(r io.Reader, filename string) (domain.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("falha ao ler o arquivo %s: %w", filename, err)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv", ".txt":
		rows, err = readCSV(data)
	default:
		return domain.RawTable{}, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("falha ao processar %s: %w", filename, err)
	}
	return toRawTable(rows)
}

// LoadFile abre o arquivo do disco e chama Load.
func LoadFile(path string) (domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("falha ao abrir %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, filepath.Base(path))
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo .xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet := sheets[0]
	if idx, err := f.GetSheetIndex(PreferredSheet); err == nil && idx >= 0 {
		sheet = PreferredSheet
	}
	// valores crus: datas chegam como serial do Excel e números sem formatação
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// talvez seja xlsx com extensão errada; tentar excelize
		if rows, errX := readXLSX(data); errX == nil {
			return rows, nil
		}
		return nil, fmt.Errorf("erro ao abrir arquivo .xls: %w", err)
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, ErrEmptyWorkbook
	}

	index := 0
	for i, s := range workbook.GetSheets() {
		if s.GetName() == PreferredSheet {
			index = i
			break
		}
	}
	sheet, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
	}

	var rows [][]string
	for _, row := range sheet.GetRows() {
		var out []string
		for _, cell := range row.GetCols() {
			out = append(out, cell.GetString())
		}
		rows = append(rows, out)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("erro ao decodificar ISO-8859-1: %w", err)
		}
		data = decoded
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyWorkbook
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyWorkbook
	}

	// linhas curtas são completadas até a largura da maior linha
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for i, rec := range records {
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			records[i] = padded
		}
	}

	// sem cabeçalho no dataframe: o gota renomearia colunas repetidas (Valor_0, Valor_1)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("erro ao ler CSV: %w", df.Err)
	}
	return df.Records()[1:], nil
}

// sniffDelimiter escolhe entre ';' e ',' contando as ocorrências na primeira linha.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) >= bytes.Count(line, []byte(",")) && bytes.Contains(line, []byte(";")) {
		return ';'
	}
	return ','
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func toRawTable(rows [][]string) (domain.RawTable, error) {
	var kept [][]string
	for _, row := range rows {
		if !isBlank(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return domain.RawTable{}, ErrEmptyWorkbook
	}

	header := make([]string, len(kept[0]))
	for i, h := range kept[0] {
		header[i] = strings.TrimSpace(h)
	}

	table := domain.RawTable{Header: header, Rows: make([][]string, 0, len(kept)-1)}
	for _, row := range kept[1:] {
		cells := make([]string, len(header))
		copy(cells, row)
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}
