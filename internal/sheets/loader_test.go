package sheets

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func workbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoad_XLSX(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Planilha1": {
			{" CNPJ ", "Valor", "Mes"},
			{"12.345.678/0001-90", 1500.5, "2024-01"},
			{},
			{"111", 20},
		},
	})

	table, err := Load(bytes.NewReader(data), "Fechamento.xlsx")

	require.NoError(t, err)
	assert.Equal(t, []string{"CNPJ", "Valor", "Mes"}, table.Header)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "12.345.678/0001-90", table.Rows[0][0])
	assert.Equal(t, "1500.5", table.Rows[0][1])
	assert.Equal(t, []string{"111", "20", ""}, table.Rows[1], "short rows are padded")
}

func TestLoad_XLSXPrefersPlanilha1(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Outra"))
	_, err := f.NewSheet(PreferredSheet)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(PreferredSheet, "A1", "Valor"))
	require.NoError(t, f.SetCellValue(PreferredSheet, "A2", 10))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Load(bytes.NewReader(buf.Bytes()), "dados.xlsx")

	require.NoError(t, err)
	assert.Equal(t, []string{"Valor"}, table.Header)
	assert.Equal(t, [][]string{{"10"}}, table.Rows)
}

func TestLoad_XLSMisnamedXLSX(t *testing.T) {
	data := workbook(t, map[string][][]any{"Dados": {{"Valor"}, {1}}})

	table, err := Load(bytes.NewReader(data), "antigo.xls")

	require.NoError(t, err)
	assert.Equal(t, []string{"Valor"}, table.Header)
}

func TestLoad_CSV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"semicolon", []byte("CNPJ;Valor;Cidade\n111;1.234,56;Goiânia\n")},
		{"comma", []byte("CNPJ,Valor,Cidade\n111,\"1.234,56\",Goiânia\n")},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("CNPJ;Valor;Cidade\n111;1.234,56;Goiânia\n")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(bytes.NewReader(tt.data), "base.csv")

			require.NoError(t, err)
			assert.Equal(t, []string{"CNPJ", "Valor", "Cidade"}, table.Header)
			assert.Equal(t, [][]string{{"111", "1.234,56", "Goiânia"}}, table.Rows)
		})
	}
}

func TestLoad_CSVRaggedRows(t *testing.T) {
	data := "Mes;Valor;CNPJ\n2024-01;10\n2024-02;20;222\n2024-03\n"

	table, err := Load(strings.NewReader(data), "fechamento.csv")

	require.NoError(t, err)
	assert.Equal(t, []string{"Mes", "Valor", "CNPJ"}, table.Header)
	assert.Equal(t, [][]string{
		{"2024-01", "10", ""},
		{"2024-02", "20", "222"},
		{"2024-03", "", ""},
	}, table.Rows)
}

func TestLoad_CSVDuplicateHeaders(t *testing.T) {
	data := "Mes;Valor;Valor\n2024-01;10;99\n"

	table, err := Load(strings.NewReader(data), "fechamento.csv")

	require.NoError(t, err)
	assert.Equal(t, []string{"Mes", "Valor", "Valor"}, table.Header)
	assert.Equal(t, [][]string{{"2024-01", "10", "99"}}, table.Rows)
}

func TestLoad_CSVHeaderOnly(t *testing.T) {
	table, err := Load(strings.NewReader("CNPJ;Valor\n"), "base.csv")

	require.NoError(t, err)
	assert.Equal(t, []string{"CNPJ", "Valor"}, table.Header)
	assert.Empty(t, table.Rows)
}

func TestLoad_CSVLatin1(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("UF;Cidade\nGO;Anápolis\n")
	require.NoError(t, err)

	table, err := Load(strings.NewReader(latin1), "novos.csv")

	require.NoError(t, err)
	assert.Equal(t, "Anápolis", table.Rows[0][1])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(strings.NewReader("x"), "dados.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(strings.NewReader("  \n"), "vazio.csv")
	assert.ErrorIs(t, err, ErrEmptyWorkbook)

	_, err = Load(bytes.NewReader(workbook(t, map[string][][]any{"Planilha1": {}})), "vazio.xlsx")
	assert.ErrorIs(t, err, ErrEmptyWorkbook)

	_, err = Load(strings.NewReader("not a workbook"), "quebrado.xlsx")
	assert.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1;2;3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a")))
}
