package lead

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"crm-imobiliario/internal/common/apierror"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Leads"

var ErrUnsupportedFile = errors.New("formato de arquivo não suportado, use .xlsx ou .csv")

var exportColumns = []string{
	"nome", "email", "telefone", "temperatura", "origem", "interesse",
	"orcamento_min", "orcamento_max", "observacoes", "finalizado", "created_at",
}

// header aliases accepted on import
var columnAliases = map[string]string{
	"name":        "nome",
	"phone":       "telefone",
	"celular":     "telefone",
	"temperature": "temperatura",
	"source":      "origem",
	"observações": "observacoes",
	"notes":       "observacoes",
	"interest":    "interesse",
}

func (s *LeadServiceImpl) Import(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readExcel(bytes.NewReader(data))
	case ".csv":
		rows, err = csv.NewReader(bytes.NewReader(data)).ReadAll()
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, fmt.Errorf("falha ao ler arquivo: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("arquivo vazio")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if alias, ok := columnAliases[h]; ok {
			h = alias
		}
		headers[i] = h
	}

	result := &ImportResult{Errors: []string{}}
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}
		lead, err := leadFromRow(headers, row)
		if err == nil {
			_, err = s.Create(ctx, lead)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("linha %d: %s", line, describe(err)))
			continue
		}
		result.Imported++
	}
	return result, nil
}

func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}
	return f.GetRows(sheets[0])
}

func leadFromRow(headers, row []string) (*Lead, error) {
	lead := &Lead{}
	for i, value := range row {
		if i >= len(headers) {
			break
		}
		value = strings.TrimSpace(value)
		switch headers[i] {
		case "nome":
			lead.Nome = value
		case "email":
			lead.Email = value
		case "telefone":
			lead.Telefone = value
		case "temperatura":
			lead.Temperatura = value
		case "origem":
			lead.Origem = value
		case "observacoes":
			lead.Observacoes = value
		case "interesse":
			lead.Interesse = value
		case "orcamento_min", "orcamento_max":
			if value == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
			if err != nil {
				return nil, fmt.Errorf("%s inválido: %q", headers[i], value)
			}
			if headers[i] == "orcamento_min" {
				lead.OrcamentoMin = &v
			} else {
				lead.OrcamentoMax = &v
			}
		}
	}
	if lead.Temperatura == "" {
		lead.Temperatura = TemperaturaCold
	}
	return lead, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func describe(err error) string {
	if structured := apierror.FromValidationError(err); structured != nil {
		parts := make([]string, 0, len(structured.Errors))
		for _, field := range exportColumns {
			if problems, ok := structured.Errors[field]; ok {
				parts = append(parts, field+": "+strings.Join(problems, ", "))
			}
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

func (s *LeadServiceImpl) Export(ctx context.Context) ([]byte, error) {
	leads, err := s.Repo.List(ctx, LeadFilter{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, col)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for rowIdx, l := range leads {
		values := []interface{}{
			l.Nome, l.Email, l.Telefone, l.Temperatura, l.Origem, l.Interesse,
			optionalFloat(l.OrcamentoMin), optionalFloat(l.OrcamentoMax),
			l.Observacoes, l.Finalizado, l.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
