package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
)

// 出力フォーマット。
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const (
	defaultSheet  = "Surveys"
	maxSheetName  = 31
	maxColumnWide = 60
)

// ParseFormat は未指定なら xlsx を返す。
func ParseFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", raw)
}

// ContentType はレスポンスヘッダー用の MIME タイプ。
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Write は format に応じて表を書き出す。
func Write(w io.Writer, format string, table *adminapp.ExportTable) error {
	if format == FormatCSV {
		return WriteCSV(w, table)
	}
	return WriteXLSX(w, table)
}

// WriteXLSX は 1 シートのワークブックを生成する。1 行目はヘッダーで固定表示。
func WriteXLSX(w io.Writer, table *adminapp.ExportTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(table.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	widths := make([]int, len(table.Headers))
	for i, header := range table.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, neutralizeFormula(header)); err != nil {
			return err
		}
		widths[i] = len(header)
	}
	if len(table.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, neutralizeFormula(value)); err != nil {
				return err
			}
			if c < len(widths) && len(value) > widths[c] {
				widths[c] = len(value)
			}
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if width > maxColumnWide {
			width = maxColumnWide
		}
		if err := f.SetColWidth(sheet, col, col, float64(width+2)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

// WriteCSV は UTF-8 BOM 付きの CSV を書き出す。表計算ソフトでの文字化け対策。
func WriteCSV(w io.Writer, table *adminapp.ExportTable) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(neutralizeRow(table.Headers)); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := cw.Write(neutralizeRow(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// neutralizeFormula は表計算ソフトが数式として解釈する先頭文字を持つセルに ' を付ける。
// 負数などの数値はそのまま残す。
func neutralizeFormula(value string) string {
	if value == "" || !strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return value
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return value
	}
	return "'" + value
}

func neutralizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, value := range row {
		out[i] = neutralizeFormula(value)
	}
	return out
}

// FileName は Content-Disposition 用のファイル名を返す。
func FileName(table *adminapp.ExportTable, format string) string {
	base := strings.ToLower(strings.TrimSpace(table.Title))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, base)
	if base == "" {
		base = "surveys"
	}
	return base + "." + format
}

func sheetName(title string) string {
	name := strings.TrimSpace(title)
	name = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ").Replace(name)
	if name == "" {
		return defaultSheet
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}
