package extract

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxText renders every sheet as "[Sheet]" followed by its rows as CSV,
// sheets separated by a blank line.
func xlsxText(p string) (string, error) {
	f, err := excelize.OpenFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		fmt.Fprintf(&sb, "[%s]\n", sheet)
		w := csv.NewWriter(&sb)
		if err := w.WriteAll(rows); err != nil {
			return "", fmt.Errorf("failed to render sheet %s: %w", sheet, err)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
