package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXlsx flattens every sheet to comma-joined rows, one line per
// non-empty row, with the sheet name as a section header.
func extractXlsx(data []byte) (*Content, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}

		wrote := false
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			if !wrote {
				fmt.Fprintf(&sb, "Sheet: %s\n", sheet)
				wrote = true
			}
			sb.WriteString(strings.Join(cells, ", "))
			sb.WriteByte('\n')
		}
		if wrote {
			sb.WriteByte('\n')
		}
	}
	return &Content{Text: sb.String()}, nil
}
