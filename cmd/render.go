package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)
	return table
}

func renderTables(w io.Writer, tables []model.TableOption, selected string) {
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables found.")
		return
	}
	table := newTable(w, "", "Table")
	for _, t := range tables {
		mark := ""
		if t.Handle == selected {
			mark = "*"
		}
		table.Append([]string{mark, t.Label})
	}
	table.Render()
}

func renderColumns(w io.Writer, columns []model.ColumnDescriptor, selected []string) {
	if len(columns) == 0 {
		fmt.Fprintln(w, "No columns found.")
		return
	}
	on := make(map[string]bool, len(selected))
	for _, name := range selected {
		on[name] = true
	}

	table := newTable(w, "", "Column", "Type")
	for _, col := range columns {
		mark := "[ ]"
		if on[col.Name] {
			mark = "[x]"
		}
		table.Append([]string{mark, col.Name, col.Type})
	}
	table.Render()
}

func renderPreview(w io.Writer, preview model.PreviewResult) {
	if preview.Empty() {
		fmt.Fprintln(w, "No data found")
		return
	}
	table := newTable(w, preview.Columns...)
	for _, row := range preview.Rows {
		cells := make([]string, len(preview.Columns))
		for i, col := range preview.Columns {
			cells[i] = formatCell(row[col])
		}
		table.Append(cells)
	}
	table.Render()
}

// formatCell prints a preview value. Null and missing values print as NULL.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
