package api

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintJSON writes v to w as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintTable writes rows with uppercased headers. Columns are padded to the
// widest cell and separated by two spaces. No columns means no output.
func PrintTable(w io.Writer, columns []string, rows [][]string) {
	if len(columns) == 0 {
		return
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = pad(strings.ToUpper(col), widths[i], i == len(columns)-1)
	}
	fmt.Fprintln(w, strings.Join(header, "  "))

	for _, row := range rows {
		cells := make([]string, 0, len(columns))
		for i := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells = append(cells, pad(cell, widths[i], i == len(columns)-1))
		}
		fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

// pad right-pads s to width, except for the last column, which stays bare so
// lines carry no trailing spaces.
func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// PrintDetail writes fields as aligned key/value lines, keys sorted. Nested
// maps and slices render as JSON; nil renders empty.
func PrintDetail(w io.Writer, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	maxLen := 0
	for k := range fields {
		keys = append(keys, k)
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%s:%s  %s\n", k, strings.Repeat(" ", maxLen-len(k)), renderValue(fields[k]))
	}
}

// renderValue formats one field value for display. JSON keeps nested
// structures copy-pasteable instead of Go's fmt rendering.
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ExtractField returns the string form of data[key] for table cells.
func ExtractField(data map[string]interface{}, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return renderValue(v)
}

// ExtractRows converts a paginated listing body into table rows, reading the
// requested columns from each element of data["data"]. Non-object elements
// are skipped.
func ExtractRows(data map[string]interface{}, columns []string) [][]string {
	items, ok := data["data"].([]interface{})
	if !ok {
		return nil
	}

	var rows [][]string
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = ExtractField(obj, col)
		}
		rows = append(rows, row)
	}
	return rows
}
