package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// pathWidth caps path columns; media and sidecar paths are often long.
const pathWidth = 48

type column struct {
	Header string
	Align  text.Align
	// Path columns are shortened from the left so the file name stays visible.
	Path bool
}

func textColumn(header string) column { return column{Header: header, Align: text.AlignLeft} }

func countColumn(header string) column { return column{Header: header, Align: text.AlignRight} }

func pathColumn(header string) column {
	return column{Header: header, Align: text.AlignLeft, Path: true}
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i, c := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if c.Path {
				cell = shortenPath(cell, pathWidth)
			}
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.Align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// shortenPath keeps the last max runes of path, marking the cut with "...".
func shortenPath(path string, max int) string {
	runes := []rune(path)
	if len(runes) <= max || max <= 3 {
		return path
	}
	return "..." + string(runes[len(runes)-(max-3):])
}
