package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/session"
	"github.com/tobsdb/tdbview/internal/view"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cellStyle.Foreground(lipgloss.Color("212"))
	infoStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// renderSnapshot draws the visible page of snap as a table followed by a
// status line.
func renderSnapshot(w io.Writer, snap view.Snapshot) {
	if snap.Page.NoData {
		fmt.Fprintln(w, infoStyle.Render("No data"))
		return
	}

	headers := make([]string, len(snap.Columns))
	for i, col := range snap.Columns {
		headers[i] = col.Label
		if col.Editable {
			headers[i] += "*"
		}
	}

	selected := make([]bool, len(snap.Visible()))
	rows := make([][]string, len(snap.Visible()))
	for i, rec := range snap.Visible() {
		row := make([]string, len(snap.Columns))
		for j, col := range snap.Columns {
			row[j] = record.Stringify(rec[col.FieldName])
		}
		rows[i] = row
		for _, id := range snap.Selection {
			if record.Stringify(rec[snap.IDField]) == id.String() {
				selected[i] = true
			}
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(selected) && selected[row] {
				return selectedStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())

	status := []string{snap.Page.Info(), fmt.Sprintf("%d of %d records", snap.Filtered, snap.Total)}
	if snap.State.SearchTerm != "" {
		status = append(status, fmt.Sprintf("search %q", snap.State.SearchTerm))
	}
	if snap.State.SortField != "" {
		status = append(status, fmt.Sprintf("sorted by %s %s", snap.State.SortField, snap.State.SortDirection))
	}
	if len(snap.Selection) > 0 {
		status = append(status, fmt.Sprintf("%d selected", len(snap.Selection)))
	}
	if snap.Session.State != session.StateClosed {
		status = append(status, fmt.Sprintf("%s session %v", snap.Session.State, snap.Session.Overlay))
	}
	fmt.Fprintln(w, infoStyle.Render(strings.Join(status, " | ")))
}

func renderResult(w io.Writer, res mutation.Result) {
	if res.OK {
		fmt.Fprintln(w, okStyle.Render(res.Message))
		return
	}
	msg := res.Message
	if res.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, res.Status)
	}
	fmt.Fprintln(w, errorStyle.Render(msg))
}
