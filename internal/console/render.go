package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pet-admin-sync/internal/sync/bulk"
	"pet-admin-sync/internal/sync/engine"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#2e8b57")).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12")).Bold(true)
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0")).Bold(true)
	terminalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")).Bold(true)
)

// statusStyle agrupa los status de los cuatro dominios por tono.
func statusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "pending", "pending-approval", "adoptionpending":
		return pendingStyle
	case "confirmed", "accepted", "active", "matched":
		return activeStyle
	case "completed", "adopted", "sold", "reunited":
		return okStyle
	case "cancelled", "notavailable", "inactive", "archived":
		return terminalStyle
	default:
		return lipgloss.NewStyle()
	}
}

func renderRows(w io.Writer, p engine.RowPage) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-38s %-18s %s", "ID", "STATUS", "DETALLE")))
	for _, r := range p.Rows {
		status := fmt.Sprintf("%-18s", r.Status)
		line := fmt.Sprintf("%-38s %s %s", r.ID, statusStyle(r.Status).Render(status), r.Summary)
		if r.Archived {
			line = mutedStyle.Render(line + " [archivado]")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("página %d/%d · %d resultados", p.Page, max(p.Pages, 1), p.Total)))
}

func renderResult(w io.Writer, res bulk.Result) {
	fmt.Fprintf(w, "%s %s: %s  (%d seleccionados)\n", res.Action, headerStyle.Render(string(res.Outcome)),
		fmt.Sprintf("%s %d · %s %d · %s %d",
			okStyle.Render("ok"), res.Succeeded,
			errorStyle.Render("fallidos"), res.Failed,
			mutedStyle.Render("omitidos"), res.Skipped),
		res.Selected)
	for _, it := range res.Items {
		if it.Err == nil {
			continue
		}
		st := mutedStyle
		if it.Status == bulk.ItemFailed {
			st = errorStyle
		}
		fmt.Fprintf(w, "  %s %s: %s\n", st.Render(string(it.Status)), it.ID, it.Err.Error())
	}
	if res.ReconcileErr != nil {
		fmt.Fprintln(w, errorStyle.Render("refetch posterior falló: "+res.ReconcileErr.Error()))
	}
}
