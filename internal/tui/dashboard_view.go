package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/estoque/internal/money"
)

const movementBarWidth = 24

func (m model) renderDashboardScreen(layoutWidth int) string {
	title := m.renderScreenTitle("dashboard", layoutWidth)
	d := m.dashboard
	if d == nil {
		return strings.Join([]string{title, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("sem dados ainda"))}, "\n")
	}

	statWidth := max(18, min((layoutWidth-12)/4, 26))
	stat := func(label, value, color string) string {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(color)).
			Padding(0, 1).
			Width(statWidth).
			Render(mutedText(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
	}
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		stat("vendas hoje", money.FormatBRL(d.SalesToday), "#5CCB76"), " ",
		stat("recebimentos do mês", money.FormatBRL(d.MonthReceivables), "#5FA8FF"), " ",
		stat("estoque crítico", fmt.Sprintf("%d itens", d.CriticalStock), "#F15B5B"), " ",
		stat("compras pendentes", fmt.Sprintf("%d", d.PendingPurchases), "#FFD54A"),
	)

	alertLines := []string{lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("alertas de estoque")}
	if len(d.StockAlerts) == 0 {
		alertLines = append(alertLines, mutedText("nenhum alerta"))
	}
	for _, a := range d.StockAlerts {
		alertLines = append(alertLines, "• "+a)
	}

	movementLines := []string{lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("movimentação")}
	if len(d.Movements) == 0 {
		movementLines = append(movementLines, mutedText("sem movimentação no período"))
	}
	peak := 1
	labelWidth := 0
	for _, mv := range d.Movements {
		peak = max(peak, mv.Inflow, mv.Outflow)
		labelWidth = max(labelWidth, len([]rune(mv.Label)))
	}
	in := lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76"))
	out := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60"))
	for _, mv := range d.Movements {
		label := mv.Label + strings.Repeat(" ", labelWidth-len([]rune(mv.Label)))
		movementLines = append(movementLines,
			fmt.Sprintf("%s  %s %d", label, in.Render(bar(mv.Inflow, peak)), mv.Inflow),
			fmt.Sprintf("%s  %s %d", strings.Repeat(" ", labelWidth), out.Render(bar(mv.Outflow, peak)), mv.Outflow),
		)
	}
	movementLines = append(movementLines, "", in.Render("■")+" entradas  "+out.Render("■")+" saídas")

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1)
	lower := lipgloss.JoinHorizontal(lipgloss.Top,
		panel.Width(max(24, statWidth+8)).Render(strings.Join(alertLines, "\n")),
		"  ",
		panel.Width(labelWidth+movementBarWidth+12).Render(strings.Join(movementLines, "\n")),
	)

	return strings.Join([]string{
		title,
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, stats),
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, lower),
	}, "\n")
}

func bar(v, peak int) string {
	if v <= 0 || peak <= 0 {
		return ""
	}
	n := max(1, v*movementBarWidth/peak)
	return strings.Repeat("█", n)
}
