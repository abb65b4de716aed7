package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/estoque/internal/auth"
)

func (m model) renderConfigScreen(layoutWidth int) string {
	title := m.renderScreenTitle("configurações", layoutWidth)

	session := "sem sessão"
	if m.client != nil && m.client.Token() != "" {
		session = "ativa"
		if exp, ok := auth.TokenExpiry(m.client.Token()); ok {
			if exp.Before(m.now()) {
				session = "expirada em " + exp.Local().Format("02/01/2006 15:04")
			} else {
				session = "ativa até " + exp.Local().Format("02/01/2006 15:04")
			}
		}
	}
	apiURL, breaker := "-", "-"
	if m.client != nil {
		apiURL = m.client.BaseURL()
		breaker = firstNonEmpty(m.client.BreakerState(), "desligado")
	}
	metricsAddr := "desligado"
	if m.cfg != nil && m.cfg.MetricsAddr != "" {
		metricsAddr = "http://" + m.cfg.MetricsAddr + "/metrics"
	}
	logFile := "-"
	if m.cfg != nil {
		logFile = firstNonEmpty(m.cfg.LogFile, "stderr")
	}
	snap := m.metrics.Snapshot()

	rows := [][2]string{
		{"API", apiURL},
		{"usuário", displayName(m.userName)},
		{"sessão", session},
		{"circuito", breaker},
		{"requisições", fmt.Sprintf("%d", snap.Requests)},
		{"erros da API", fmt.Sprintf("%.0f", snap.APIErrors)},
		{"formulários rejeitados", fmt.Sprintf("%.0f", snap.Rejections)},
		{"métricas", metricsAddr},
		{"log", logFile},
	}
	labelWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, len([]rune(r[0])))
	}
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0"))
	lines := make([]string, 0, len(rows)+2)
	for _, r := range rows {
		label := r[0] + strings.Repeat(" ", labelWidth-len([]rune(r[0])))
		lines = append(lines, labelStyle.Render(label)+"  "+r[1])
	}
	lines = append(lines, "", mutedText("/login e /logout trocam a sessão"))

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
	return strings.Join([]string{title, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, panel)}, "\n")
}
