package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/internal/history"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1).
		MarginTop(1)

	headerCellStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	winnerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true).
		Padding(0, 1)

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// PrintTitle prints a section title
func PrintTitle(title string) {
	fmt.Println(titleStyle.Render(title))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Println(successStyle.Render("✅ " + message))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println(warningStyle.Render("⚠️  " + message))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Println(errorStyle.Render("❌ " + message))
}

func variantName(v contracts.Variant) string {
	return strings.ToUpper(string(v))
}

func formatMetric(value float64, unit string) string {
	return fmt.Sprintf("%.2f%s", value, unit)
}

// RenderComparison renders the per-metric LSTM vs RNN table; winning cells are highlighted
func RenderComparison(view contracts.ComparisonView) string {
	winners := make(map[int]contracts.Variant, len(view.Rows))
	rows := make([][]string, 0, len(view.Rows))
	for i, row := range view.Rows {
		winners[i] = row.Winner
		rows = append(rows, []string{
			row.Label,
			formatMetric(row.LSTM, row.Unit),
			formatMetric(row.RNN, row.Unit),
			formatMetric(row.Difference, row.Unit),
			variantName(row.Winner),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Metric", "LSTM", "RNN", "Diff", "Winner").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			w := winners[row]
			if (col == 1 && w == contracts.VariantLSTM) || (col == 2 && w == contracts.VariantRNN) {
				return winnerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s overall winner: %s", view.Symbol, successStyle.Render(variantName(view.OverallWinner))))
	for _, slice := range view.AccuracyShare {
		b.WriteString(fmt.Sprintf("\n  %-5s accuracy share %.2f", slice.Name, slice.Value))
	}
	return b.String()
}

// RenderChart renders the chart series as a date/actual/lstm/rnn table
func RenderChart(chart contracts.ChartSeries) string {
	rows := make([][]string, 0, len(chart.Points))
	for _, p := range chart.Points {
		rows = append(rows, []string{
			p.Label,
			fmt.Sprintf("%.2f", p.Actual),
			fmt.Sprintf("%.2f", p.LSTM),
			fmt.Sprintf("%.2f", p.RNN),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Date", "Actual", "LSTM", "RNN").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		}).
		String()
}

// RenderStats renders the four dashboard cards side by side
func RenderStats(stats contracts.DashboardStats) string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 2).
		Align(lipgloss.Center)

	cards := []string{
		card.Render(fmt.Sprintf("Models\n%d", stats.ModelsAvailable)),
		card.Render(fmt.Sprintf("Avg Accuracy\n%.2f%%", stats.AverageAccuracy)),
		card.Render(fmt.Sprintf("Predictions\n%d", stats.PredictionsMade)),
		card.Render(fmt.Sprintf("Avg Training\n%.2fs", stats.AvgTrainingSeconds)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// RenderRecentSymbols renders the recent-symbol table of the stats command
func RenderRecentSymbols(recent []history.SymbolCount) string {
	if len(recent) == 0 {
		return warningStyle.Render("no predictions recorded yet")
	}

	rows := make([][]string, 0, len(recent))
	for _, sc := range recent {
		rows = append(rows, []string{sc.Symbol, fmt.Sprintf("%d", sc.Count), sc.LastSeen.Format("2006-01-02 15:04")})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Symbol", "Predictions", "Last Seen").
		Rows(rows...).
		String()
}
