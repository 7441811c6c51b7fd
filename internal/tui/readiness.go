package tui

import (
	"errors"
	"fmt"
	"strings"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/config"
	"endurance-coach/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// ReadinessModel is the race readiness screen model
type ReadinessModel struct {
	coach    *service.CoachService
	report   *analysis.ReadinessReport
	viewport viewport.Model
	loading  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewReadinessModel creates a new readiness model
func NewReadinessModel(coach *service.CoachService, width, height int) ReadinessModel {
	m := ReadinessModel{
		coach:   coach,
		loading: true,
		width:   width,
		height:  height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}

	return m
}

// Init initializes the readiness screen
func (m ReadinessModel) Init() tea.Cmd {
	return m.loadReport
}

type readinessLoadedMsg struct {
	report *analysis.ReadinessReport
	err    error
}

func (m ReadinessModel) loadReport() tea.Msg {
	race, err := m.coach.RaceDate()
	if err != nil {
		return readinessLoadedMsg{err: err}
	}
	report, err := m.coach.Readiness(race)
	return readinessLoadedMsg{report: report, err: err}
}

// Update handles messages
func (m ReadinessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readinessLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.report = msg.report
		if m.ready && m.report != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.report != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadReport
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the readiness screen
func (m ReadinessModel) View() string {
	if m.loading {
		return "\n  Computing readiness..."
	}

	if errors.Is(m.err, config.ErrNoRace) {
		return "\n  No race configured. Set race.date (YYYY-MM-DD) in the config file."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ReadinessModel) renderContent() string {
	r := m.report
	var sections []string

	sections = append(sections, m.renderHeadline())

	if r.Status != analysis.StatusInsufficientData {
		sections = append(sections,
			lipgloss.JoinHorizontal(lipgloss.Top, m.renderFactors(), "  ", m.renderLoad()))
		if len(r.History) > 2 {
			sections = append(sections, m.renderHistory())
		}
		sections = append(sections, m.renderRecommendations())
	}

	sections = append(sections, m.renderTaper())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ReadinessModel) renderHeadline() string {
	r := m.report
	title := cardTitleStyle.Render(raceTitle(m.coach.RaceName(), r.DaysToRace))

	var lines []string
	if r.Status == analysis.StatusInsufficientData {
		lines = append(lines, warningStyle.Render(r.Label))
	} else {
		style := readinessStyle(r.Status)
		lines = append(lines,
			style.Bold(true).Render(fmt.Sprintf("%.0f / 100  %s", r.Score, r.Label)),
			RenderProgressBar(r.Score/100, 40),
		)
	}
	if r.Message != "" {
		lines = append(lines, "", helpDescStyle.Render(r.Message))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

func raceTitle(name string, days int) string {
	if name == "" {
		name = "Race"
	}
	switch {
	case days < 0:
		return fmt.Sprintf("%s Readiness (%d days ago)", name, -days)
	case days == 0:
		return fmt.Sprintf("%s Readiness (race day)", name)
	default:
		return fmt.Sprintf("%s Readiness (%d days to go)", name, days)
	}
}

func (m ReadinessModel) renderFactors() string {
	title := cardTitleStyle.Render("Score Breakdown")

	var lines []string
	for _, f := range m.report.Factors {
		lines = append(lines, RenderMetric(factorLabel(f.Name),
			fmt.Sprintf("%5.1f", f.Score),
			fmt.Sprintf("x%.2f = %.1f", f.Weight, f.Weighted)))
	}
	lines = append(lines, "",
		RenderMetric("Performance trend", fmt.Sprintf("%+.1f%%", m.report.PerformanceTrendPct), ""),
		RenderMetric("Consistency", fmt.Sprintf("%.0f%%", m.report.ConsistencyPct), ""),
	)

	return cardStyle.Width(50).Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

func factorLabel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ReplaceAll(name[1:], "_", " ")
}

func (m ReadinessModel) renderLoad() string {
	title := cardTitleStyle.Render("On Race Day")
	load := m.report.Load
	rec := m.report.Recovery

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", load.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", load.ATL), ""),
		RenderMetric("Form (TSB)", fmt.Sprintf("%.0f", load.TSB), signed(load.TSB)),
		helpDescStyle.Render(load.Form),
		"",
		RenderMetric("Recovery", fmt.Sprintf("%.0f", rec.Score), rec.Label),
		RenderMetric("Avg daily TSS", fmt.Sprintf("%.0f", rec.AvgTSS), ""),
		RenderMetric("Rest days", fmt.Sprintf("%d", rec.RestDays), ""),
	}

	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

func (m ReadinessModel) renderHistory() string {
	title := cardTitleStyle.Render("Load History")

	ctl := make([]float64, len(m.report.History))
	atl := make([]float64, len(m.report.History))
	for i, p := range m.report.History {
		ctl[i] = p.CTL
		atl[i] = p.ATL
	}

	width := 70
	if m.width > 20 && m.width-20 < width {
		width = m.width - 20
	}
	graph := asciigraph.PlotMany([][]float64{ctl, atl},
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("Fitness (CTL)", "Fatigue (ATL)"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m ReadinessModel) renderRecommendations() string {
	title := cardTitleStyle.Render("Recommendations")
	if len(m.report.Recommendations) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, helpDescStyle.Render("Nothing to flag")))
	}

	var lines []string
	for _, rec := range m.report.Recommendations {
		lines = append(lines, levelStyle(rec.Level).Render("* "+rec.Message))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

func (m ReadinessModel) renderTaper() string {
	t := m.report.Taper
	title := cardTitleStyle.Render(fmt.Sprintf("Taper: %s", t.Phase))

	lines := []string{metricValueStyle.Render(t.Message)}
	for _, rec := range t.Recommendations {
		lines = append(lines, helpDescStyle.Render("* "+rec))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}
