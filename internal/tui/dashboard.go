package tui

import (
	"fmt"
	"time"

	"endurance-coach/internal/config"
	"endurance-coach/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	coach       *service.CoachService
	syncService *service.SyncService
	units       Units
	data        *service.DashboardData
	lastSync    time.Time
	loading     bool
	err         error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(coach *service.CoachService, ss *service.SyncService, units Units) DashboardModel {
	return DashboardModel{
		coach:       coach,
		syncService: ss,
		units:       units,
		loading:     true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.coach.GetDashboardData()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	msg := dashboardDataMsg{data: data}
	if m.syncService != nil {
		// a missing sync time only hides the footer line
		msg.lastSync, _ = m.syncService.LastSync()
	}
	return msg
}

type dashboardDataMsg struct {
	data     *service.DashboardData
	lastSync time.Time
	err      error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		m.lastSync = msg.lastSync
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available. Press 's' to sync with Strava."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderLoadCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if len(m.data.LoadHistory) > 2 {
		sections = append(sections, m.renderChart())
	}

	sections = append(sections, m.renderRecentActivities())

	footer := "Press 'r' to refresh, 's' to sync"
	if !m.lastSync.IsZero() {
		footer = fmt.Sprintf("Last sync %s. %s", humanize.Time(m.lastSync), footer)
	}
	sections = append(sections, statusStyle.Render(footer))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderLoadCard() string {
	title := cardTitleStyle.Render("Training Load")
	load := m.data.Load

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", load.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", load.ATL), ""),
		RenderMetric("Form (TSB)", fmt.Sprintf("%.0f", load.TSB), signed(load.TSB)),
		"",
		helpDescStyle.Render(m.data.Form),
	}

	if m.data.HasRace {
		lines = append(lines, "", m.renderRace())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderRace() string {
	name := m.data.RaceName
	if name == "" {
		name = "Race"
	}
	when := m.data.RaceDate.Format(config.DateLayout)
	switch d := m.data.DaysToRace; {
	case d == 0:
		return successStyle.Render(fmt.Sprintf("%s is today", name))
	case d < 0:
		return helpDescStyle.Render(fmt.Sprintf("%s was %s", name, when))
	default:
		return metricValueStyle.Render(fmt.Sprintf("%s in %d days (%s)", name, d, when))
	}
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("Last 7 Days")

	lines := []string{
		RenderMetric("Activities", fmt.Sprintf("%d", m.data.WeekCount), ""),
		RenderMetric("Time", formatDuration(int(m.data.WeekHours*3600)), ""),
		RenderMetric("Stress (TSS)", fmt.Sprintf("%.0f", m.data.WeekTSS), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(34).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Fitness and Form - Last %d Days", len(m.data.LoadHistory)))

	ctl := make([]float64, len(m.data.LoadHistory))
	tsb := make([]float64, len(m.data.LoadHistory))
	for i, p := range m.data.LoadHistory {
		ctl[i] = p.CTL
		tsb[i] = p.TSB
	}

	graph := asciigraph.PlotMany([][]float64{ctl, tsb},
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Green),
		asciigraph.SeriesLegends("Fitness (CTL)", "Form (TSB)"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Activities")

	if len(m.data.RecentActivities) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No activities yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-8s  %-22s  %-11s  %8s  %9s  %6s  %5s",
		"Date", "Name", "Type", "Time", "Distance", "NP", "TSS"))

	rows := []string{header}
	for _, s := range m.data.RecentActivities {
		a := s.Activity
		row := tableRowStyle.Render(fmt.Sprintf("%-8s  %-22s  %-11s  %8s  %9s  %6s  %5.0f",
			a.Date.Format("Jan 02"),
			truncateName(a.Name, 22),
			a.Type,
			formatDuration(a.DurationSeconds),
			m.units.FormatDistance(a.DistanceMeters),
			formatWatts(a.NormalizedPower),
			s.TSS,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

// signed renders v as a trend marker for RenderMetric
func signed(v float64) string {
	switch {
	case v > 0:
		return "+ fresh"
	case v < 0:
		return "- fatigued"
	default:
		return ""
	}
}
