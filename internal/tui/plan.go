package tui

import (
	"fmt"
	"strings"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PlanModel is the plan adherence screen model
type PlanModel struct {
	coach    *service.CoachService
	status   *service.PlanStatus
	cursor   int
	offset   int
	pageSize int
	loading  bool
	err      error
	notice   string

	// reason capture for marking a session missed
	editing bool
	reason  textinput.Model
}

// NewPlanModel creates a new plan model
func NewPlanModel(coach *service.CoachService) PlanModel {
	ti := textinput.New()
	ti.Placeholder = "why was it missed? (optional)"
	ti.CharLimit = 120
	ti.Width = 50

	return PlanModel{
		coach:    coach,
		pageSize: 15,
		loading:  true,
		reason:   ti,
	}
}

// Init initializes the plan screen
func (m PlanModel) Init() tea.Cmd {
	return m.loadStatus
}

type planLoadedMsg struct {
	status *service.PlanStatus
	err    error
}

type sessionMarkedMsg struct {
	key analysis.SessionKey
	rec analysis.CompletionRecord
	err error
}

func (m PlanModel) loadStatus() tea.Msg {
	status, err := m.coach.PlanStatus()
	return planLoadedMsg{status: status, err: err}
}

// Capturing reports whether the screen is reading text input
func (m PlanModel) Capturing() bool {
	return m.editing
}

func (m PlanModel) selected() (service.SessionStatus, bool) {
	if m.status == nil || m.cursor >= len(m.status.Sessions) {
		return service.SessionStatus{}, false
	}
	return m.status.Sessions[m.cursor], true
}

// Update handles messages
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.status = msg.status
		if m.status != nil && m.cursor >= len(m.status.Sessions) {
			m.cursor = max(0, len(m.status.Sessions)-1)
		}
		return m, nil

	case sessionMarkedMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render(fmt.Sprintf("Could not update %s: %v", msg.key, msg.err))
			return m, nil
		}
		if msg.rec.Missed {
			m.notice = warningStyle.Render(fmt.Sprintf("%s marked missed", msg.key))
		} else {
			m.notice = successStyle.Render(fmt.Sprintf("%s marked complete", msg.key))
		}
		m.loading = true
		return m, m.loadStatus
	}

	if m.editing {
		return m.updateReason(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.status != nil && m.cursor < len(m.status.Sessions)-1 {
				m.cursor++
			}
		case "pgup":
			m.cursor = max(0, m.cursor-m.pageSize)
		case "pgdown":
			if m.status != nil {
				m.cursor = min(len(m.status.Sessions)-1, m.cursor+m.pageSize)
			}
		case "r":
			m.loading = true
			m.notice = ""
			return m, m.loadStatus
		case "c":
			if ss, ok := m.selected(); ok {
				return m, m.markComplete(ss)
			}
		case "x":
			if _, ok := m.selected(); ok {
				m.editing = true
				m.reason.SetValue("")
				return m, m.reason.Focus()
			}
		}
	}
	m.offset = scrollOffset(m.cursor, m.offset, m.pageSize)
	return m, nil
}

func (m PlanModel) updateReason(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.editing = false
			m.reason.Blur()
			return m, nil
		case "enter":
			m.editing = false
			m.reason.Blur()
			ss, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, m.markMissed(ss, strings.TrimSpace(m.reason.Value()))
		}
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

// markComplete credits the session with its matched activity, if any
func (m PlanModel) markComplete(ss service.SessionStatus) tea.Cmd {
	key := ss.Session.Key()
	var activityID *int64
	if ss.Match.Matched && ss.Match.Activity != nil {
		id := ss.Match.Activity.ID
		activityID = &id
	}
	return func() tea.Msg {
		rec, err := m.coach.MarkComplete(key, activityID)
		return sessionMarkedMsg{key: key, rec: rec, err: err}
	}
}

func (m PlanModel) markMissed(ss service.SessionStatus, reason string) tea.Cmd {
	key := ss.Session.Key()
	return func() tea.Msg {
		rec, err := m.coach.MarkMissed(key, reason)
		return sessionMarkedMsg{key: key, rec: rec, err: err}
	}
}

// scrollOffset keeps the cursor inside a window of size rows
func scrollOffset(cursor, offset, size int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+size {
		return cursor - size + 1
	}
	return offset
}

// View renders the plan screen
func (m PlanModel) View() string {
	if m.loading {
		return "\n  Loading plan..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.status == nil || len(m.status.Sessions) == 0 {
		return "\n  No training plan imported. Run 'coach import-plan <file.yaml>'."
	}

	var sections []string
	sections = append(sections, m.renderSummary())

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-6s  %-10s  %-10s  %6s  %-10s  %5s  %-24s",
		"Key", "Date", "Type", "Min", "State", "Score", "Activity"))
	sections = append(sections, header)

	end := min(len(m.status.Sessions), m.offset+m.pageSize)
	for i := m.offset; i < end; i++ {
		ss := m.status.Sessions[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-6s  %-10s  %-10s  %6d  %-10s  %5s  %-24s",
			cursor,
			ss.Session.Key(),
			ss.Session.Date.Format("Mon Jan 02"),
			ss.Session.Type,
			ss.Session.DurationMinutes,
			ss.State,
			sessionScore(ss),
			truncateName(sessionActivity(ss), 24),
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	if ss, ok := m.selected(); ok {
		sections = append(sections, m.renderDetail(ss))
	}

	if m.editing {
		sections = append(sections, "\n  Mark missed: "+m.reason.View())
		sections = append(sections, statusStyle.Render("  enter: save  esc: cancel"))
	} else {
		if m.notice != "" {
			sections = append(sections, "\n  "+m.notice)
		}
		sections = append(sections, statusStyle.Render("\n  j/k: navigate  c: mark complete  x: mark missed  r: refresh"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlanModel) renderSummary() string {
	s := m.status.Summary
	title := cardTitleStyle.Render(fmt.Sprintf("%s - Adherence as of %s", m.status.PlanName, m.status.AsOf.Format("Jan 02")))

	left := lipgloss.JoinVertical(lipgloss.Left,
		RenderMetric("Sessions due", fmt.Sprintf("%d of %d", s.Due, s.Planned), ""),
		RenderMetric("Completed", fmt.Sprintf("%d (%d auto, %d manual)", s.Completed, s.Automatic, s.Manual), ""),
		RenderMetric("Missed", fmt.Sprintf("%d", s.Missed), ""),
		RenderMetric("Pending", fmt.Sprintf("%d", s.Pending), ""),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		RenderMetric("Completion", fmt.Sprintf("%.0f%%", s.CompletionPct), ""),
		RenderProgressBar(s.CompletionPct/100, 24),
		RenderMetric("Quality", fmt.Sprintf("%.0f%%", s.QualityPct), ""),
		RenderProgressBar(s.QualityPct/100, 24),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title,
		lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)))
}

func (m PlanModel) renderDetail(ss service.SessionStatus) string {
	var lines []string
	lines = append(lines, "")
	if ss.Session.Description != "" {
		lines = append(lines, "  "+metricValueStyle.Render(ss.Session.Description))
	}
	lines = append(lines, "  State: "+RenderState(ss.State))

	if ss.Match.Reason != "" {
		lines = append(lines, "  Match: "+helpDescStyle.Render(ss.Match.Reason))
	}
	if ss.Match.Matched && ss.Match.DateOffset != 0 {
		lines = append(lines, "  "+helpDescStyle.Render(offsetText(ss.Match.DateOffset)))
	}
	b := ss.Match.Breakdown
	if ss.Match.Activity != nil {
		lines = append(lines, "  "+helpDescStyle.Render(fmt.Sprintf(
			"duration %s  intensity %s  type %s  effort %s",
			factorText(b.Duration), factorText(b.Intensity), factorText(b.Kind), factorText(b.Effort))))
	}
	if ss.HasCompletion && ss.Completion.Missed && ss.Completion.MissedReason != "" {
		lines = append(lines, "  Missed: "+warningStyle.Render(ss.Completion.MissedReason))
	}
	return strings.Join(lines, "\n")
}

func sessionScore(ss service.SessionStatus) string {
	switch {
	case ss.HasCompletion && ss.Completion.Completed:
		return fmt.Sprintf("%.0f", ss.Completion.Score)
	case ss.Match.Activity != nil:
		return fmt.Sprintf("%.0f", ss.Match.Score)
	default:
		return "-"
	}
}

func sessionActivity(ss service.SessionStatus) string {
	if ss.Match.Activity != nil {
		return ss.Match.Activity.Name
	}
	if ss.HasCompletion && ss.Completion.ActivityID != nil {
		return fmt.Sprintf("#%d", *ss.Completion.ActivityID)
	}
	return ""
}

func factorText(f analysis.FactorScore) string {
	if !f.Evaluated {
		return "n/a"
	}
	return fmt.Sprintf("%.0f/%.0f", f.Points, f.Max)
}

func offsetText(days int) string {
	unit := "days"
	if days == 1 || days == -1 {
		unit = "day"
	}
	if days < 0 {
		return fmt.Sprintf("done %d %s early", -days, unit)
	}
	return fmt.Sprintf("done %d %s late", days, unit)
}
