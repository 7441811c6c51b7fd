package tui

import (
	"endurance-coach/internal/config"
	"endurance-coach/internal/logger"
	"endurance-coach/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenPlan
	ScreenReadiness
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard  DashboardModel
	plan       PlanModel
	readiness  ReadinessModel
	syncScreen SyncModel
	help       HelpModel

	// Services
	coach       *service.CoachService
	syncService *service.SyncService
	units       Units
	log         *logger.Logger

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies. syncService may be nil
// when Strava is not configured; the sync screen is then unavailable.
func NewApp(coach *service.CoachService, syncService *service.SyncService, display config.DisplayConfig, log *logger.Logger) *App {
	units := NewUnits(display)
	a := &App{
		screen:      ScreenDashboard,
		coach:       coach,
		syncService: syncService,
		units:       units,
		log:         log,
		dashboard:   NewDashboardModel(coach, syncService, units),
		plan:        NewPlanModel(coach),
		readiness:   NewReadinessModel(coach, 0, 0),
		help:        NewHelpModel(),
	}
	if syncService != nil {
		a.syncScreen = NewSyncModel(syncService)
	}
	return a
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// capturing reports whether the active screen owns the keyboard
func (a *App) capturing() bool {
	switch a.screen {
	case ScreenSync:
		return a.syncScreen.syncing
	case ScreenPlan:
		return a.plan.Capturing()
	}
	return false
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.capturing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.coach, a.syncService, a.units)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenPlan
				return a, a.plan.Init()
			case "3":
				a.screen = ScreenReadiness
				a.readiness = NewReadinessModel(a.coach, a.width, a.height)
				return a, a.readiness.Init()
			case "4", "s":
				if a.syncService == nil {
					a.status = "Strava is not configured; add client_id and client_secret to sync"
					return a, nil
				}
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to sync screen when already there
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// the readiness viewport sizes itself from this even when hidden
		m, cmd := a.readiness.Update(msg)
		a.readiness = m.(ReadinessModel)
		if a.screen == ScreenReadiness {
			return a, cmd
		}

	case SyncCompleteMsg:
		// the sync screen keeps its summary; the dashboard reloads on '1'
		a.log.Debug("sync finished")
		a.status = ""
		return a, nil
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenPlan:
		var m tea.Model
		m, cmd = a.plan.Update(msg)
		a.plan = m.(PlanModel)
	case ScreenReadiness:
		var m tea.Model
		m, cmd = a.readiness.Update(msg)
		a.readiness = m.(ReadinessModel)
	case ScreenSync:
		var m tea.Model
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenPlan:
		content = a.plan.View()
	case ScreenReadiness:
		content = a.readiness.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	title := "Endurance Coach"
	if name := a.coach.RaceName(); name != "" {
		title += " - " + name
	}
	return headerStyle.Render(title)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Plan", ScreenPlan},
		{"3", "Readiness", ScreenReadiness},
		{"4", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
