// Package statsui provides the Bubble Tea usage browser.
package statsui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/stats"
)

const (
	tabOverview = iota
	tabLanguages
	tabEditors
	tabActivity
)

const (
	plotHeight   = 10
	defaultWidth = 80
	noDataText   = "No completion data found."
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea usage browser. It holds every row it was
// given and narrows them in memory when the filter changes.
type Model struct {
	batch  model.Batch
	filter model.Filter

	dashboard stats.Dashboard
	hasData   bool

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	langTable  table.Model
	langLayout tableLayout

	width  int
	height int

	keys       keyMap
	filterKeys filterKeyMap
	help       help.Model

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width  int
	height int
}

// NewModel constructs a browser over batch, initially narrowed by filter.
func NewModel(batch model.Batch, filter model.Filter) *Model {
	m := &Model{
		batch:  batch,
		filter: filter,
		tabs:   []string{"Overview", "Languages", "Editors", "Chats & PRs"},

		keys:       defaultKeyMap(),
		filterKeys: defaultFilterKeyMap(),
		help:       help.New(),
	}
	m.initInputs()
	m.langTable = newLanguageTable()
	m.initViewports()
	m.refreshDashboard()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.PrevTab):
		m.moveTab(-1)
		return m, tea.ClearScreen
	case key.Matches(msg, m.keys.NextTab):
		m.moveTab(1)
		return m, tea.ClearScreen
	case key.Matches(msg, m.keys.Filter):
		return m.startFilter()
	case key.Matches(msg, m.keys.Top):
		if m.activeTab == tabLanguages {
			m.langTable.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		if m.activeTab == tabLanguages {
			m.langTable.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	if m.activeTab == tabLanguages {
		m.langTable, cmd = m.langTable.Update(msg)
		return m, cmd
	}
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Until (YYYY-MM-DD): "),
		newFilterInput("Editor: "),
	}
	m.setInputsFromFilter()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromFilter() {
	m.filterInputs[0].SetValue(m.filter.Since)
	m.filterInputs[1].SetValue(m.filter.Until)
	m.filterInputs[2].SetValue(m.filter.Editor)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setLanguageTableSize(m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabLanguages {
		m.langTable.Focus()
	} else {
		m.langTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.renderFilterSummary())
}

func (m *Model) renderFilterSummary() string {
	summary := fmt.Sprintf("Filter: since=%s  until=%s  editor=%s",
		orAny(m.filter.Since), orAny(m.filter.Until), orAny(m.filter.Editor))
	if m.hasData {
		summary += "  " + m.dashboard.Timeframe.Label()
	}
	return headerStyle.Render(runewidth.Truncate(summary, m.width, "..."))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.help.View(m.filterKeys)
	}
	return m.help.View(m.keys)
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabLanguages {
		if !m.hasData {
			return fitLines(noDataText, m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.langTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshDashboard() {
	m.dashboard, m.hasData = stats.BuildDashboard(stats.FilterBatch(m.batch, m.filter))
	m.langTable.SetRows(languageRows(m.dashboard))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if !m.hasData {
		for i := range m.viewports {
			m.viewports[i].SetContent(noDataText)
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.dashboard, width))
	m.viewports[tabEditors].SetContent(renderWith(stats.RenderEditorTable, m.dashboard))
	m.viewports[tabActivity].SetContent(renderWith(stats.RenderActivityTable, m.dashboard))
}

func renderOverview(d stats.Dashboard, width int) string {
	summary := renderSummaryCards(d, width)
	var buf bytes.Buffer
	if err := stats.RenderTrendsWithSize(&buf, d, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render trends: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(d stats.Dashboard, width int) string {
	total := d.Totals()
	var peak int64
	for _, v := range d.ActiveUsers {
		peak = max(peak, v)
	}
	cards := []string{
		metricCard("Days", fmt.Sprintf("%d", len(d.Dates))),
		metricCard("Languages", fmt.Sprintf("%d", len(d.Languages))),
		metricCard("Peak Users", fmt.Sprintf("%d", peak)),
		metricCard("Acceptances", fmt.Sprintf("%d", total.Acceptances)),
		metricCard("Acceptance Rate", fmt.Sprintf("%.1f%%", total.Rate)),
		metricCard("Lines Accepted", fmt.Sprintf("%d", total.LinesAccepted)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderWith(render func(io.Writer, stats.Dashboard) error, d stats.Dashboard) string {
	var buf bytes.Buffer
	if err := render(&buf, d); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newLanguageTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Language", Width: 16},
			{Title: "Suggestions", Width: 12},
			{Title: "Acceptances", Width: 12},
			{Title: "Rate", Width: 8},
			{Title: "Lines Sugg.", Width: 12},
			{Title: "Lines Acc.", Width: 12},
		}),
		table.WithHeight(1),
	)
	t.SetStyles(languageTableStyles())
	return t
}

func languageRows(d stats.Dashboard) []table.Row {
	rows := make([]table.Row, 0, len(d.LanguageStats))
	for _, s := range d.LanguageStats {
		rows = append(rows, table.Row{
			s.Name,
			fmt.Sprintf("%d", s.Suggestions),
			fmt.Sprintf("%d", s.Acceptances),
			fmt.Sprintf("%.2f%%", s.Rate),
			fmt.Sprintf("%d", s.LinesSuggested),
			fmt.Sprintf("%d", s.LinesAccepted),
		})
	}
	return rows
}

func languageTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) setLanguageTableSize(width, height int) {
	viewportHeight := max(1, height-1)
	if m.langLayout.width == width && m.langLayout.height == viewportHeight {
		return
	}
	m.langLayout.width = width
	m.langLayout.height = viewportHeight
	m.langTable.SetWidth(width)
	m.langTable.SetHeight(viewportHeight)
	if viewHeight := lipgloss.Height(m.langTable.View()); viewHeight != height {
		m.langLayout.height = max(1, viewportHeight+height-viewHeight)
		m.langTable.SetHeight(m.langLayout.height)
	}
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromFilter()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.filterKeys.Cancel):
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case key.Matches(msg, m.filterKeys.Apply):
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshDashboard()
		m.updateLayout()
		return m, nil
	case key.Matches(msg, m.filterKeys.Next):
		return m, m.setFilterIndex(m.filterIndex + 1)
	case key.Matches(msg, m.filterKeys.Prev):
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	since := strings.TrimSpace(m.filterInputs[0].Value())
	until := strings.TrimSpace(m.filterInputs[1].Value())
	for _, date := range []string{since, until} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
		}
	}
	if since != "" && until != "" && since > until {
		return fmt.Errorf("since must not be after until")
	}
	m.filter = model.Filter{
		Since:  since,
		Until:  until,
		Editor: strings.TrimSpace(m.filterInputs[2].Value()),
	}
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	return lipgloss.NewStyle().
		Width(width).
		MaxWidth(width).
		Height(height).
		MaxHeight(height).
		Render(s)
}
