package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/panel"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	SettingsView
	EditView
	ConfirmRemoveView
	OperationView
)

// settingLeaves fixes the order leaves appear in the settings view. The
// dotted names match the keys of [panel.Mutations].
var settingLeaves = []struct {
	leaf  string
	value func(models.Settings) string
}{
	{"connection.remoteHost", func(s models.Settings) string { return s.Connection.RemoteHost }},
	{"connection.remoteConfigPath", func(s models.Settings) string { return s.Connection.RemoteConfigPath }},
	{"paths.localGamesPath", func(s models.Settings) string { return s.Paths.LocalGamesPath }},
	{"paths.saveBackupPath", func(s models.Settings) string { return s.Paths.SaveBackupPath }},
	{"proton.compatdataPath", func(s models.Settings) string { return s.Proton.CompatdataPath }},
	{"proton.defaultVersion", func(s models.Settings) string { return s.Proton.DefaultVersion }},
	{"sync.rsyncFlags", func(s models.Settings) string { return s.Sync.RsyncFlags }},
}

// Model represents the TUI application state.
type Model struct {
	ctx   context.Context
	panel *panel.Panel

	view   ViewState
	width  int
	height int

	gameList    list.Model
	settingList list.Model
	input       textinput.Model
	editingLeaf string

	pendingRemove string
	opKey         panel.OpKey
	spin          spinner.Model

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over the provided panel.
func NewModel(ctx context.Context, p *panel.Panel) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:   ctx,
		panel: p,
		view:  LibraryView,
		spin:  sp,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init starts the panel: load settings, prime the cache, refresh.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{err: m.panel.Init(m.ctx)}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.gameList.Width() != 0 {
			m.gameList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.settingList.Width() != 0 {
			m.settingList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case SettingsView:
			return m.handleSettingsKeys(msg)
		case EditView:
			return m.handleEditKeys(msg)
		case ConfirmRemoveView:
			return m.handleConfirmKeys(msg)
		case OperationView:
			// Controls stay inert while an operation runs.
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case initDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.rebuildGameList()
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Refresh failed: %v", msg.err))
		} else {
			m.status = ""
		}
		m.rebuildGameList()
		return m, nil

	case operationDoneMsg:
		m.view = LibraryView
		m.opKey = panel.OpKey{}
		m.status = operationStatus(msg)
		m.rebuildGameList()
		return m, nil

	case commitDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Save failed: %v", msg.err))
		} else {
			m.status = styles.ok.Render("Settings saved")
		}
		m.rebuildSettingList()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case SettingsView:
		return m.renderSettings()
	case EditView:
		return m.renderEdit()
	case ConfirmRemoveView:
		return m.renderConfirm()
	case OperationView:
		return m.renderOperation()
	default:
		return ""
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.settings):
		m.view = SettingsView
		m.rebuildSettingList()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if m.panel.GloballyBusy() {
			m.status = styles.warn.Render("Refresh already running")
			return m, nil
		}
		return m, m.refresh()
	case key.Matches(msg, m.keys.install):
		return m.tryDispatch(panel.InstallKey(m.selectedGame().Name))
	case key.Matches(msg, m.keys.remove):
		game := m.selectedGame()
		if ok, reason := m.allowed(panel.RemoveKey(game.Name), game); !ok {
			m.status = styles.warn.Render(reason)
			return m, nil
		}
		m.pendingRemove = game.Name
		m.view = ConfirmRemoveView
		return m, nil
	case key.Matches(msg, m.keys.sync):
		return m.tryDispatch(panel.SyncKey(m.selectedGame().Name))
	case key.Matches(msg, m.keys.syncAll):
		return m.tryDispatch(panel.SyncAllKey())
	}

	var cmd tea.Cmd
	m.gameList, cmd = m.gameList.Update(msg)
	return m, cmd
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = LibraryView
		return m, nil
	case key.Matches(msg, m.keys.commit):
		if !m.panel.Settings().Dirty() {
			m.status = styles.warn.Render("No changes to save")
			return m, nil
		}
		if m.panel.GloballyBusy() {
			m.status = styles.warn.Render("Busy, try again")
			return m, nil
		}
		return m, m.commit()
	case key.Matches(msg, m.keys.discard):
		m.panel.Settings().Discard()
		m.status = styles.warn.Render("Changes discarded")
		m.rebuildSettingList()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.settingList.SelectedItem().(settingItem); ok {
			m.editingLeaf = item.leaf
			m.input = textinput.New()
			m.input.SetValue(item.value)
			m.input.Focus()
			m.view = EditView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.settingList, cmd = m.settingList.Update(msg)
	return m, cmd
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = SettingsView
		return m, nil
	case "enter":
		if construct, ok := panel.Mutations()[m.editingLeaf]; ok {
			if err := m.panel.Settings().Apply(construct(m.input.Value())); err != nil {
				m.status = styles.err.Render(fmt.Sprintf("Edit failed: %v", err))
			}
		}
		m.view = SettingsView
		m.rebuildSettingList()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.pendingRemove = ""
		m.view = LibraryView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		name := m.pendingRemove
		m.pendingRemove = ""
		return m.dispatch(panel.RemoveKey(name))
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryView:
		m.gameList, cmd = m.gameList.Update(msg)
	case SettingsView:
		m.settingList, cmd = m.settingList.Update(msg)
	case EditView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// tryDispatch gates a dispatch on the selected game and runs it.
func (m *Model) tryDispatch(opKey panel.OpKey) (tea.Model, tea.Cmd) {
	if ok, reason := m.allowed(opKey, m.selectedGame()); !ok {
		m.status = styles.warn.Render(reason)
		return m, nil
	}
	return m.dispatch(opKey)
}

func (m *Model) dispatch(opKey panel.OpKey) (tea.Model, tea.Cmd) {
	m.opKey = opKey
	m.view = OperationView
	return m, tea.Batch(m.spin.Tick, m.runOperation(opKey))
}

// allowed reports whether the control for opKey is actionable, and when
// it is not, the reason shown in the status line.
func (m *Model) allowed(opKey panel.OpKey, game models.Game) (bool, string) {
	if m.panel.Busy(opKey) {
		return false, "Operation already in flight"
	}

	if opKey.Kind == panel.OpSyncAll {
		return true, ""
	}
	if game.Name == "" {
		return false, "No game selected"
	}

	switch opKey.Kind {
	case panel.OpInstall:
		if game.Installed {
			return false, game.Name + " is already installed"
		}
		if !game.RemoteAvailable {
			return false, game.Name + " is not available from the remote"
		}
	case panel.OpRemove, panel.OpSync:
		if !game.Installed {
			return false, game.Name + " is not installed"
		}
	}
	return true, ""
}

func (m *Model) selectedGame() models.Game {
	if item, ok := m.gameList.SelectedItem().(gameItem); ok {
		return item.game
	}
	return models.Game{}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: m.panel.Refresh(m.ctx)}
	}
}

func (m *Model) commit() tea.Cmd {
	return func() tea.Msg {
		return commitDoneMsg{err: m.panel.Settings().Commit(m.ctx)}
	}
}

func (m *Model) runOperation(opKey panel.OpKey) tea.Cmd {
	return func() tea.Msg {
		var result *models.OperationResult
		var err error

		switch opKey.Kind {
		case panel.OpInstall:
			result, err = m.panel.Install(m.ctx, opKey.Game)
		case panel.OpRemove:
			result, err = m.panel.Remove(m.ctx, opKey.Game)
		case panel.OpSync:
			result, err = m.panel.Sync(m.ctx, opKey.Game)
		case panel.OpSyncAll:
			result, err = m.panel.SyncAll(m.ctx)
		}

		return operationDoneMsg{key: opKey, result: result, err: err}
	}
}

// operationStatus formats the status line for a finished operation.
func operationStatus(msg operationDoneMsg) string {
	if msg.err != nil {
		return styles.err.Render(fmt.Sprintf("%s: %v", msg.key.Title(), msg.err))
	}
	if msg.result != nil && !msg.result.OK {
		return styles.warn.Render(fmt.Sprintf("%s: %s", msg.key.Title(), msg.result.Message))
	}
	message := "done"
	if msg.result != nil && msg.result.Message != "" {
		message = msg.result.Message
	}
	return styles.ok.Render(fmt.Sprintf("%s: %s", msg.key.Title(), message))
}

func (m *Model) rebuildGameList() {
	var items []list.Item
	if snapshot, ok := m.panel.Library().Snapshot(); ok {
		items = make([]list.Item, len(snapshot.Games))
		for i, game := range snapshot.Games {
			items[i] = gameItem{game: game}
		}
	}

	index := m.gameList.Index()
	m.gameList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.gameList.Title = "Game Library"
	m.gameList.SetSize(m.width-4, m.height-8)
	if index < len(items) {
		m.gameList.Select(index)
	}
}

func (m *Model) rebuildSettingList() {
	draft, ok := m.panel.Settings().Draft()
	items := make([]list.Item, 0, len(settingLeaves))
	if ok {
		for _, leaf := range settingLeaves {
			items = append(items, settingItem{leaf: leaf.leaf, value: leaf.value(draft)})
		}
	}

	index := m.settingList.Index()
	m.settingList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.settingList.Title = "Settings"
	if m.panel.Settings().Dirty() {
		m.settingList.Title = "Settings (unsaved changes)"
	}
	m.settingList.SetSize(m.width-4, m.height-8)
	if index < len(items) {
		m.settingList.Select(index)
	}
}

func (m *Model) renderLibrary() string {
	var banner string
	if err := m.panel.Library().Err(); err != nil {
		banner = styles.err.Render(fmt.Sprintf("⚠ %v", err)) + "\n"
	}

	helpKeys := []key.Binding{m.keys.refresh, m.keys.install, m.keys.remove, m.keys.sync, m.keys.settings, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n%s\n\n%s", banner, m.gameList.View(), m.status, helpView)
}

func (m *Model) renderSettings() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.commit, m.keys.discard, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.settingList.View(), m.status, helpView)
}

func (m *Model) renderEdit() string {
	title := styles.title.Render("Edit " + m.editingLeaf)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Remove '%s'?", m.pendingRemove))
	info := "\nThe game folder and Proton prefix will be deleted.\nSaves are backed up first.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderOperation() string {
	title := styles.title.Render(m.opKey.Title())
	return fmt.Sprintf("%s\n\n%s Working...", title, m.spin.View())
}
