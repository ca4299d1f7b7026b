package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pinmap/internal/geo"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/store"
	"github.com/desertthunder/pinmap/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MarkerListView ViewState = iota
	InputView
	ConfirmClearView
	ProgressView
	ResultView
	ListsView
	ViewportView
)

// InputMode selects what the input view submits to.
type InputMode int

const (
	AskInput InputMode = iota
	ExtractInput
	SearchInput
	SaveInput
)

func (i InputMode) prompt() string {
	switch i {
	case AskInput:
		return "Ask about places"
	case ExtractInput:
		return "Paste text mentioning places"
	case SearchInput:
		return "Search a place"
	case SaveInput:
		return "Save markers as list"
	default:
		return ""
	}
}

func (i InputMode) placeholder() string {
	switch i {
	case AskInput:
		return "best coffee in Vienna?"
	case SearchInput:
		return "Eiffel Tower, Paris"
	case SaveInput:
		return "list name"
	default:
		return ""
	}
}

type runFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)

// Options holds the TUI's dependencies.
type Options struct {
	Store    *store.MarkerStore
	Pipeline *tasks.Pipeline
	Map      shared.MapConfig
	OpenURL  func(url string) error  // defaults to [shared.OpenBrowser]
	Copy     func(text string) error // defaults to the system clipboard
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	store        *store.MarkerStore
	pipeline     *tasks.Pipeline
	mapCfg       shared.MapConfig
	openURL      func(string) error
	copyText     func(string) error
	width        int
	height       int
	markerList   list.Model
	listsList    list.Model
	mode         InputMode
	input        textinput.Model
	text         textarea.Model
	bar          progressbar.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan runOutcome
	cancelRun    context.CancelFunc
	progress     tasks.ProgressUpdate
	result       *tasks.RunResult
	runErr       error
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	m := &Model{
		ctx:      ctx,
		view:     MarkerListView,
		store:    opts.Store,
		pipeline: opts.Pipeline,
		mapCfg:   opts.Map,
		openURL:  opts.OpenURL,
		copyText: opts.Copy,
		width:    80,
		height:   24,
		input:    textinput.New(),
		text:     textarea.New(),
		bar:      progressbar.New(progressbar.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.markerList = newList("Markers")
	m.listsList = newList("Saved lists")
	m.resize()
	m.refreshMarkers()
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Init initializes the TUI.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MarkerListView:
			return m.handleMarkerKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case ConfirmClearView:
			return m.handleConfirmKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultView, ViewportView:
			return m.handleDismissKeys(msg)
		case ListsView:
			return m.handleListsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.doneChan)

	case MsgRunComplete:
		out := msg.data.(runOutcome)
		m.result = out.result
		m.runErr = out.err
		m.progressChan = nil
		m.doneChan = nil
		if m.cancelRun != nil {
			m.cancelRun()
			m.cancelRun = nil
		}
		m.view = ResultView
		return m, m.refreshMarkers()

	case MsgActionDone:
		out := msg.data.(actionOutcome)
		m.setStatus(out.status, out.err)
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MarkerListView:
		return m.renderMarkerList()
	case InputView:
		return m.renderInput()
	case ConfirmClearView:
		return m.renderConfirm()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	case ListsView:
		return m.renderLists()
	case ViewportView:
		return m.renderViewport()
	default:
		return ""
	}
}

func (m *Model) handleMarkerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ask):
		return m, m.openInput(AskInput)
	case key.Matches(msg, m.keys.extract):
		return m, m.openInput(ExtractInput)
	case key.Matches(msg, m.keys.search):
		return m, m.openInput(SearchInput)
	case key.Matches(msg, m.keys.save):
		return m, m.openInput(SaveInput)
	case key.Matches(msg, m.keys.clear):
		if m.store.Len() > 0 {
			m.view = ConfirmClearView
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		return m, m.removeSelected()
	case key.Matches(msg, m.keys.lists):
		m.view = ListsView
		return m, m.refreshLists()
	case key.Matches(msg, m.keys.viewport):
		m.view = ViewportView
		return m, nil
	case key.Matches(msg, m.keys.open):
		if marker, ok := m.selectedMarker(); ok {
			return m, m.open(marker)
		}
		return m, nil
	case key.Matches(msg, m.keys.copy):
		if marker, ok := m.selectedMarker(); ok {
			return m, m.copy(marker)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.markerList, cmd = m.markerList.Update(msg)
	return m, cmd
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closeInput()
		return m, nil
	case m.mode == ExtractInput && key.Matches(msg, m.keys.submit):
		return m, m.submit(m.text.Value())
	case m.mode != ExtractInput && key.Matches(msg, m.keys.enter):
		return m, m.submit(m.input.Value())
	}

	var cmd tea.Cmd
	if m.mode == ExtractInput {
		m.text, cmd = m.text.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		n := m.store.Len()
		err := m.store.Clear()
		m.setStatus(fmt.Sprintf("Removed %d markers", n), err)
		m.view = MarkerListView
		return m, m.refreshMarkers()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = MarkerListView
	}
	return m, nil
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.cancelRun != nil {
			m.cancelRun()
		}
	}
	return m, nil
}

func (m *Model) handleDismissKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.back):
		m.view = MarkerListView
		m.result = nil
		m.runErr = nil
	}
	return m, nil
}

func (m *Model) handleListsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MarkerListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.listsList.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		markers, err := m.store.LoadList(item.summary.Name)
		m.setStatus(fmt.Sprintf("Loaded %q (%d places)", item.summary.Name, len(markers)), err)
		m.view = MarkerListView
		return m, m.refreshMarkers()
	case key.Matches(msg, m.keys.drop):
		item, ok := m.listsList.SelectedItem().(listItem)
		if !ok {
			return m, nil
		}
		err := m.store.DeleteList(item.summary.Name)
		m.setStatus(fmt.Sprintf("Deleted list %q", item.summary.Name), err)
		return m, m.refreshLists()
	}

	var cmd tea.Cmd
	m.listsList, cmd = m.listsList.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MarkerListView:
		m.markerList, cmd = m.markerList.Update(msg)
	case ListsView:
		m.listsList, cmd = m.listsList.Update(msg)
	case InputView:
		if m.mode == ExtractInput {
			m.text, cmd = m.text.Update(msg)
		} else {
			m.input, cmd = m.input.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) openInput(mode InputMode) tea.Cmd {
	m.mode = mode
	m.view = InputView
	m.err = nil
	m.status = ""

	if mode == ExtractInput {
		m.text.Reset()
		m.text.Placeholder = mode.prompt()
		return m.text.Focus()
	}
	m.input.Reset()
	m.input.Placeholder = mode.placeholder()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.input.Blur()
	m.text.Blur()
	m.view = MarkerListView
}

// submit dispatches the typed value for the current input mode.
func (m *Model) submit(value string) tea.Cmd {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	m.closeInput()

	switch m.mode {
	case AskInput:
		return m.startRun(func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
			return m.pipeline.Ask(ctx, value, progress)
		})
	case ExtractInput:
		return m.startRun(func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
			return m.pipeline.ExtractAndRun(ctx, value, progress)
		})
	case SearchInput:
		return m.startRun(func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
			return m.pipeline.Run(ctx, []string{value}, progress)
		})
	case SaveInput:
		list, err := m.store.SaveAsList(value)
		if err != nil {
			m.setStatus("", err)
			return nil
		}
		m.setStatus(fmt.Sprintf("Saved list %q (%d places)", list.Name, len(list.Markers)), nil)
	}
	return nil
}

// startRun executes run in the background and streams its progress into the model.
func (m *Model) startRun(run runFunc) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan runOutcome, 1)

	m.progressChan = progress
	m.doneChan = done
	m.cancelRun = cancel
	m.progress = tasks.ProgressUpdate{}
	m.view = ProgressView

	go func() {
		result, err := run(ctx, progress)
		done <- runOutcome{result: result, err: err}
		close(progress)
	}()

	return waitForProgress(progress, done)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan runOutcome) tea.Cmd {
	return func() tea.Msg {
		if progress != nil {
			if update, ok := <-progress; ok {
				return progressUpdateMsg(update)
			}
		}
		if done == nil {
			return runCompleteMsg(nil, nil)
		}
		out := <-done
		return runCompleteMsg(out.result, out.err)
	}
}

func (m *Model) removeSelected() tea.Cmd {
	marker, ok := m.selectedMarker()
	if !ok {
		return nil
	}
	err := m.store.Remove(marker.ID)
	m.setStatus(fmt.Sprintf("Removed %s", marker.Name), err)
	return m.refreshMarkers()
}

func (m *Model) open(marker models.Marker) tea.Cmd {
	url := marker.GoogleMapsURL()
	return func() tea.Msg {
		return actionDoneMsg("Opened "+marker.Name+" in the browser", m.openURL(url))
	}
}

func (m *Model) copy(marker models.Marker) tea.Cmd {
	text := marker.Summary()
	return func() tea.Msg {
		return actionDoneMsg("Copied "+marker.Name+" to the clipboard", m.copyText(text))
	}
}

func (m *Model) selectedMarker() (models.Marker, bool) {
	item, ok := m.markerList.SelectedItem().(markerItem)
	if !ok {
		return models.Marker{}, false
	}
	return item.marker, true
}

func (m *Model) refreshMarkers() tea.Cmd {
	markers := m.store.Markers()
	items := make([]list.Item, len(markers))
	for i, marker := range markers {
		items[i] = markerItem{marker: marker}
	}
	m.markerList.Title = fmt.Sprintf("Markers (%d)", len(markers))
	return m.markerList.SetItems(items)
}

func (m *Model) refreshLists() tea.Cmd {
	summaries := m.store.Lists()
	items := make([]list.Item, len(summaries))
	for i, s := range summaries {
		items[i] = listItem{summary: s}
	}
	return m.listsList.SetItems(items)
}

func (m *Model) setStatus(status string, err error) {
	m.err = err
	if err != nil {
		m.status = ""
		return
	}
	m.status = status
}

func (m *Model) resize() {
	w, h := max(m.width-4, 20), max(m.height-8, 5)
	m.markerList.SetSize(w, h)
	m.listsList.SetSize(w, h)
	m.input.Width = w
	m.text.SetWidth(w)
	m.text.SetHeight(min(h, 10))
	m.bar.Width = min(w, 60)
}

func (m *Model) statusLine() string {
	switch {
	case m.err != nil:
		return styles.err.Render("Error: " + shared.UserMessage(m.err))
	case m.status != "":
		return styles.ok.Render(m.status)
	default:
		return ""
	}
}

func (m *Model) renderMarkerList() string {
	helpKeys := []key.Binding{
		m.keys.ask, m.keys.extract, m.keys.search, m.keys.remove, m.keys.clear,
		m.keys.open, m.keys.copy, m.keys.save, m.keys.lists, m.keys.viewport, m.keys.quit,
	}
	helpView := m.help.ShortHelpView(helpKeys)

	body := m.markerList.View()
	if m.store.Len() == 0 {
		body = styles.title.Render("Markers (0)") + "\n" + styles.help.Render("No markers yet. Press / to search or a to ask.")
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, m.statusLine(), helpView)
}

func (m *Model) renderInput() string {
	title := styles.title.Render(m.mode.prompt())

	var field string
	var helpKeys []key.Binding
	if m.mode == ExtractInput {
		field = m.text.View()
		helpKeys = []key.Binding{m.keys.submit, m.keys.back}
	} else {
		field = m.input.View()
		submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
		helpKeys = []key.Binding{submit, m.keys.back}
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, field, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Remove all %d markers?", m.store.Len()))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s", title, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Finding places")

	var phase string
	switch m.progress.Phase {
	case tasks.Interpret:
		phase = "Asking the language model..."
	case tasks.Extract:
		phase = "Extracting places from text..."
	case tasks.Resolve:
		phase = fmt.Sprintf("Resolving places (%d/%d)", m.progress.Step, m.progress.Total)
		if m.progress.Total > 0 {
			phase += "\n" + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
		}
	case tasks.Complete:
		phase = "Done"
	default:
		phase = "Working..."
	}

	cancel := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, phase, m.progress.Message, m.help.ShortHelpView([]key.Binding{cancel}))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.result == nil {
		msg := "No result available"
		if m.runErr != nil {
			msg = "Run failed: " + shared.UserMessage(m.runErr)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	title := styles.ok.Render(fmt.Sprintf("✓ Added %d of %d places", len(m.result.Added), m.result.Total))
	if m.runErr != nil {
		title = styles.warn.Render(fmt.Sprintf("Stopped after adding %d of %d places: %s",
			len(m.result.Added), m.result.Total, shared.UserMessage(m.runErr)))
	}

	var b strings.Builder
	for _, marker := range m.result.Added {
		fmt.Fprintf(&b, "\n  %s %s", Pin(marker.Category()), marker.Name)
	}
	if notice := m.result.Notice(); notice != "" {
		b.WriteString("\n\n" + styles.warn.Render(notice))
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, b.String(), helpView)
}

func (m *Model) renderLists() string {
	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load")),
		m.keys.drop, m.keys.back, m.keys.quit,
	}
	body := m.listsList.View()
	if len(m.listsList.Items()) == 0 {
		body = styles.title.Render("Saved lists") + "\n" + styles.help.Render("No saved lists. Press s in the marker view to save one.")
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, m.statusLine(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderViewport() string {
	vp := geo.Fit(m.store.Markers(), m.mapCfg)
	title := styles.title.Render("Viewport")

	info := fmt.Sprintf("Center: %s\nZoom: %d", vp.Center.String(), vp.Zoom)
	if vp.Bounds != nil {
		info += fmt.Sprintf("\nSouth-west: %s\nNorth-east: %s", vp.Bounds.SouthWest.String(), vp.Bounds.NorthEast.String())
	}

	counts := map[models.Category]int{}
	var order []models.Category
	for _, marker := range m.store.Markers() {
		c := marker.Category()
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	var legend strings.Builder
	for _, c := range order {
		fmt.Fprintf(&legend, "\n%s %d", CategoryBadge(c), counts[c])
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info, legend.String(), helpView)
}
