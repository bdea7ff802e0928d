package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunefeed/internal/feed"
	"github.com/desertthunder/tunefeed/internal/gesture"
	"github.com/desertthunder/tunefeed/internal/player"
	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/session"
	"github.com/desertthunder/tunefeed/internal/shared"
)

type ViewState int

const (
	LoginView ViewState = iota
	FeedView
	QueueView
)

const (
	tickInterval = 100 * time.Millisecond
	// wheelStep approximates the scroll distance of one terminal wheel notch.
	wheelStep = 40.0
	// rowPixels converts terminal rows to gesture distance for drags.
	rowPixels = 30.0
)

type (
	tickMsg    time.Time
	sessionMsg session.Snapshot

	loginMsg struct {
		user *services.User
		err  error
	}
	feedMsg struct {
		err error
	}
)

// Model wires the session store, feed controller, playback engine and gesture
// navigator into a single bubbletea program.
type Model struct {
	ctx        context.Context
	logger     *log.Logger
	store      *session.Store
	scheduler  *session.Scheduler
	controller *feed.Controller
	engine     *player.Engine
	analyzer   *player.Analyzer
	navigator  *gesture.Navigator

	sessionChan chan session.Snapshot

	view     ViewState
	keys     keyMap
	help     help.Model
	username textinput.Model
	password textinput.Model
	queue    list.Model
	width    int
	height   int
	dragging bool
	errMsg   string
}

func NewModel(ctx context.Context, store *session.Store, scheduler *session.Scheduler, controller *feed.Controller, engine *player.Engine, analyzer *player.Analyzer, navigator *gesture.Navigator, logger *log.Logger) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	queue := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	queue.Title = "Queue"
	queue.SetShowHelp(false)

	view := LoginView
	if store.LoggedIn() {
		view = FeedView
	}

	sessionChan := make(chan session.Snapshot, 1)
	store.Subscribe(func(snap session.Snapshot) {
		select {
		case sessionChan <- snap:
		default:
		}
	})
	return Model{
		ctx:        ctx,
		logger:     logger,
		store:      store,
		scheduler:  scheduler,
		controller: controller,
		engine:     engine,
		analyzer:   analyzer,
		navigator:  navigator,
		view:       view,
		keys:       newKeyMap(),
		help:       help.New(),
		username:    username,
		password:    password,
		queue:       queue,
		sessionChan: sessionChan,
	}
}

func (m Model) Init() tea.Cmd {
	if m.view == FeedView {
		return tea.Batch(m.loadFeed(), m.tick(), m.waitForSession())
	}
	return tea.Batch(textinput.Blink, m.tick(), m.waitForSession())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.SetSize(msg.Width-2, msg.Height-4)
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKey(msg)
		case FeedView:
			return m.handleFeedKey(msg)
		case QueueView:
			return m.handleQueueKey(msg)
		}
	case loginMsg:
		return m.handleLogin(msg)
	case feedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		return m, nil
	case sessionMsg:
		if !msg.LoggedIn && m.view != LoginView {
			m.view = LoginView
			m.errMsg = "session expired, sign in again"
			m.username.Focus()
		}
		return m, m.waitForSession()
	case tickMsg:
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down", "up":
		if m.username.Focused() {
			m.username.Blur()
			m.password.Focus()
		} else {
			m.password.Blur()
			m.username.Focus()
		}
		return m, textinput.Blink
	case "enter":
		if m.username.Value() == "" || m.password.Value() == "" {
			m.errMsg = "username and password are required"
			return m, nil
		}
		m.errMsg = ""
		return m, m.login(m.username.Value(), m.password.Value())
	}
	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.down):
		m.controller.Advance(m.ctx)
	case key.Matches(msg, m.keys.up):
		m.controller.Retreat(m.ctx)
	case key.Matches(msg, m.keys.toggle):
		if m.engine != nil {
			if err := m.engine.Toggle(); err != nil {
				m.errMsg = err.Error()
			}
		}
	case key.Matches(msg, m.keys.mute):
		if m.engine != nil {
			if m.engine.State().Muted {
				m.engine.Unmute()
			} else {
				m.engine.Mute()
			}
		}
	case key.Matches(msg, m.keys.repeat):
		if m.engine != nil {
			m.engine.CycleRepeat()
		}
	case key.Matches(msg, m.keys.volUp):
		if m.engine != nil {
			m.engine.AdjustVolume(0.05)
		}
	case key.Matches(msg, m.keys.volDn):
		if m.engine != nil {
			m.engine.AdjustVolume(-0.05)
		}
	case key.Matches(msg, m.keys.queue):
		m.syncQueue()
		m.view = QueueView
	}
	return m, nil
}

func (m Model) handleQueueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.queue):
		m.view = FeedView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.controller.Jump(m.ctx, m.queue.Index()) {
			m.view = FeedView
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.view != FeedView {
		return m, nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		m.applyDirection(m.navigator.Wheel(wheelStep))
	case msg.Button == tea.MouseButtonWheelUp:
		m.applyDirection(m.navigator.Wheel(-wheelStep))
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.navigator.DragStart(float64(msg.Y) * rowPixels)
		m.dragging = true
	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.applyDirection(m.navigator.DragEnd(float64(msg.Y) * rowPixels))
		m.dragging = false
	}
	return m, nil
}

func (m *Model) applyDirection(dir gesture.Direction) {
	switch dir {
	case gesture.Next:
		m.controller.Advance(m.ctx)
	case gesture.Prev:
		m.controller.Retreat(m.ctx)
	}
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errMsg = "login failed"
		m.password.SetValue("")
		return m, nil
	}
	m.errMsg = ""
	m.view = FeedView
	m.scheduler.Start()
	return m, m.loadFeed()
}

func (m *Model) syncQueue() {
	snap := m.controller.Snapshot()
	items := make([]list.Item, len(snap.Queue))
	for i, track := range snap.Queue {
		items[i] = trackItem{track: track}
	}
	m.queue.SetItems(items)
	m.queue.Select(snap.Index)
}

func (m Model) login(username, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := m.store.Login(m.ctx, username, password)
		return loginMsg{user: user, err: err}
	}
}

func (m Model) loadFeed() tea.Cmd {
	return func() tea.Msg {
		return feedMsg{err: m.controller.LoadFirstPage(m.ctx)}
	}
}

func (m Model) waitForSession() tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(<-m.sessionChan)
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case QueueView:
		return m.renderQueue()
	default:
		return m.renderFeed()
	}
}

func (m Model) renderLogin() string {
	view := styles.title.Render("tunefeed") + "\n"
	view += m.username.View() + "\n"
	view += m.password.View() + "\n\n"
	if m.errMsg != "" {
		view += styles.err.Render(m.errMsg) + "\n"
	}
	view += styles.help.Render("enter to sign in • ctrl+c to quit")
	return view
}

func (m Model) renderFeed() string {
	track, ok := m.controller.Current()
	if !ok {
		return styles.title.Render("tunefeed") + "\n" +
			styles.dim.Render("loading feed...")
	}
	snap := m.controller.Snapshot()

	view := styles.title.Render(track.Title) + "\n"
	view += styles.dim.Render(track.ArtistName) + "\n\n"
	view += m.renderVisualizer() + "\n"
	view += m.renderStatus(track, snap) + "\n\n"
	if m.errMsg != "" {
		view += styles.warn.Render(m.errMsg) + "\n"
	}
	view += m.help.FullHelpView(m.keys.FullHelp())
	return view
}

func (m Model) renderStatus(track services.Track, snap feed.Snapshot) string {
	place := fmt.Sprintf("%d/%d", snap.Index+1, len(snap.Queue))
	if m.engine == nil {
		return styles.dim.Render(fmt.Sprintf("%s • %s", place, shared.FormatDuration(track.Duration)))
	}
	state := m.engine.State()
	status := "▶"
	if !state.Playing {
		status = "⏸"
	}
	line := fmt.Sprintf("%s %s / %s • %s • repeat %s • vol %d%%",
		status,
		shared.FormatDuration(int(state.Position.Seconds())),
		shared.FormatDuration(track.Duration),
		place,
		state.Repeat,
		int(state.Volume*100),
	)
	if state.Muted {
		note := "muted"
		if state.MutedFallback {
			note = "muted, press m to unmute"
		}
		return styles.dim.Render(line) + " " + styles.warn.Render(note)
	}
	return styles.dim.Render(line)
}

func (m Model) renderQueue() string {
	return lipgloss.NewStyle().Margin(1, 1).Render(m.queue.View()) + "\n" +
		styles.help.Render("enter to play • esc to go back")
}
