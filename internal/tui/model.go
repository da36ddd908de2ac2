// Package tui is the interactive taskflow dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/notify"
	"github.com/adanyl0v/taskflow/internal/prefs"
	"github.com/adanyl0v/taskflow/internal/session"
	"github.com/adanyl0v/taskflow/internal/tasks"
)

const (
	noticeTTL      = 4 * time.Second
	reminderTTL    = 10 * time.Second
	reminderPeriod = 30 * time.Second
	tickPeriod     = time.Second
)

type Gate interface {
	Watch() (session.Snapshot, <-chan struct{})
}

type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, params auth.SignUpParams) (*auth.Session, error)
	SignOut(ctx context.Context) error
}

type Deps struct {
	Gate        Gate
	Auth        Auth
	Syncer      *tasks.Syncer
	Prefs       *prefs.Preferences
	Reminders   *notify.Notifier
	Notices     <-chan tasks.Notice
	RedirectURL string
	Logger      zerolog.Logger
}

type mode int

const (
	modeAuth mode = iota
	modeList
	modeAdd
	modeEdit
	modeConfirmDelete
)

type (
	gateMsg     struct{}
	noticeMsg   tasks.Notice
	tickMsg     time.Time
	authDoneMsg struct{ err error }
	opDoneMsg   struct{ err error }

	signOutDoneMsg struct{ err error }
	reminderErrMsg struct{ err error }
)

type Model struct {
	ctx  context.Context
	deps Deps
	now  func() time.Time

	snapshot session.Snapshot
	changed  <-chan struct{}

	mode    mode
	filter  tasks.Filter
	cursor  int
	signUp  bool
	busy    bool
	formErr string

	inputs    []textinput.Model
	focus     int
	editingID string
	deleting  *models.Task

	notice        *tasks.Notice
	noticeAt      time.Time
	reminder      *notify.Reminder
	reminderAt    time.Time
	lastReminders time.Time

	width  int
	styles styles
}

func New(ctx context.Context, deps Deps) Model {
	snapshot, changed := deps.Gate.Watch()
	m := Model{
		ctx:      ctx,
		deps:     deps,
		now:      time.Now,
		snapshot: snapshot,
		changed:  changed,
		filter:   tasks.FilterAll,
		styles:   newStyles(deps.Prefs.Theme()),
	}
	m.enterModeForSession()
	return m
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	program := tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitGate(m.changed),
		listenNotices(m.ctx, m.deps.Notices),
		tick(),
		textinput.Blink,
	)
}

func waitGate(changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changed
		return gateMsg{}
	}
}

func listenNotices(ctx context.Context, notices <-chan tasks.Notice) tea.Cmd {
	if notices == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case n := <-notices:
			return noticeMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickPeriod, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case gateMsg:
		m.snapshot, m.changed = m.deps.Gate.Watch()
		m.enterModeForSession()
		m.checkReminders(true)
		return m, tea.Batch(waitGate(m.changed), m.markReminderCmd())

	case noticeMsg:
		n := tasks.Notice(msg)
		m.notice = &n
		m.noticeAt = m.now()
		return m, listenNotices(m.ctx, m.deps.Notices)

	case tickMsg:
		if m.notice != nil && m.now().Sub(m.noticeAt) > noticeTTL {
			m.notice = nil
		}
		if m.reminder != nil && m.now().Sub(m.reminderAt) > reminderTTL {
			m.reminder = nil
		}
		m.checkReminders(false)
		return m, tea.Batch(tick(), m.markReminderCmd())

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.formErr = msg.err.Error()
		}
		return m, nil

	case reminderErrMsg:
		m.notice = &tasks.Notice{
			Level:       tasks.NoticeError,
			Title:       "Reminder",
			Description: fmt.Sprintf("could not remember reminder: %v", msg.err),
		}
		m.noticeAt = m.now()
		return m, nil

	case signOutDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = &tasks.Notice{
				Level:       tasks.NoticeError,
				Title:       "Sign out failed",
				Description: msg.err.Error(),
			}
			m.noticeAt = m.now()
		}
		return m, nil

	case opDoneMsg:
		m.busy = false
		m.clampCursor()
		if msg.err != nil && errors.Is(msg.err, tasks.ErrEmptyTitle) {
			m.formErr = "Task title is required"
		}
		m.checkReminders(true)
		return m, m.markReminderCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAuth:
			return m.updateAuth(msg)
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, m.updateFocusedInput(msg)
}

func (m *Model) enterModeForSession() {
	switch m.snapshot.State {
	case session.StateAuthenticated:
		if m.mode == modeAuth {
			m.mode = modeList
			m.inputs = nil
			m.formErr = ""
		}
	case session.StateAnonymous:
		if m.mode != modeAuth || m.inputs == nil {
			m.mode = modeAuth
			m.signUp = false
			m.reminder = nil
			m.resetAuthInputs()
		}
	default:
		if m.inputs == nil {
			m.resetAuthInputs()
		}
	}
}

func (m *Model) resetAuthInputs() {
	email := newInput("Email", 255)
	password := newInput("Password", 255)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	m.inputs = []textinput.Model{email, password}
	if m.signUp {
		m.inputs = append(m.inputs, newInput("Name", 255))
	}
	m.setFocus(0)
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

func (m *Model) setFocus(i int) {
	if len(m.inputs) == 0 {
		return
	}
	m.focus = wrapIndex(i, len(m.inputs))
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m Model) value(i int) string {
	if i >= len(m.inputs) {
		return ""
	}
	return m.inputs[i].Value()
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy || m.snapshot.State != session.StateAnonymous {
		if msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case "ctrl+s":
		email, password := m.value(0), m.value(1)
		m.signUp = !m.signUp
		m.formErr = ""
		m.resetAuthInputs()
		m.inputs[0].SetValue(email)
		m.inputs[1].SetValue(password)
		return m, nil
	case "enter":
		email, password := strings.TrimSpace(m.value(0)), m.value(1)
		if email == "" || password == "" {
			m.formErr = "Email and password are required"
			return m, nil
		}
		m.busy = true
		m.formErr = ""
		return m, m.authCmd(email, password, strings.TrimSpace(m.value(2)))
	}

	return m, m.updateFocusedInput(msg)
}

func (m Model) authCmd(email, password, name string) tea.Cmd {
	ctx, deps, signUp := m.ctx, m.deps, m.signUp
	return func() tea.Msg {
		var err error
		if signUp {
			_, err = deps.Auth.SignUp(ctx, auth.SignUpParams{
				Email:       email,
				Password:    password,
				Name:        name,
				RedirectURL: deps.RedirectURL,
			})
		} else {
			_, err = deps.Auth.SignInWithPassword(ctx, email, password)
		}
		return authDoneMsg{err: err}
	}
}

func (m Model) visible() []models.Task {
	return m.deps.Syncer.Store().Project(m.filter)
}

func (m *Model) clampCursor() {
	m.cursor = clamp(m.cursor, len(m.visible()))
}

func (m Model) selected() (models.Task, bool) {
	list := m.visible()
	if len(list) == 0 {
		return models.Task{}, false
	}
	return list[clamp(m.cursor, len(list))], true
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.cursor = clamp(m.cursor+1, len(m.visible()))
	case "k", "up":
		m.cursor = clamp(m.cursor-1, len(m.visible()))
	case "1", "2", "3":
		m.filter = tasks.Filters[int(msg.String()[0]-'1')]
		m.clampCursor()
	case "tab":
		i := 0
		for j, f := range tasks.Filters {
			if f == m.filter {
				i = j
			}
		}
		m.filter = tasks.Filters[wrapIndex(i+1, len(tasks.Filters))]
		m.clampCursor()
	case "a":
		m.mode = modeAdd
		m.formErr = ""
		m.inputs = []textinput.Model{
			newInput("What needs to be done?", 255),
			newInput("Due: tomorrow, +2h, 2026-11-01 (empty: in 24h)", 64),
		}
		m.setFocus(0)
	case "e", "enter":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEdit
		m.formErr = ""
		m.editingID = task.ID
		m.inputs = []textinput.Model{
			newInput("Title", 255),
			newInput("Due (empty: now)", 64),
		}
		m.inputs[0].SetValue(task.Title)
		m.inputs[1].SetValue(tasks.FormatDue(task.DueDate))
		m.setFocus(0)
	case " ", "x":
		task, ok := m.selected()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.opCmd(func(ctx context.Context, s *tasks.Syncer) error {
			return s.ToggleComplete(ctx, task.ID, !task.Completed)
		})
	case "d", "delete":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.deleting = &task
		m.mode = modeConfirmDelete
	case "t":
		theme, err := m.deps.Prefs.ToggleTheme(m.ctx)
		if err != nil {
			m.deps.Logger.Error().
				Err(err).
				Msg("failed to save theme")
		}
		m.styles = newStyles(theme)
	case "r":
		m.reminder = nil
		m.checkReminders(true)
		return m, m.markReminderCmd()
	case "L":
		if m.busy {
			return m, nil
		}
		m.busy = true
		ctx, deps := m.ctx, m.deps
		return m, func() tea.Msg {
			return signOutDoneMsg{err: deps.Auth.SignOut(ctx)}
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.inputs = nil
		m.formErr = ""
		return m, nil
	case "tab", "shift+tab", "down", "up":
		m.setFocus(m.focus + 1)
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		return m.submitForm()
	}
	return m, m.updateFocusedInput(msg)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	title := m.value(0)
	if strings.TrimSpace(title) == "" {
		m.formErr = "Task title is required"
		return m, nil
	}
	due, err := tasks.ParseDue(m.value(1), m.now())
	if err != nil {
		m.formErr = err.Error()
		return m, nil
	}

	var op func(ctx context.Context, s *tasks.Syncer) error
	if m.mode == modeAdd {
		op = func(ctx context.Context, s *tasks.Syncer) error {
			_, err := s.Create(ctx, tasks.CreateInput{Title: title, DueDate: due})
			return err
		}
	} else {
		id := m.editingID
		op = func(ctx context.Context, s *tasks.Syncer) error {
			return s.Edit(ctx, id, tasks.EditInput{Title: title, DueDate: due})
		}
	}

	m.mode = modeList
	m.inputs = nil
	m.formErr = ""
	m.editingID = ""
	m.busy = true
	return m, m.opCmd(op)
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task := m.deleting

	switch msg.String() {
	case "y", "Y":
		if task != nil && m.busy {
			// Stay on the prompt until the running operation finishes.
			m.notice = &tasks.Notice{
				Level:       tasks.NoticeInfo,
				Title:       "Please wait",
				Description: "another change is still being saved",
			}
			m.noticeAt = m.now()
			return m, nil
		}
		m.deleting = nil
		m.mode = modeList
		if task == nil {
			return m, nil
		}
		m.busy = true
		id := task.ID
		return m, m.opCmd(func(ctx context.Context, s *tasks.Syncer) error {
			return s.Delete(ctx, id)
		})
	}

	m.deleting = nil
	m.mode = modeList
	return m, nil
}

// opCmd runs a task operation off the UI loop. The syncer reports the
// outcome through the notice channel.
func (m Model) opCmd(op func(ctx context.Context, s *tasks.Syncer) error) tea.Cmd {
	ctx, syncer := m.ctx, m.deps.Syncer
	return func() tea.Msg {
		return opDoneMsg{err: op(ctx, syncer)}
	}
}

func (m *Model) checkReminders(force bool) {
	if m.snapshot.State != session.StateAuthenticated || m.reminder != nil {
		return
	}
	now := m.now()
	if !force && now.Sub(m.lastReminders) < reminderPeriod {
		return
	}
	m.lastReminders = now

	pending := m.deps.Reminders.Pending(m.deps.Syncer.Store().Tasks(), now)
	if len(pending) > 0 {
		r := pending[0]
		m.reminder = &r
		m.reminderAt = now
	}
}

func (m Model) markReminderCmd() tea.Cmd {
	if m.reminder == nil || m.deps.Prefs.WasShown(m.reminder.ID) {
		return nil
	}
	ctx, reminders, r := m.ctx, m.deps.Reminders, *m.reminder
	return func() tea.Msg {
		if err := reminders.MarkShown(ctx, r); err != nil {
			return reminderErrMsg{err: err}
		}
		return nil
	}
}

func clamp(cur, n int) int {
	if n <= 0 || cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
