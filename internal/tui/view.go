package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/prefs"
	"github.com/adanyl0v/taskflow/internal/session"
	"github.com/adanyl0v/taskflow/internal/tasks"
)

type styles struct {
	title     lipgloss.Style
	subtle    lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	cursor    lipgloss.Style
	done      lipgloss.Style
	overdue   lipgloss.Style
	success   lipgloss.Style
	errText   lipgloss.Style
	box       lipgloss.Style
	reminder  lipgloss.Style
}

func newStyles(theme prefs.Theme) styles {
	fg, muted, accent, danger, ok := lipgloss.Color("#111827"), lipgloss.Color("#6B7280"),
		lipgloss.Color("#2563EB"), lipgloss.Color("#DC2626"), lipgloss.Color("#16A34A")
	if theme == prefs.ThemeDark {
		fg, muted, accent, danger, ok = lipgloss.Color("#F3F4F6"), lipgloss.Color("#9CA3AF"),
			lipgloss.Color("#60A5FA"), lipgloss.Color("#F87171"), lipgloss.Color("#4ADE80")
	}

	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(fg),
		subtle:    lipgloss.NewStyle().Foreground(muted),
		tab:       lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		activeTab: lipgloss.NewStyle().Bold(true).Foreground(accent).Underline(true).Padding(0, 1),
		cursor:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		done:      lipgloss.NewStyle().Foreground(muted).Strikethrough(true),
		overdue:   lipgloss.NewStyle().Foreground(danger),
		success:   lipgloss.NewStyle().Foreground(ok),
		errText:   lipgloss.NewStyle().Foreground(danger),
		box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
		reminder:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("TaskFlow"))
	if m.snapshot.User != nil {
		b.WriteString(m.styles.subtle.Render("  " + m.snapshot.User.Name + " <" + m.snapshot.User.Email + ">"))
	}
	b.WriteString("\n\n")

	switch {
	case m.snapshot.State == session.StateUnknown || m.snapshot.State == session.StateChecking:
		b.WriteString(m.styles.subtle.Render("Checking session..."))
		b.WriteString("\n")
	case m.mode == modeAuth:
		b.WriteString(m.viewAuth())
	default:
		b.WriteString(m.viewDashboard())
	}

	if m.notice != nil {
		b.WriteString("\n")
		b.WriteString(m.viewNotice(*m.notice))
	}
	return b.String()
}

func (m Model) viewAuth() string {
	var b strings.Builder

	heading, other := "Sign in", "ctrl+s: create an account"
	if m.signUp {
		heading, other = "Create an account", "ctrl+s: sign in instead"
	}
	b.WriteString(m.styles.title.Render(heading))
	b.WriteString("\n\n")

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.viewFormErr())

	if m.busy {
		b.WriteString(m.styles.subtle.Render("\nPlease wait..."))
	}
	b.WriteString(m.styles.subtle.Render("\nenter: submit · tab: next field · " + other + " · esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewFormErr() string {
	if m.formErr == "" {
		return ""
	}
	return m.styles.errText.Render(m.formErr) + "\n"
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	store := m.deps.Syncer.Store()
	counts := store.Counts()

	tabs := make([]string, len(tasks.Filters))
	for i, f := range tasks.Filters {
		label := fmt.Sprintf("%d %s (%d)", i+1, strings.ToUpper(string(f[:1]))+string(f[1:]), counts.Of(f))
		if f == m.filter {
			tabs[i] = m.styles.activeTab.Render(label)
		} else {
			tabs[i] = m.styles.tab.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	if m.reminder != nil {
		r := m.reminder
		b.WriteString(m.styles.reminder.Render(fmt.Sprintf("%s\n%s: %s (due %s)",
			r.Title, r.Description, r.Task.Title, tasks.FormatDue(r.Task.DueDate))))
		b.WriteString("\n\n")
	}

	switch {
	case store.Loading():
		b.WriteString(m.styles.subtle.Render("Loading tasks..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewTasks(m.visible()))
	}

	switch m.mode {
	case modeAdd, modeEdit:
		heading := "New task"
		if m.mode == modeEdit {
			heading = "Edit task"
		}
		form := m.styles.title.Render(heading) + "\n" +
			m.inputs[0].View() + "\n" + m.inputs[1].View() + "\n" +
			m.viewFormErr() +
			m.styles.subtle.Render("enter: save · tab: next field · esc: cancel")
		b.WriteString("\n")
		b.WriteString(m.styles.box.Render(form))
		b.WriteString("\n")
	case modeConfirmDelete:
		if m.deleting != nil {
			b.WriteString("\n")
			b.WriteString(m.styles.box.Render(fmt.Sprintf(
				"Delete %q? This action cannot be undone. (y/n)", m.deleting.Title)))
			b.WriteString("\n")
		}
	default:
		b.WriteString(m.styles.subtle.Render(
			"\na: add · space: toggle · e: edit · d: delete · 1-3/tab: filter · t: theme · r: reminders · L: sign out · q: quit"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewTasks(list []models.Task) string {
	if len(list) == 0 {
		msg := "No tasks yet. Press a to add one."
		switch m.filter {
		case tasks.FilterPending:
			msg = "No pending tasks."
		case tasks.FilterCompleted:
			msg = "No completed tasks."
		}
		return m.styles.subtle.Render(msg) + "\n"
	}

	now := m.now()
	cursor := clamp(m.cursor, len(list))

	var b strings.Builder
	for i, task := range list {
		prefix := "  "
		if i == cursor {
			prefix = m.styles.cursor.Render("> ")
		}

		check := "[ ]"
		title := task.Title
		due := "due " + tasks.FormatDue(task.DueDate)
		switch {
		case task.Completed:
			check = "[x]"
			title = m.styles.done.Render(title)
			due = m.styles.subtle.Render(due)
		case task.IsOverdue(now):
			title = m.styles.overdue.Render(title)
			due = m.styles.overdue.Render(due + " (overdue)")
		default:
			due = m.styles.subtle.Render(due)
		}

		fmt.Fprintf(&b, "%s%s %s  %s\n", prefix, check, title, due)
	}
	return b.String()
}

func (m Model) viewNotice(n tasks.Notice) string {
	text := n.Title
	if n.Description != "" {
		text += ": " + n.Description
	}
	switch n.Level {
	case tasks.NoticeError:
		return m.styles.errText.Render(text) + "\n"
	case tasks.NoticeSuccess:
		return m.styles.success.Render(text) + "\n"
	}
	return m.styles.subtle.Render(text) + "\n"
}
