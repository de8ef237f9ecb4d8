package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/tasks"
)

const maxLogLines = 8

// updateMsg wraps one engine progress update.
type updateMsg tasks.ProgressUpdate

// reportMsg carries the final run report once every target resolved.
type reportMsg *models.RunReport

// Model represents the progress view state.
type Model struct {
	updates    <-chan tasks.ProgressUpdate
	reports    <-chan *models.RunReport
	cancel     context.CancelFunc
	spinner    spinner.Model
	bar        progress.Model
	help       help.Model
	keys       keyMap
	current    tasks.ProgressUpdate
	lines      []string
	width      int
	cancelling bool
	done       bool
	report     *models.RunReport
}

// NewModel creates the progress view. The engine goroutine feeds updates and
// sends exactly one report when the run completes; cancel stops the run.
func NewModel(cancel context.CancelFunc, updates <-chan tasks.ProgressUpdate, reports <-chan *models.RunReport) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title

	return Model{
		updates: updates,
		reports: reports,
		cancel:  cancel,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and the first channel read.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForActivity())
}

// waitForActivity blocks on the next progress update or, once the update
// channel closes, on the final report.
func (m Model) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case update, ok := <-m.updates:
				if !ok {
					return reportMsg(<-m.reports)
				}
				return updateMsg(update)
			case report := <-m.reports:
				return reportMsg(report)
			}
		}
	}
}

// Update handles messages from the engine and the terminal.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 4
		if barWidth > 60 {
			barWidth = 60
		}
		if barWidth > 0 {
			m.bar.Width = barWidth
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			if m.done {
				return m, tea.Quit
			}
			m.cancel()
			m.cancelling = true
			return m, nil
		case key.Matches(msg, m.keys.cancel):
			if !m.done {
				m.cancel()
				m.cancelling = true
			}
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case updateMsg:
		m.current = tasks.ProgressUpdate(msg)
		m.lines = append(m.lines, m.current.Message)
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		var cmds []tea.Cmd
		if m.current.Phase == models.PhaseExecuting && m.current.Total > 0 {
			cmds = append(cmds, m.bar.SetPercent(float64(m.current.Step)/float64(m.current.Total)))
		}
		cmds = append(cmds, m.waitForActivity())
		return m, tea.Batch(cmds...)

	case reportMsg:
		m.done = true
		m.report = msg
		return m, nil
	}

	return m, nil
}

// View renders the progress view.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("ytsync"))
	b.WriteString("\n")

	if m.done {
		m.renderReport(&b)
		b.WriteString("\n")
		b.WriteString(styles.help.Render("press q to quit"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	if m.cancelling {
		b.WriteString(styles.warn.Render("cancelling..."))
	} else if m.current.Message != "" {
		b.WriteString(m.current.Message)
	} else {
		b.WriteString("starting sync...")
	}
	b.WriteString("\n\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderReport(b *strings.Builder) {
	if m.report == nil {
		b.WriteString(styles.err.Render("no report produced"))
		b.WriteString("\n")
		return
	}

	if m.report.Failed() {
		b.WriteString(styles.err.Render("Sync finished with failures"))
	} else {
		b.WriteString(styles.ok.Render("Sync complete"))
	}
	b.WriteString("\n\n")

	var body strings.Builder
	if err := formatter.RenderReport(&body, m.report); err == nil {
		b.WriteString(body.String())
	}
}
