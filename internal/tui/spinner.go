package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

type workDoneMsg struct{ err error }

// spinnerModel shows a spinner while work runs in the background.
type spinnerModel struct {
	spinner spinner.Model
	title   string
	work    func() error
	cancel  context.CancelFunc
	done    bool
	err     error
	styles  Styles
}

func newSpinnerModel(title string, work func() error, cancel context.CancelFunc) spinnerModel {
	styles := DefaultStyles()
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Title)),
		title:   title,
		work:    work,
		cancel:  cancel,
		styles:  styles,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return workDoneMsg{err: work()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			m.err = errors.New(errors.ErrCodeInternal, "interrupted")
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + m.styles.Muted.Render(" (ctrl+c to cancel)") + "\n"
}

// RunWithSpinner runs work while a spinner is drawn on out. Without a
// terminal it simply runs work.
func RunWithSpinner(ctx context.Context, out io.Writer, title string, work func(ctx context.Context) error) error {
	if !IsInteractive() {
		return work(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newSpinnerModel(title, func() error { return work(ctx) }, cancel)
	final, err := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx)).Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeInternal, "spinner failed", err)
	}
	return final.(spinnerModel).err
}
