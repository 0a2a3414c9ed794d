package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"isascan/internal/analysis"
)

type analyzeFunc func(context.Context) (*analysis.Report, error)

type analysisDoneMsg struct{}

// progressModel shows a spinner on stderr until done is closed or the
// user cancels.
type progressModel struct {
	spinner   spinner.Model
	label     string
	done      <-chan struct{}
	cancel    context.CancelFunc
	cancelled bool
	finished  bool
}

func newProgressModel(label string, done <-chan struct{}, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	return progressModel{spinner: s, label: label, done: done, cancel: cancel}
}

func (m progressModel) wait() tea.Msg {
	<-m.done
	return analysisDoneMsg{}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.wait, m.spinner.Tick)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisDoneMsg:
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			m.cancelled, m.finished = true, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	return fmt.Sprintf("%s Scanning %s...\n", m.spinner.View(), m.label)
}

// runProgram runs the spinner until it quits.
var runProgram = func(ctx context.Context, m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
	).Run()
}

// runWithProgress runs fn while a spinner is drawn on stderr. It returns
// only after fn has returned, so the caller may release what fn reads.
func runWithProgress(ctx context.Context, path string, fn analyzeFunc) (*analysis.Report, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		report *analysis.Report
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, err = fn(actx)
	}()

	final, runErr := runProgram(ctx, newProgressModel(filepath.Base(path), done, cancel))
	cancel()
	<-done

	switch {
	case runErr != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case runErr != nil:
		return nil, fmt.Errorf("progress: %w", runErr)
	}
	if fm, ok := final.(progressModel); ok && fm.cancelled {
		return nil, context.Canceled
	}
	return report, err
}
