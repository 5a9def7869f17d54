// Package tui renders batch evaluation progress in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/qaeval/internal/evaluation"
	"github.com/mwiater/qaeval/internal/util"
)

const maxBarWidth = 60

// progressMsg carries one runner progress update into the program.
type progressMsg evaluation.Progress

// doneMsg signals that the batch has finished.
type doneMsg struct {
	err error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// batchModel is the Bubble Tea model for one batch run.
type batchModel struct {
	title     string
	total     int
	completed int
	failed    int
	lastLine  string
	done      bool
	cancelled bool
	err       error
	started   time.Time
	cancel    context.CancelFunc
	spinner   spinner.Model
	progress  progress.Model
}

func newBatchModel(title string, total int, cancel context.CancelFunc) *batchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return &batchModel{
		title:    title,
		total:    total,
		started:  time.Now(),
		cancel:   cancel,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m *batchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > maxBarWidth {
			width = maxBarWidth
		}
		if width > 0 {
			m.progress.Width = width
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			// Remaining records are recorded as failures; wait for doneMsg.
			if !m.cancelled && m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
		}
		return m, nil

	case progressMsg:
		m.completed = msg.Completed
		if msg.Total > 0 {
			m.total = msg.Total
		}
		if msg.Failed {
			m.failed++
			m.lastLine = failStyle.Render(fmt.Sprintf("⚠ %d/%d 건 오류: %s", msg.Completed, m.total, util.Preview(msg.Err, 80)))
		} else {
			m.lastLine = okStyle.Render(fmt.Sprintf("✅ %d/%d 건 완료", msg.Completed, m.total))
		}
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *batchModel) fraction() float64 {
	return evaluation.Progress{Completed: m.completed, Total: m.total}.Fraction()
}

func (m *batchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(m.fraction()))
	fmt.Fprintf(&b, "  %d/%d\n", m.completed, m.total)
	if m.lastLine != "" {
		b.WriteString(m.lastLine)
		b.WriteString("\n")
	}

	elapsed := time.Since(m.started).Round(time.Second)
	switch {
	case m.done:
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("완료: 실패 %d건, 소요 %s", m.failed, elapsed)))
	case m.cancelled:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), mutedStyle.Render("취소 중..."))
	default:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), mutedStyle.Render(fmt.Sprintf("평가 중... %s (ctrl+c 취소)", elapsed)))
	}
	return b.String()
}

// Work is a batch body that reports progress through onProgress.
type Work func(ctx context.Context, onProgress func(evaluation.Progress)) error

// RunBatch runs work on its own goroutine and shows its progress until it
// returns. Cancelling from the keyboard cancels the context handed to work.
func RunBatch(ctx context.Context, title string, total int, work Work, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newBatchModel(title, total, cancel)
	p := tea.NewProgram(m, opts...)

	go func() {
		err := work(ctx, func(pr evaluation.Progress) {
			p.Send(progressMsg(pr))
		})
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress display: %w", err)
	}
	if fm, ok := final.(*batchModel); ok {
		return fm.err
	}
	return nil
}
