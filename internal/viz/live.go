package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/stability"
)

const (
	graphWidth  = 90
	graphHeight = 14
	replayTicks = 600 // full trajectory sweeps past in ~20s at 30fps
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type tickMsg time.Time

// Model replays a completed run sample by sample.
type Model struct {
	res     *sim.Result
	rep     *stability.Report
	sep     []float64
	idx     int
	stride  int
	playing bool
}

// NewModel prepares a replay of a finished simulation.
func NewModel(res *sim.Result, rep *stability.Report) Model {
	sep := stability.Separations(res.Traj)
	stride := len(sep) / replayTicks
	if stride < 1 {
		stride = 1
	}
	return Model{res: res, rep: rep, sep: sep, stride: stride, playing: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.idx = 0
			m.playing = true
		case "right", "l":
			m.idx = min(m.idx+m.stride*10, len(m.sep)-1)
		case "left", "h":
			m.idx = max(m.idx-m.stride*10, 0)
		}
	case tickMsg:
		if m.playing && m.idx < len(m.sep)-1 {
			m.idx = min(m.idx+m.stride, len(m.sep)-1)
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	window := downsample(m.sep[:m.idx+1], graphWidth)
	data := [][]float64{window}
	if m.rep.Threshold != nil {
		flat := make([]float64, len(window))
		for i := range flat {
			flat[i] = *m.rep.Threshold
		}
		data = append(data, flat)
	}
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
	)

	t := float64(m.idx+1) * m.res.Dt
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	var status string
	if m.rep.Stable {
		status = okStyle.Render("STABLE")
	} else if m.rep.EscapeTime != nil && t >= *m.rep.EscapeTime {
		status = alertStyle.Render(fmt.Sprintf("ESCAPED at t=%.4g yr", *m.rep.EscapeTime))
	} else {
		status = valueStyle.Render("bound (escape ahead)")
	}

	stats := headerStyle.Render("exomoon replay") + "\n" +
		row("time", fmt.Sprintf("%.5g / %.5g yr", t, m.res.TEnd)) +
		row("dt", fmt.Sprintf("%.3e yr", m.res.Dt)) +
		row("separation", fmt.Sprintf("%.5g AU", m.sep[m.idx])) +
		row("hill radius", fmt.Sprintf("%.5g AU", m.res.State.RHill)) +
		row("max sep", fmt.Sprintf("%.5g AU", m.rep.MaxSeparation)) +
		row("status", status)

	help := helpStyle.Render("space pause · ←/→ seek · r restart · q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		stats,
		graphStyle.Render(graph),
		help,
	)
}

// Run blocks until the user quits the replay.
func Run(res *sim.Result, rep *stability.Report) error {
	p := tea.NewProgram(NewModel(res, rep))
	_, err := p.Run()
	return err
}
