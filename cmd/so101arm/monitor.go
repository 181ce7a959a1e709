package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/ankithreddypati/so101arm-mcp/pkg/config"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

type MonitorCommand struct {
	Hz int `long:"hz" default:"30" description:"Poll frequency"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Motor colors - distinct colors for each motor
var motorColors = map[robot.MotorName]string{
	robot.ShoulderPan:  "196", // red
	robot.ShoulderLift: "208", // orange
	robot.ElbowFlex:    "226", // yellow
	robot.WristFlex:    "46",  // green
	robot.WristRoll:    "51",  // cyan
	robot.Gripper:      "201", // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// armState is one poll of the arm.
type armState struct {
	Joints robot.JointVector
	Err    error
}

// poller reads joint positions at a fixed rate with torque disabled, so
// the arm can be posed by hand while watching the chart.
type poller struct {
	arm     *robot.Arm
	hz      int
	stateCh chan armState
	logCh   chan string
}

func newPoller(arm *robot.Arm, hz int) *poller {
	if hz <= 0 {
		hz = 30
	}
	return &poller{
		arm:     arm,
		hz:      hz,
		stateCh: make(chan armState, 1),
		logCh:   make(chan string, 10),
	}
}

func (p *poller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case p.logCh <- msg:
	default:
		// Drop if channel full
	}
}

func (p *poller) run(ctx context.Context) {
	if err := p.arm.Disable(ctx); err != nil {
		p.log("Warning: failed to disable torque: %v", err)
	} else {
		p.log("Torque disabled, move the arm by hand")
	}

	ticker := time.NewTicker(time.Second / time.Duration(p.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			joints, err := p.arm.ReadJoints(ctx)
			if err != nil {
				p.log("Read error: %v", err)
				continue
			}
			p.sendState(armState{Joints: joints})
		}
	}
}

func (p *poller) sendState(s armState) {
	select {
	case p.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-p.stateCh:
		default:
		}
		p.stateCh <- s
	}
}

type monitorModel struct {
	poller     *poller
	chart      *streamlinechart.Model
	width      int
	height     int
	logs       []string
	quitting   bool
	lastJoints robot.JointVector
}

type stateMsg armState
type logMsg string

func waitForState(p *poller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-p.stateCh)
	}
}

func waitForLog(p *poller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-p.logCh)
	}
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks whether any joint moved since the last poll, so the
// chart freezes when the arm is idle.
func (m *monitorModel) hasMovement(joints robot.JointVector) bool {
	if m.lastJoints == nil {
		return true
	}
	return !m.lastJoints.Equal(joints)
}

func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *monitorModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialMonitorModel(p *poller) monitorModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-100, 100),
	)

	for _, name := range robot.AllMotors() {
		color := motorColors[name]
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return monitorModel{
		poller: p,
		chart:  &chart,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.poller),
		waitForLog(m.poller),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := armState(msg)
		if state.Joints != nil && m.hasMovement(state.Joints) {
			for i, name := range robot.AllMotors() {
				m.chart.PushDataSet(string(name), state.Joints[i])
			}
			m.chart.DrawAll()
			m.lastJoints = state.Joints
		}
		return m, waitForState(m.poller)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.poller)
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("SO-101 Monitor"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.poller.hz))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, name := range robot.AllMotors() {
		color := motorColors[name]
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		item := colorStyle.Render("━━") + " " + string(name)
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func (c *MonitorCommand) Execute(args []string) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	arm, err := openArm(cfg)
	if err != nil {
		return err
	}
	defer arm.Close()

	p := newPoller(arm, c.Hz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.run(ctx)

	prog := tea.NewProgram(initialMonitorModel(p), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
