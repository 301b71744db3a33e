package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robjsim/excel-csv-converter/internal/batch"
	"github.com/robjsim/excel-csv-converter/internal/types"
)

type state int

const (
	stateDirection state = iota
	statePicker
	stateRunning
	stateResults
	stateError
)

// Model drives the interactive converter: pick a direction, pick a
// file or folder, watch the batch run, inspect per-file results.
type Model struct {
	state        state
	runner       *batch.Runner
	direction    types.Direction
	cursor       int
	filepicker   filepicker.Model
	selectedPath string
	progress     progress.Model
	progressChan chan float64
	resultChan   chan batchDoneMsg
	cancel       context.CancelFunc
	results      []types.ConversionResult
	err          error
	width        int
	height       int
}

type batchDoneMsg struct {
	results []types.ConversionResult
	err     error
}

type progressMsg float64

func InitialModel(runner *batch.Runner) Model {
	fp := filepicker.New()
	fp.DirAllowed = true
	fp.FileAllowed = true
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#36A3D9"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#5AD492"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#36A3D9")).Bold(true)

	prog := progress.New(progress.WithGradient("#36A3D9", "#5AD492"))

	return Model{
		state:      stateDirection,
		runner:     runner,
		filepicker: fp,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 12
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateDirection:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < 1 {
					m.cursor++
				}
			case "enter":
				m.direction = types.Direction(m.cursor)
				m.applyPickerFilter()
				m.state = statePicker
				return m, m.filepicker.Init()
			}

		case statePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc":
				m.state = stateDirection
				return m, nil
			}

		case stateRunning:
			switch msg.String() {
			case "ctrl+c", "esc":
				// In-flight jobs finish; results so far come back.
				if m.cancel != nil {
					m.cancel()
				}
			}

		case stateResults, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case batchDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.results = msg.results
		m.state = stateResults
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateRunning {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForBatch(m.progressChan, m.resultChan))
		}
		return m, nil
	}

	if m.state == statePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedPath = path
			return m.startBatch()
		}
		return m, cmd
	}

	return m, nil
}

// applyPickerFilter restricts the picker to extensions the chosen
// direction accepts, plus directories for batch runs.
func (m *Model) applyPickerFilter() {
	if m.direction == types.SpreadsheetToCSV {
		m.filepicker.AllowedTypes = []string{".xlsx", ".xlsm", ".xls"}
	} else {
		m.filepicker.AllowedTypes = []string{".csv", ".txt"}
	}
}

// destRoot places output next to a file input, or inside a folder
// input, matching the original product's save behavior.
func destRoot(path string) string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func (m Model) startBatch() (Model, tea.Cmd) {
	m.state = stateRunning
	m.progressChan = make(chan float64, 64)
	m.resultChan = make(chan batchDoneMsg, 1)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	runner := m.runner
	progressChan := m.progressChan
	resultChan := m.resultChan
	input := m.selectedPath
	direction := m.direction

	runner.OnProgress = func(done, total int) {
		select {
		case progressChan <- float64(done) / float64(total):
		default:
		}
	}

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				results, err := runner.Run(ctx, []string{input}, direction, destRoot(input))
				resultChan <- batchDoneMsg{results: results, err: err}
				close(progressChan)
				close(resultChan)
			}()
			return nil
		},
		waitForBatch(m.progressChan, m.resultChan),
		m.progress.Init(),
	)
	return m, cmd
}

func waitForBatch(progressChan chan float64, resultChan chan batchDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}
		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return res
			}
			return nil
		}
		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateDirection:
		return m.viewDirection()
	case statePicker:
		return m.viewPicker()
	case stateRunning:
		return m.viewRunning()
	case stateResults:
		return m.viewResults()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewDirection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Excel ↔ CSV Converter"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Choose a conversion direction"))
	s.WriteString("\n\n")

	options := []string{"Spreadsheet → CSV  (.xlsx/.xls/.xlsm)", "CSV → Spreadsheet  (.csv/.txt)"}
	for i, opt := range options {
		cursor := " "
		line := fmt.Sprintf("%s %s", cursor, opt)
		if m.cursor == i {
			line = SelectedStyle.Render("> " + opt)
		} else {
			line = UnselectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: select • q: quit"))
	return BoxStyle.Render(s.String())
}

func (m Model) viewPicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Select a file or folder"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Folders are converted recursively"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("esc: back • q: quit"))
	return s.String()
}

func (m Model) viewRunning() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Converting..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Direction: %s\n", m.direction))
	s.WriteString("\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("esc: cancel (finishes files already started)"))
	return BoxStyle.Render(s.String())
}

func (m Model) viewResults() string {
	var s strings.Builder

	succeeded, failed := batch.Summarize(m.results)
	if failed == 0 {
		s.WriteString(TitleStyle.Render("✓ Batch complete"))
	} else {
		s.WriteString(TitleStyle.Render("Batch complete (with failures)"))
	}
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Converted: %s   Failed: %s\n\n",
		SuccessStyle.Render(fmt.Sprintf("%d", succeeded)),
		ErrorStyle.Render(fmt.Sprintf("%d", failed))))

	maxPathLen := m.width - 24
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	for _, res := range m.results {
		path := res.Job.Source
		if len(path) > maxPathLen {
			path = "..." + path[len(path)-maxPathLen+3:]
		}
		if res.Failed() {
			s.WriteString(ErrorStyle.Render("✗ "))
			s.WriteString(fmt.Sprintf("%s — %s", path, res.Reason))
			if res.Detail != "" {
				s.WriteString(HelpStyle.Render(" (" + res.Detail + ")"))
			}
		} else {
			s.WriteString(SuccessStyle.Render("✓ "))
			s.WriteString(path)
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))
	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))
	return BoxStyle.Render(s.String())
}
