// SPDX-License-Identifier: MIT
/*
Package tui holds the interactive terminal screens. The device picker
lets the user choose a capture input without editing the config file by
hand.
*/
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"leopold/internal/capture"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// ErrNoSelection reports that the picker exited without choosing a
// device.
var ErrNoSelection = errors.New("tui: no device selected")

type screen int

const (
	screenList screen = iota
	screenDetail
)

// DevicePickerModel is the Bubble Tea model for browsing the host's
// audio devices and picking a capture input.
type DevicePickerModel struct {
	devices       []capture.DeviceInfo
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  screen

	chosenID  int
	hasChoice bool
}

// NewDevicePickerModel creates the picker in its list screen.
func NewDevicePickerModel() DevicePickerModel {
	return DevicePickerModel{activeScreen: screenList, chosenID: -1}
}

// Init kicks off device enumeration.
func (m DevicePickerModel) Init() tea.Cmd {
	return fetchDevices
}

func fetchDevices() tea.Msg {
	devices, err := capture.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

type devicesMsg struct {
	devices []capture.DeviceInfo
}

type errMsg struct {
	err error
}

// HasChoice reports whether the user confirmed a device.
func (m DevicePickerModel) HasChoice() bool {
	return m.hasChoice
}

// Choice returns the confirmed device ID. Meaningless unless HasChoice.
func (m DevicePickerModel) Choice() int {
	return m.chosenID
}

// Update handles input and updates the model.
func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			if len(m.devices) > 0 {
				m.viewport.SetContent(m.renderDevices())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}

		if m.activeScreen == screenList {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				// Only input-capable devices can be inspected and
				// chosen; a recorder has no use for speakers.
				if len(m.devices) > 0 && m.devices[m.selectedIndex].MaxInputChannels > 0 {
					m.activeScreen = screenDetail
					m.viewport.SetContent(m.renderDetail())
				}
			}
		} else if m.activeScreen == screenDetail {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
				m.activeScreen = screenList
				m.viewport.SetContent(m.renderDevices())

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				m.chosenID = m.devices[m.selectedIndex].ID
				m.hasChoice = true
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m DevicePickerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == screenList {
		title = titleStyle.Render("Capture Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Inspect • q: Quit")
	} else {
		title = titleStyle.Render("Device Details")
		help = infoStyle.Render("Enter: Record With This Device • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list. Output-only devices show
// dimmed; they cannot be chosen.
func (m DevicePickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		deviceType := ""
		if device.MaxInputChannels > 0 && device.MaxOutputChannels > 0 {
			deviceType = "Input/Output"
		} else if device.MaxInputChannels > 0 {
			deviceType = "Input"
		} else if device.MaxOutputChannels > 0 {
			deviceType = "Output"
		}

		deviceInfo := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, deviceType)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		switch {
		case i == m.selectedIndex:
			deviceInfo = highlightStyle.Render(deviceInfo)
		case device.MaxInputChannels == 0:
			deviceInfo = dimStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderDetail formats the inspection screen for the selected device.
func (m DevicePickerModel) renderDetail() string {
	device := m.devices[m.selectedIndex]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Device: %s\n\n", device.Name))
	sb.WriteString(fmt.Sprintf("  ID:                  %d\n", device.ID))
	sb.WriteString(fmt.Sprintf("  Input channels:      %d\n", device.MaxInputChannels))
	sb.WriteString(fmt.Sprintf("  Output channels:     %d\n", device.MaxOutputChannels))
	sb.WriteString(fmt.Sprintf("  Default sample rate: %.0f Hz\n", device.DefaultSampleRate))
	sb.WriteString(fmt.Sprintf("  Input latency:       %.1f ms (low) / %.1f ms (high)\n",
		device.LowInputLatency.Seconds()*1000, device.HighInputLatency.Seconds()*1000))
	sb.WriteString("\nPress Enter to record with this device.\n")

	return sb.String()
}

// PickInputDevice runs the picker and returns the chosen device ID.
// Exiting without a confirmation returns ErrNoSelection.
func PickInputDevice() (int, error) {
	p := tea.NewProgram(
		NewDevicePickerModel(),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return 0, fmt.Errorf("tui: device picker: %w", err)
	}
	model, ok := final.(DevicePickerModel)
	if !ok {
		return 0, fmt.Errorf("tui: unexpected final model %T", final)
	}
	if !model.HasChoice() {
		return 0, ErrNoSelection
	}
	return model.Choice(), nil
}
