package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nearby_go/internal/lifecycle"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.FocusMsg:
		if m.focused {
			return m, nil
		}
		m.focused = true
		m.pushLog("app in foreground")
		return m, publishLifecycleCmd(m.lifecycle, lifecycle.Active)

	case tea.BlurMsg:
		if !m.focused {
			return m, nil
		}
		m.focused = false
		m.pushLog("app in background")
		return m, publishLifecycleCmd(m.lifecycle, lifecycle.Background)

	case storeStateMsg:
		return m.onStoreState(msg)

	case alertMsg:
		alert := msg.Alert
		m.alert = &alert
		m.status = alert.Title + ": " + alert.Message
		m.pushLog("alert: " + alert.Title)
		return m, waitAlertCmd(m.bridge)

	case coordStateMsg:
		m.coord = msg.State
		m.coordSynced = msg.At
		return m, coordTickCmd(m.ctrl, coordSyncEvery)

	case refreshedMsg:
		m.coord = msg.State
		return m, nil

	case spinner.TickMsg:
		if !m.state.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bridgeClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m Model) onStoreState(msg storeStateMsg) (tea.Model, tea.Cmd) {
	prev := m.state
	m.state = msg.State
	m.syncScreen()
	m.clampItemIndex()

	cmds := []tea.Cmd{waitStateCmd(m.bridge)}
	switch {
	case m.state.Scanning && !prev.Scanning:
		m.status = "Scanning started"
		m.pushLog("scanning indicator on")
		cmds = append(cmds, m.spinner.Tick)
	case !m.state.Scanning && prev.Scanning:
		if len(m.state.Items) == 0 {
			m.status = "Scanning stopped, no items"
		} else {
			m.status = fmt.Sprintf("Scanning stopped, %d item(s)", len(m.state.Items))
		}
		m.pushLog("scanning indicator off")
	}

	if n, p := len(m.state.Items), len(prev.Items); n != p {
		switch {
		case n == 0:
			m.pushLog("items cleared")
		case n > p:
			m.status = fmt.Sprintf("New item received, %d nearby", n)
			m.pushLog(fmt.Sprintf("items: %d", n))
		default:
			m.pushLog(fmt.Sprintf("item lost, %d left", n))
		}
	}
	return m, tea.Batch(cmds...)
}

func publishLifecycleCmd(pub LifecyclePublisher, state lifecycle.State) tea.Cmd {
	if pub == nil {
		return nil
	}
	return func() tea.Msg {
		pub.Publish(state)
		return nil
	}
}

func refreshCmd(ctrl Controller) tea.Cmd {
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		ctrl.Refresh()
		return refreshedMsg{State: ctrl.Snapshot()}
	}
}
