package msg

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastDuration is how long toasts stay visible unless a caller overrides it.
const ToastDuration = 2 * time.Second

// ToastMsg displays a temporary message.
type ToastMsg struct {
	Message  string
	Duration time.Duration
	IsError  bool // true for error toasts (red), false for success (green)
}

// ShowToast returns a command to show a toast message.
func ShowToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: message, Duration: duration}
	}
}

// ShowError returns a command that shows err as an error toast.
// A nil error yields a nil command.
func ShowError(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg {
		return ToastMsg{Message: err.Error(), Duration: 2 * ToastDuration, IsError: true}
	}
}
