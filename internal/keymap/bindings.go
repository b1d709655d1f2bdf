package keymap

// Contexts the host UI dispatches keys in.
const (
	ContextGlobal  = "global"
	ContextList    = "list"
	ContextEditor  = "editor"
	ContextPreview = "preview"
	ContextRename  = "rename"
	ContextConfirm = "confirm"
	ContextPicker  = "picker"
	ContextHistory = "history"
)

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global bindings
		{Key: "ctrl+c", Command: "quit", Context: ContextGlobal},
		{Key: "ctrl+s", Command: "save", Context: ContextGlobal},
		{Key: "ctrl+h", Command: "toggle-footer", Context: ContextGlobal},

		// Note list
		{Key: "q", Command: "quit", Context: ContextList},
		{Key: "n", Command: "create", Context: ContextList},
		{Key: "o", Command: "open-existing", Context: ContextList},
		{Key: "enter", Command: "edit", Context: ContextList},
		{Key: "e", Command: "edit", Context: ContextList},
		{Key: "r", Command: "rename", Context: ContextList},
		{Key: "X", Command: "delete", Context: ContextList},
		{Key: "j", Command: "cursor-down", Context: ContextList},
		{Key: "down", Command: "cursor-down", Context: ContextList},
		{Key: "k", Command: "cursor-up", Context: ContextList},
		{Key: "up", Command: "cursor-up", Context: ContextList},
		{Key: "G", Command: "cursor-bottom", Context: ContextList},
		{Key: "y", Command: "yank", Context: ContextList},
		{Key: "p", Command: "toggle-preview", Context: ContextList},
		{Key: "h", Command: "history", Context: ContextList},
		{Key: "<", Command: "list-narrower", Context: ContextList},
		{Key: ">", Command: "list-wider", Context: ContextList},

		// Editor (textarea has focus, so only modified keys)
		{Key: "esc", Command: "back", Context: ContextEditor},
		{Key: "alt+c", Command: "yank", Context: ContextEditor},

		// Rendered preview
		{Key: "esc", Command: "back", Context: ContextPreview},
		{Key: "q", Command: "back", Context: ContextPreview},
		{Key: "enter", Command: "edit", Context: ContextPreview},
		{Key: "i", Command: "edit", Context: ContextPreview},
		{Key: "y", Command: "yank", Context: ContextPreview},

		// Rename input
		{Key: "enter", Command: "confirm", Context: ContextRename},
		{Key: "esc", Command: "back", Context: ContextRename},

		// Delete confirmation
		{Key: "y", Command: "confirm", Context: ContextConfirm},
		{Key: "enter", Command: "confirm", Context: ContextConfirm},
		{Key: "n", Command: "back", Context: ContextConfirm},
		{Key: "esc", Command: "back", Context: ContextConfirm},

		// Open-existing picker
		{Key: "j", Command: "cursor-down", Context: ContextPicker},
		{Key: "down", Command: "cursor-down", Context: ContextPicker},
		{Key: "k", Command: "cursor-up", Context: ContextPicker},
		{Key: "up", Command: "cursor-up", Context: ContextPicker},
		{Key: "enter", Command: "confirm", Context: ContextPicker},
		{Key: "esc", Command: "back", Context: ContextPicker},

		// Journal history
		{Key: "esc", Command: "back", Context: ContextHistory},
		{Key: "q", Command: "back", Context: ContextHistory},
	}
}
