package keymap

import "slices"

// Binding maps a key in a context to a command ID.
type Binding struct {
	Key     string // tea.KeyMsg.String() form, e.g. "ctrl+s"
	Command string
	Context string
}

// Registry resolves keys to commands per context.
type Registry struct {
	bindings []Binding
}

// NewRegistry returns a registry holding the default bindings.
func NewRegistry() *Registry {
	return &Registry{bindings: DefaultBindings()}
}

// ApplyOverrides rebinds commands. Each entry maps a command ID to a key and
// replaces every default key for that command in every context it appears in.
// Unknown commands are returned so the caller can log them.
func (r *Registry) ApplyOverrides(overrides map[string]string) []string {
	var unknown []string
	for command, k := range overrides {
		var contexts []string
		kept := r.bindings[:0]
		for _, b := range r.bindings {
			if b.Command == command {
				if !slices.Contains(contexts, b.Context) {
					contexts = append(contexts, b.Context)
				}
				continue
			}
			kept = append(kept, b)
		}
		r.bindings = kept
		if len(contexts) == 0 {
			unknown = append(unknown, command)
			continue
		}
		for _, ctx := range contexts {
			r.bindings = append(r.bindings, Binding{Key: k, Command: command, Context: ctx})
		}
	}
	slices.Sort(unknown)
	return unknown
}

// Lookup returns the command bound to key in context, falling back to the
// global context.
func (r *Registry) Lookup(key, context string) (string, bool) {
	for _, b := range r.bindings {
		if b.Key == key && b.Context == context {
			return b.Command, true
		}
	}
	if context == ContextGlobal {
		return "", false
	}
	return r.Lookup(key, ContextGlobal)
}

// KeysFor returns the keys bound to command in context, in binding order.
func (r *Registry) KeysFor(command, context string) []string {
	var keys []string
	for _, b := range r.bindings {
		if b.Command == command && b.Context == context {
			keys = append(keys, b.Key)
		}
	}
	return keys
}

// BindingsForContext returns all bindings registered for context.
func (r *Registry) BindingsForContext(context string) []Binding {
	var out []Binding
	for _, b := range r.bindings {
		if b.Context == context {
			out = append(out, b)
		}
	}
	return out
}
