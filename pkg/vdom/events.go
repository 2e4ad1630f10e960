package vdom

// On creates an event handler for an arbitrary event name.
// The name is prefixed with "on" (e.g., "click" becomes "onclick").
func On(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// OnClick handles click events.
func OnClick(handler any) EventHandler { return On("click", handler) }

// OnInput handles input events.
func OnInput(handler any) EventHandler { return On("input", handler) }

// OnChange handles change events.
func OnChange(handler any) EventHandler { return On("change", handler) }

// OnSubmit handles form submission.
func OnSubmit(handler any) EventHandler { return On("submit", handler) }
