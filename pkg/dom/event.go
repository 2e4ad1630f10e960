package dom

import "fmt"

// Event is dispatched to a target and then to its ancestors, crossing from
// a shadow root to its host.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Detail        any

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// AddEventListener sets the listener for an event type, replacing any
// previous one. Handlers are func() or func(*Event).
func (n *Node) AddEventListener(typ string, handler any) error {
	switch handler.(type) {
	case func(), func(*Event):
	default:
		return fmt.Errorf("dom: unsupported %s handler type %T", typ, handler)
	}
	n.doc.mutate(func(*batch) {
		if n.listeners == nil {
			n.listeners = make(map[string]any)
		}
		n.listeners[typ] = handler
	})
	return nil
}

// RemoveEventListener removes the listener for an event type.
func (n *Node) RemoveEventListener(typ string) {
	n.doc.mutate(func(*batch) { delete(n.listeners, typ) })
}

// HasListener reports whether a listener is set for the event type.
func (n *Node) HasListener(typ string) bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	_, ok := n.listeners[typ]
	return ok
}

// Dispatch delivers e to the node and its ancestors. Listeners run with the
// document unlocked. It reports whether any listener ran.
func (n *Node) Dispatch(e *Event) bool {
	type hop struct {
		node    *Node
		handler any
	}
	var path []hop
	n.doc.mu.Lock()
	for cur := n; cur != nil; {
		if h, ok := cur.listeners[e.Type]; ok {
			path = append(path, hop{cur, h})
		}
		if cur.parent != nil {
			cur = cur.parent
		} else {
			cur = cur.host
		}
	}
	n.doc.mu.Unlock()

	e.Target = n
	for _, h := range path {
		e.CurrentTarget = h.node
		switch fn := h.handler.(type) {
		case func():
			fn()
		case func(*Event):
			fn(e)
		}
		if e.stopped {
			break
		}
	}
	return len(path) > 0
}

// Click dispatches a click event.
func (n *Node) Click() bool {
	return n.Dispatch(&Event{Type: "click"})
}
