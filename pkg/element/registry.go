package element

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/scheduler"
)

// Prefix is prepended to element names that contain no hyphen.
const Prefix = "bloom-"

var (
	// ErrAlreadyDefined is returned by Define for a taken name.
	ErrAlreadyDefined = errors.New("element: already defined")

	// ErrNoProducer is returned by Define for a definition without a
	// producer factory.
	ErrNoProducer = errors.New("element: definition has no producer")

	// ErrUnknownProp is returned by Set for an undeclared prop.
	ErrUnknownProp = errors.New("element: unknown prop")

	// ErrPropType is returned by Set for a value of the wrong type.
	ErrPropType = errors.New("element: prop type mismatch")
)

// DetachPolicy decides what happens to an instance's session on detach.
type DetachPolicy int

const (
	// DetachDefault uses the registry default.
	DetachDefault DetachPolicy = iota
	// PauseOnDetach keeps the session and drops trees while detached.
	PauseOnDetach
	// StopOnDetach stops the session; reattaching starts a new one.
	StopOnDetach
)

func (p DetachPolicy) String() string {
	switch p {
	case PauseOnDetach:
		return "pause"
	case StopOnDetach:
		return "stop"
	default:
		return "default"
	}
}

// ParseDetachPolicy parses "pause" or "stop". An empty string is
// DetachDefault.
func ParseDetachPolicy(s string) (DetachPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DetachDefault, nil
	case "pause":
		return PauseOnDetach, nil
	case "stop":
		return StopOnDetach, nil
	}
	return DetachDefault, fmt.Errorf("element: unknown detach policy %q", s)
}

// ProducerFactory creates the producer of one instance. attrs is a
// snapshot of the host attributes when the session starts.
type ProducerFactory func(el *Element, attrs map[string]string) scheduler.Producer

// Options tune an element definition.
type Options struct {
	// Shadow renders into a shadow root instead of the host's children.
	Shadow bool

	// Styles, when set with Shadow, is rendered as a leading <style>.
	Styles string

	// OnConnected and OnDisconnected run on every attach and detach.
	OnConnected    func(el *Element)
	OnDisconnected func(el *Element)

	DetachPolicy DetachPolicy
}

// Definition describes a custom element.
type Definition struct {
	Name     string
	Producer ProducerFactory
	Props    []Prop
	Options  Options
}

// TagName returns the tag used for name: names without a hyphen get
// Prefix.
func TagName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.Contains(name, "-") {
		return name
	}
	return Prefix + name
}

// Registry installs definitions into one document.
type Registry struct {
	doc      *dom.Document
	renderer scheduler.Renderer
	logger   *slog.Logger
	policy   DetachPolicy
	sessOpts []scheduler.Option

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	defs     map[string]*compiled
	sessions map[*scheduler.Session]struct{}
	closed   bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRenderer sets the renderer used by element sessions.
func WithRenderer(r scheduler.Renderer) RegistryOption {
	return func(reg *Registry) { reg.renderer = r }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(reg *Registry) { reg.logger = l }
}

// WithDetachPolicy sets the policy for definitions that use DetachDefault.
func WithDetachPolicy(p DetachPolicy) RegistryOption {
	return func(reg *Registry) {
		if p != DetachDefault {
			reg.policy = p
		}
	}
}

// WithSessionOptions adds options to every element session.
func WithSessionOptions(opts ...scheduler.Option) RegistryOption {
	return func(reg *Registry) { reg.sessOpts = append(reg.sessOpts, opts...) }
}

// NewRegistry creates a registry for doc.
func NewRegistry(doc *dom.Document, opts ...RegistryOption) *Registry {
	r := &Registry{
		doc:      doc,
		logger:   slog.Default(),
		policy:   PauseOnDetach,
		defs:     make(map[string]*compiled),
		sessions: make(map[*scheduler.Session]struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(r)
	}
	if r.renderer == nil {
		r.renderer = dom.NewRenderer()
	}
	return r
}

// compiled is a definition resolved against its registry.
type compiled struct {
	Definition
	tag      string
	policy   DetachPolicy
	props    map[string]*Prop // by declared name and by attribute name
	renderer scheduler.Renderer
}

func (c *compiled) prop(name string) *Prop {
	if p := c.props[name]; p != nil {
		return p
	}
	return c.props[strings.ToLower(name)]
}

// Define installs def and returns its tag name.
func (r *Registry) Define(def Definition) (string, error) {
	if def.Producer == nil {
		return "", fmt.Errorf("%w: %q", ErrNoProducer, def.Name)
	}
	tag := TagName(def.Name)

	c := &compiled{
		Definition: def,
		tag:        tag,
		policy:     def.Options.DetachPolicy,
		props:      make(map[string]*Prop),
		renderer:   r.renderer,
	}
	if c.policy == DetachDefault {
		c.policy = r.policy
	}
	c.Props = append([]Prop(nil), def.Props...)
	var observed []string
	for i := range c.Props {
		p := &c.Props[i]
		v, ok := p.coerce(p.Default)
		if !ok {
			return "", fmt.Errorf("%w: default of %s prop %q is %T", ErrPropType, p.Kind, p.Name, p.Default)
		}
		p.Default = v
		if p.Serializable() {
			observed = append(observed, strings.ToLower(p.Name))
		}
		c.props[p.Name] = p
		c.props[strings.ToLower(p.Name)] = p
	}
	if def.Options.Shadow && def.Options.Styles != "" {
		c.renderer = styledRenderer(r.renderer, def.Options.Styles)
	}

	r.mu.Lock()
	if _, ok := r.defs[tag]; ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrAlreadyDefined, tag)
	}
	r.defs[tag] = c
	r.mu.Unlock()

	err := r.doc.Define(dom.Definition{
		Name:     tag,
		Observed: observed,
		New: func(host *dom.Node) dom.Reactions {
			return newElement(r, c, host)
		},
	})
	if err != nil {
		r.mu.Lock()
		delete(r.defs, tag)
		r.mu.Unlock()
		if errors.Is(err, dom.ErrAlreadyDefined) {
			return "", fmt.Errorf("%w: %s", ErrAlreadyDefined, tag)
		}
		return "", err
	}
	r.logger.Debug("element defined", "tag", tag, "props", len(def.Props), "policy", c.policy.String())
	return tag, nil
}

// Names returns the defined tag names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for tag := range r.defs {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Document returns the registry's document.
func (r *Registry) Document() *dom.Document { return r.doc }

// Close stops every element session and waits for them to end. Elements
// attached afterwards do not render.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*scheduler.Session, 0, len(r.sessions))
	for sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	clear(r.sessions)
	r.mu.Unlock()

	r.cancel()
	for _, sess := range sessions {
		sess.Stop()
		<-sess.Done()
	}
}

// Sessions returns the number of element sessions not yet released.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// track records sess so Close can stop it. It reports false once the
// registry is closed.
func (r *Registry) track(sess *scheduler.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.sessions[sess] = struct{}{}
	return true
}

// release stops sess and forgets it.
func (r *Registry) release(sess *scheduler.Session) {
	r.mu.Lock()
	delete(r.sessions, sess)
	r.mu.Unlock()
	sess.Stop()
}
