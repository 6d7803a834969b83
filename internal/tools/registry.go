package tools

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrDuplicateTool = errors.New("tool already registered")
)

// Predefined tool subsets.
var (
	defaultSet  = []string{"weather", "joke"}
	extendedSet = []string{"weather", "joke", "dad_joke"}
)

// Registry maps tool names to tools. Tools are registered at startup
// and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Options configures the built-in tools.
type Options struct {
	HTTP           HTTPOptions
	WeatherAPIKey  string
	WeatherBaseURL string
	JokeBaseURL    string
	DadJokeBaseURL string
	Now            func() time.Time
}

// NewDefaultRegistry registers the built-in tools.
func NewDefaultRegistry(opts Options) *Registry {
	client := NewHTTPClient(opts.HTTP)
	r := NewRegistry()
	r.MustRegister(WeatherTool(client, opts.WeatherBaseURL, opts.WeatherAPIKey))
	r.MustRegister(JokeTool(client, opts.JokeBaseURL))
	r.MustRegister(DadJokeTool(client, opts.DadJokeBaseURL))
	r.MustRegister(TimeTool(opts.Now))
	r.MustRegister(DateTool(opts.Now))
	return r
}

func (r *Registry) Register(t Tool) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("register tool: name is required")
	}
	if t.Execute == nil {
		return fmt.Errorf("register tool %q: execute function is required", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("register tool %q: %w", t.Name, ErrDuplicateTool)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// ByNames returns the named tools in request order. Repeated names are
// returned once. All unknown names are reported together.
func (r *Registry) ByNames(names []string) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(names))
	out := make([]Tool, 0, len(names))
	var missing []string
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		t, ok := r.tools[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out = append(out, t)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, strings.Join(missing, ", "))
	}
	return out, nil
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// ByCategory returns the tools tagged with category, in registration order.
func (r *Registry) ByCategory(category string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Tool{}
	for _, name := range r.order {
		if t := r.tools[name]; t.HasCategory(category) {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the sorted set of category tags.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{})
	for _, t := range r.tools {
		for _, c := range t.Categories {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Info describes the registered tools. Only the first line of each
// description is included.
func (r *Registry) Info() []Info {
	all := r.All()
	out := make([]Info, 0, len(all))
	for _, t := range all {
		desc, _, _ := strings.Cut(t.Description, "\n")
		out = append(out, Info{
			Name:        t.Name,
			Description: strings.TrimSpace(desc),
			Categories:  append([]string(nil), t.Categories...),
		})
	}
	return out
}

// Info is the public description of a tool.
type Info struct {
	Name        string
	Description string
	Categories  []string
}

// Default returns the default agent tool set (weather, joke).
func (r *Registry) Default() ([]Tool, error) {
	return r.ByNames(defaultSet)
}

// Extended returns the default set plus dad_joke.
func (r *Registry) Extended() ([]Tool, error) {
	return r.ByNames(extendedSet)
}
