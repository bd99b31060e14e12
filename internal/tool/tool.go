// Package tool defines the declarative tool contract every tenant server
// exposes: a name, an LLM-facing description, a JSON schema for the input
// and a handler returning the Result envelope. The MCP host adapts these
// descriptors onto the wire; nothing here does I/O.
package tool

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// Handler executes one tool invocation. It never panics across this
// boundary and never returns a Go error: every outcome is a Result.
type Handler func(ctx domain.Context, raw json.RawMessage) domain.Result[any]

// Tool is one named, schema-validated operation a conversational agent
// may invoke.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler
}

// Set is an ordered tool collection for one tenant. Registration order is
// the order tools are listed to the agent.
type Set struct {
	tools []Tool
	index map[string]int
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Add registers a tool. Duplicate names and nil handlers are programming
// errors and reject the whole registration.
func (s *Set) Add(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("op=tool.Add: tool name is empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("op=tool.Add: tool %q has no handler", t.Name)
	}
	if _, dup := s.index[t.Name]; dup {
		return fmt.Errorf("op=tool.Add: duplicate tool name %q", t.Name)
	}
	s.index[t.Name] = len(s.tools)
	s.tools = append(s.tools, t)
	return nil
}

// MustAdd is Add for static registrations built at boot, where a bad
// descriptor should stop the process.
func (s *Set) MustAdd(t Tool) {
	if err := s.Add(t); err != nil {
		panic(err)
	}
}

// Tools returns the registered tools in registration order. The slice is
// shared; callers must not mutate it.
func (s *Set) Tools() []Tool { return s.tools }

// Len reports how many tools are registered.
func (s *Set) Len() int { return len(s.tools) }

// Get looks a tool up by name.
func (s *Set) Get(name string) (Tool, bool) {
	i, ok := s.index[name]
	if !ok {
		return Tool{}, false
	}
	return s.tools[i], true
}
