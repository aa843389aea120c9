// Package toolcalls assembles tool calls from streamed chat deltas.
package toolcalls

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/petal-labs/venice/core"
)

// ErrInvalidJSON is returned when assembled tool arguments are not valid JSON.
var ErrInvalidJSON = errors.New("tool args invalid json")

// Config controls assembler behavior.
type Config struct {
	// EmptyArgumentsJSON, when set, is used as arguments when a tool call has no
	// accumulated argument fragments.
	EmptyArgumentsJSON string
}

// Fragment represents one streaming tool-call delta fragment.
type Fragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

type assemblingCall struct {
	ID        string
	Name      string
	Arguments strings.Builder
}

// Assembler accumulates fragmented tool calls and emits canonical tool calls.
type Assembler struct {
	calls map[int]*assemblingCall
	cfg   Config
}

// NewAssembler creates a tool-call assembler.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		calls: make(map[int]*assemblingCall),
		cfg:   cfg,
	}
}

// AddFragment applies a streaming fragment, creating a call entry if needed.
func (a *Assembler) AddFragment(f Fragment) {
	call, exists := a.calls[f.Index]
	if !exists {
		call = &assemblingCall{}
		a.calls[f.Index] = call
	}

	if f.ID != "" {
		call.ID = f.ID
	}
	if f.Name != "" {
		call.Name = f.Name
	}
	if f.Arguments != "" {
		call.Arguments.WriteString(f.Arguments)
	}
}

// AddChunk applies every tool-call delta of the chunk's first choice.
func (a *Assembler) AddChunk(c core.ChatChunk) {
	if len(c.Choices) == 0 {
		return
	}
	for _, d := range c.Choices[0].Delta.ToolCalls {
		a.AddFragment(Fragment{
			Index:     d.Index,
			ID:        d.ID,
			Name:      d.Function.Name,
			Arguments: d.Function.Arguments,
		})
	}
}

// Len returns the number of calls seen so far.
func (a *Assembler) Len() int {
	return len(a.calls)
}

// Finalize validates and returns assembled tool calls in index order.
func (a *Assembler) Finalize() ([]core.ToolCall, error) {
	if len(a.calls) == 0 {
		return nil, nil
	}

	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	result := make([]core.ToolCall, 0, len(a.calls))
	for _, i := range indexes {
		call := a.calls[i]

		args := call.Arguments.String()
		if args == "" && a.cfg.EmptyArgumentsJSON != "" {
			args = a.cfg.EmptyArgumentsJSON
		}
		if !json.Valid([]byte(args)) {
			return nil, fmt.Errorf("%w: call %q (%s)", ErrInvalidJSON, call.ID, call.Name)
		}

		result = append(result, core.ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: json.RawMessage(args),
		})
	}

	return result, nil
}
