package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/venice/core"
)

// ErrInvalidArguments is returned when tool call arguments do not decode
// into the expected type.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// ParseArgs decodes a tool call's arguments into T.
//
//	type WeatherArgs struct {
//	    City string `json:"city"`
//	}
//
//	args, err := tools.ParseArgs[WeatherArgs](call)
func ParseArgs[T any](call core.ToolCall) (*T, error) {
	var result T
	if err := json.Unmarshal(call.Arguments, &result); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", call.Name, ErrInvalidArguments, err)
	}
	return &result, nil
}
