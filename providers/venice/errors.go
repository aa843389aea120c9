package venice

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/internal/toolcalls"
)

// ErrToolArgsInvalidJSON is returned when tool call arguments contain invalid JSON.
var ErrToolArgsInvalidJSON = errors.New("venice: tool args invalid json")

// ErrImageRequired is returned by UpscaleImage when no image bytes are given.
var ErrImageRequired = errors.New("venice: image required")

// ErrInsufficientBalance classifies 402 responses: the account has no USD
// or VCU balance left for the request. It matches core.ErrAPI as well.
var ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", core.ErrAPI)

// DefaultStatusOverrides refines the core status classification for
// Venice-specific statuses.
var DefaultStatusOverrides = map[int]error{
	http.StatusPaymentRequired: ErrInsufficientBalance,
}

// statusOverrides merges extra over DefaultStatusOverrides.
func statusOverrides(extra map[int]error) map[int]error {
	out := make(map[int]error, len(DefaultStatusOverrides)+len(extra))
	maps.Copy(out, DefaultStatusOverrides)
	maps.Copy(out, extra)
	return out
}

// toolCallError maps assembler failures to the package sentinel.
func toolCallError(err error) error {
	if errors.Is(err, toolcalls.ErrInvalidJSON) {
		return errors.Join(ErrToolArgsInvalidJSON, err)
	}
	return err
}
