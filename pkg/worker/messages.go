package worker

import (
	"github.com/jmverlaan/climogram/pkg/model"
)

// CommandType discriminates messages on the command channel.
type CommandType int

const (
	// CmdGet requests the aggregated series for a category, optionally
	// restricted to a year range.
	CmdGet CommandType = iota
	// CmdTerminate shuts the coordinator down. Terminal; no further
	// commands are processed.
	CmdTerminate
)

// Command is one message from the foreground context to the
// coordinator. Any Type outside the known set surfaces as an
// ErrUnknownCommand error response.
type Command struct {
	Type     CommandType
	Category model.Category
	Range    *model.YearRange // nil means the full loaded range
}

// ReadyMsg is emitted exactly once, after store initialization succeeds
// and before any command is processed.
type ReadyMsg struct{}

// DataMsg carries one fulfilled request: the aggregated points, the
// resolved range and the full list of available years for the category.
type DataMsg struct {
	Category model.Category
	Points   []model.AggregatedPoint
	Range    model.YearRange
	Years    []int
}

// ErrorMsg reports a failed command. Receiving it implies the
// coordinator has already reset its sequencing state, so the next
// request for any category is treated as a fresh first request.
type ErrorMsg struct {
	Err error
}
