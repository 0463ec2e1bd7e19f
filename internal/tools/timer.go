package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	minTimerSeconds = 1
	maxTimerSeconds = 300

	timerRejection = "Timers must be between 1 and 300 seconds."
)

// Speaker lets a tool speak into the room through the live session.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// TimerTool runs a short countdown and announces start and completion.
// The wait is not cancellable once started; the session keeps handling
// other events because the registry dispatches each call on its own
// goroutine.
type TimerTool struct {
	speaker Speaker
	sleep   func(time.Duration)
}

// TimerInput defines the input for start_timer
type TimerInput struct {
	Seconds int `json:"seconds"`
}

// NewTimerTool creates a new start_timer tool
func NewTimerTool(speaker Speaker) *TimerTool {
	return &TimerTool{
		speaker: speaker,
		sleep:   time.Sleep,
	}
}

func (t *TimerTool) Name() string {
	return "start_timer"
}

func (t *TimerTool) Description() string {
	return "Set a short countdown timer (1 to 300 seconds). The assistant announces when the timer starts and when time is up."
}

func (t *TimerTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"seconds": {
				"type": "integer",
				"description": "Timer duration in seconds, between 1 and 300"
			}
		},
		"required": ["seconds"]
	}`)
}

func (t *TimerTool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	var params TimerInput
	if err := json.Unmarshal(input, &params); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Invalid input: %v", err), IsError: true}, nil
	}

	if params.Seconds < minTimerSeconds || params.Seconds > maxTimerSeconds {
		// Rejected before any side effect: no announcement, no wait.
		return &ToolResult{Content: timerRejection}, nil
	}

	if err := t.speaker.Say(ctx, fmt.Sprintf("Timer started for %d seconds.", params.Seconds)); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Could not announce the timer: %v", err), IsError: true}, nil
	}

	t.sleep(time.Duration(params.Seconds) * time.Second)

	if err := t.speaker.Say(ctx, "Timer done."); err != nil {
		return &ToolResult{Content: fmt.Sprintf("Could not announce the timer: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Timer finished after %d seconds.", params.Seconds)}, nil
}
