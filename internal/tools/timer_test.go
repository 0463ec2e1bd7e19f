package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type fakeSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (s *fakeSpeaker) Say(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
	return nil
}

func (s *fakeSpeaker) said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestTimerRejectsOutOfRange(t *testing.T) {
	for _, seconds := range []int{0, -5, 301, 100000} {
		speaker := &fakeSpeaker{}
		timer := NewTimerTool(speaker)
		timer.sleep = func(time.Duration) {
			t.Fatalf("timer slept for rejected duration %d", seconds)
		}

		input, _ := json.Marshal(TimerInput{Seconds: seconds})
		result, err := timer.Execute(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Content != "Timers must be between 1 and 300 seconds." {
			t.Errorf("seconds=%d: wrong rejection message: %q", seconds, result.Content)
		}
		if len(speaker.said()) != 0 {
			t.Errorf("seconds=%d: announcements emitted on rejection: %v", seconds, speaker.said())
		}
	}
}

func TestTimerAnnouncesStartAndDone(t *testing.T) {
	speaker := &fakeSpeaker{}
	timer := NewTimerTool(speaker)

	var slept time.Duration
	timer.sleep = func(d time.Duration) { slept = d }

	input, _ := json.Marshal(TimerInput{Seconds: 42})
	result, err := timer.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("timer result flagged as error: %q", result.Content)
	}
	if result.Content != "Timer finished after 42 seconds." {
		t.Errorf("wrong completion string: %q", result.Content)
	}
	if slept != 42*time.Second {
		t.Errorf("slept %v, want 42s", slept)
	}

	lines := speaker.said()
	if len(lines) != 2 {
		t.Fatalf("got %d announcements, want 2: %v", len(lines), lines)
	}
	if lines[0] != "Timer started for 42 seconds." || lines[1] != "Timer done." {
		t.Errorf("wrong announcements: %v", lines)
	}
}

func TestTimerBounds(t *testing.T) {
	// 1 and 300 are both valid.
	for _, seconds := range []int{1, 300} {
		speaker := &fakeSpeaker{}
		timer := NewTimerTool(speaker)
		timer.sleep = func(time.Duration) {}

		input, _ := json.Marshal(TimerInput{Seconds: seconds})
		result, _ := timer.Execute(context.Background(), input)
		if result.IsError || len(speaker.said()) != 2 {
			t.Errorf("seconds=%d rejected, want accepted", seconds)
		}
	}
}
