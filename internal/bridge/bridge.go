// Package bridge binds one LiveKit room to one realtime model session.
//
// The bridge gates session startup on room presence, wires room and model
// events together, routes tool calls to the registry, and tears the session
// down when the last participant leaves.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avavoice/ava/internal/config"
	"github.com/avavoice/ava/internal/logging"
	"github.com/avavoice/ava/internal/realtime"
	"github.com/avavoice/ava/internal/room"
	"github.com/avavoice/ava/internal/tools"
)

// State is the bridge lifecycle state.
type State int

const (
	AwaitingPresence State = iota
	SessionActive
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingPresence:
		return "awaiting-presence"
	case SessionActive:
		return "session-active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// HistoryItem is one entry of the session's conversation history.
type HistoryItem struct {
	Role string
	Text string
	At   time.Time
}

// ModelSession is the slice of the realtime session the bridge drives.
type ModelSession interface {
	GenerateReply(instructions string) error
	SendToolResult(callID, output string, isError bool) error
	AppendAudio(frame []byte) error
	Close() error
}

// SessionFactory opens a model session with the given configuration and
// handlers installed.
type SessionFactory func(ctx context.Context, cfg realtime.Config, h realtime.Handlers) (ModelSession, error)

// Realtime session parameters, matching the known-good voice setup.
const (
	modelName   = "gpt-realtime"
	voiceName   = "alloy"
	temperature = 0.7
)

// Bridge supervises one room/model pairing.
type Bridge struct {
	cfg        *config.Config
	room       room.Room
	newSession SessionFactory

	registry *tools.Registry

	mu         sync.Mutex
	state      State
	sess       ModelSession
	started    bool // a model session was created at some point
	history    []HistoryItem
	agentState string
	userState  string

	presence chan struct{}
	closedCh chan struct{}
}

// New creates a bridge for the given room. SetRegistry must be called
// before Run.
func New(cfg *config.Config, rm room.Room, factory SessionFactory) *Bridge {
	return &Bridge{
		cfg:        cfg,
		room:       rm,
		newSession: factory,
		state:      AwaitingPresence,
		agentState: realtime.StateIdle,
		userState:  realtime.StateIdle,
		presence:   make(chan struct{}, 1),
		closedCh:   make(chan struct{}),
	}
}

// SetRegistry installs the tool registry the model may call into.
func (b *Bridge) SetRegistry(reg *tools.Registry) {
	b.registry = reg
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// History returns a copy of the conversation history so far.
func (b *Bridge) History() []HistoryItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]HistoryItem, len(b.history))
	copy(out, b.history)
	return out
}

// Run drives the bridge until the room empties, the room disconnects, or
// the context is cancelled. The model session is created at most once.
func (b *Bridge) Run(ctx context.Context) error {
	if b.registry == nil {
		return fmt.Errorf("bridge: no tool registry configured")
	}

	b.room.Subscribe(room.Handlers{
		OnParticipantJoined: b.onParticipantJoined,
		OnParticipantLeft:   b.onParticipantLeft,
		OnAudioFrame:        b.onRoomAudio,
		OnDisconnected:      func() { b.teardown("room disconnected") },
	})
	defer b.room.Unsubscribe()

	logging.Infof("[bridge] connected to room %q as agent", b.room.Name())

	// Presence gate: no model session (and no model cost) while empty.
	if b.room.RemoteCount() == 0 {
		logging.Infof("[bridge] waiting for a participant to join before starting session...")
		select {
		case <-b.presence:
		case <-b.closedCh:
			// Torn down (room disconnect, or a join/leave pair) before
			// anyone stayed. No session was ever created.
			return nil
		case <-ctx.Done():
			b.markClosed()
			return ctx.Err()
		}
	}

	if err := b.startSession(ctx); err != nil {
		b.markClosed()
		return err
	}

	select {
	case <-b.closedCh:
		return nil
	case <-ctx.Done():
		b.teardown("shutdown requested")
		return ctx.Err()
	}
}

// Say speaks the given text into the room through the live session. It is
// how tools (the timer) announce progress.
func (b *Bridge) Say(ctx context.Context, text string) error {
	b.mu.Lock()
	sess := b.sess
	active := b.state == SessionActive
	b.mu.Unlock()

	if !active {
		return fmt.Errorf("bridge: session is not active")
	}
	return sess.GenerateReply(fmt.Sprintf("Say exactly: %q", text))
}

// startSession opens the realtime model session exactly once and requests
// the opening utterance.
func (b *Bridge) startSession(ctx context.Context) error {
	b.mu.Lock()
	if b.state == Closing || b.state == Closed {
		// A teardown won the race (last participant left while the presence
		// token was still buffered). Closed is terminal; start nothing.
		b.mu.Unlock()
		return nil
	}
	if b.started {
		b.mu.Unlock()
		return fmt.Errorf("bridge: session already started")
	}
	b.started = true
	b.mu.Unlock()

	logging.Infof("[bridge] starting voice assistant session...")

	sessCfg := realtime.Config{
		APIKey:       b.cfg.OpenAIKey,
		Model:        modelName,
		Voice:        voiceName,
		Temperature:  temperature,
		Instructions: Instructions(time.Now()),
		Tools:        b.registry.Definitions(),
	}

	sess, err := b.newSession(ctx, sessCfg, realtime.Handlers{
		OnTranscript:        b.onTranscript,
		OnConversationItem:  b.onConversationItem,
		OnToolCall:          b.onToolCall,
		OnSpeechCreated:     b.onSpeechCreated,
		OnAgentStateChanged: b.onAgentStateChanged,
		OnUserStateChanged:  b.onUserStateChanged,
		OnAudioDelta:        b.onModelAudio,
		OnError:             b.onModelError,
		OnClosed:            func() { b.teardown("model session closed") },
	})
	if err != nil {
		return fmt.Errorf("start model session: %w", err)
	}

	b.mu.Lock()
	if b.state == Closing || b.state == Closed {
		// Torn down while the dial was in flight. Don't leave a live
		// (billed) session behind, and don't resurrect a closed bridge.
		b.mu.Unlock()
		if err := sess.Close(); err != nil {
			logging.Errorf("[bridge] closing orphaned session failed: %v", err)
		}
		return nil
	}
	b.sess = sess
	b.state = SessionActive
	b.mu.Unlock()

	if err := sess.GenerateReply("Greet the user warmly as Ava, then briefly offer help."); err != nil {
		logging.Errorf("[bridge] greeting failed: %v", err)
	}

	logging.Infof("[bridge] voice assistant ready")
	return nil
}

// teardown moves the bridge through Closing to Closed. The close request to
// the model is best effort; failure still ends in Closed. Idempotent.
func (b *Bridge) teardown(reason string) {
	b.mu.Lock()
	if b.state == Closing || b.state == Closed {
		b.mu.Unlock()
		return
	}
	b.state = Closing
	sess := b.sess
	b.mu.Unlock()

	logging.Infof("[bridge] closing agent session: %s", reason)
	if sess != nil {
		if err := sess.Close(); err != nil {
			logging.Errorf("[bridge] session close failed: %v", err)
		}
	}

	b.markClosed()
}

func (b *Bridge) markClosed() {
	b.mu.Lock()
	already := b.state == Closed
	b.state = Closed
	b.mu.Unlock()
	if !already {
		close(b.closedCh)
	}
}

// ---------------------------------------------------------------------------
// Room events
// ---------------------------------------------------------------------------

func (b *Bridge) onParticipantJoined(p room.Participant) {
	logging.Infof("[room] participant joined: %s", p.Identity)
	select {
	case b.presence <- struct{}{}:
	default:
	}
}

func (b *Bridge) onParticipantLeft(p room.Participant) {
	logging.Infof("[room] participant left: %s", p.Identity)
	if b.room.RemoteCount() == 0 {
		logging.Infof("[bridge] no participants left - closing agent session")
		b.teardown("no participants left")
	}
}

func (b *Bridge) onRoomAudio(frame []byte) {
	b.mu.Lock()
	sess := b.sess
	active := b.state == SessionActive
	b.mu.Unlock()
	if !active {
		return
	}
	if err := sess.AppendAudio(frame); err != nil {
		logging.Errorf("[bridge] forward audio failed: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Model events
// ---------------------------------------------------------------------------

func (b *Bridge) onTranscript(role, text string) {
	if role == "user" {
		logging.Infof("[agent] user said: %q", text)
	} else {
		logging.Infof("[agent] %s: %s", role, text)
	}
	b.appendHistory(role, text)
}

func (b *Bridge) onConversationItem(role, text string) {
	logging.Infof("[agent] %s: %s", role, text)
}

func (b *Bridge) onSpeechCreated(responseID string) {
	logging.Infof("[agent] speech created (response %s)", responseID)
}

func (b *Bridge) onAgentStateChanged(oldState, newState string) {
	logging.Infof("[agent] agent: %s -> %s", oldState, newState)
	b.mu.Lock()
	b.agentState = newState
	b.mu.Unlock()
}

func (b *Bridge) onUserStateChanged(oldState, newState string) {
	logging.Infof("[agent] user: %s -> %s", oldState, newState)
	b.mu.Lock()
	b.userState = newState
	b.mu.Unlock()
}

func (b *Bridge) onModelAudio(audio []byte) {
	if err := b.room.PublishAudio(audio); err != nil {
		logging.Errorf("[bridge] publish audio failed: %v", err)
	}
}

func (b *Bridge) onModelError(err error) {
	logging.Errorf("[agent] model error: %v", err)
}

// onToolCall dispatches the call on its own goroutine so the event stream
// is never blocked on an external adapter. Results carry the model's call
// id, so concurrent calls may complete in any order.
func (b *Bridge) onToolCall(call realtime.ToolCall) {
	logging.Infof("[agent] tool call %s (call %s)", call.Name, call.CallID)
	go func() {
		// Adapters bound their own calls (10 s HTTP timeouts); in-flight
		// executions are allowed to finish even if the session closes.
		result := b.registry.Execute(context.Background(), call.Name, call.Arguments)
		b.deliver(call.CallID, result)
	}()
}

// deliver hands a tool result back to the model, unless the session has
// closed in the meantime, in which case the result is dropped.
func (b *Bridge) deliver(callID string, result *tools.ToolResult) {
	b.mu.Lock()
	sess := b.sess
	active := b.state == SessionActive
	b.mu.Unlock()

	if !active {
		logging.Infof("[bridge] dropping result for call %s: session closed", callID)
		return
	}

	logging.Infof("[agent] tool result (call %s, error=%v): %s", callID, result.IsError, result.Content)
	if err := sess.SendToolResult(callID, result.Content, result.IsError); err != nil {
		logging.Errorf("[bridge] deliver tool result failed: %v", err)
	}
}

func (b *Bridge) appendHistory(role, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, HistoryItem{Role: role, Text: text, At: time.Now()})
}
