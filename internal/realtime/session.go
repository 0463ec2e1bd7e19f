// Package realtime maintains a websocket session against the OpenAI
// Realtime API: one bidirectional audio stream plus the event traffic
// around it (transcripts, tool calls, state changes).
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avavoice/ava/internal/logging"
	"github.com/avavoice/ava/internal/tools"
)

const (
	realtimeURL = "wss://api.openai.com/v1/realtime"

	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
)

// Agent and user states surfaced through the state-change handlers.
const (
	StateIdle      = "idle"
	StateListening = "listening"
	StateThinking  = "thinking"
	StateSpeaking  = "speaking"
)

// Config describes the model session to open.
type Config struct {
	APIKey       string
	Model        string  // e.g. "gpt-realtime"
	Voice        string  // e.g. "alloy"
	Temperature  float64 // sampling temperature
	Instructions string  // persona / system instructions
	Tools        []tools.ToolDefinition
}

// ToolCall is a model-issued request to run a named tool. CallID correlates
// the eventual result with this call; results may come back in any order.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}

// Handlers is the finite set of typed callbacks a session owner can register.
// Registration happens once at session start; Close drops all handlers.
type Handlers struct {
	OnTranscript        func(role, text string) // completed user/assistant transcripts
	OnConversationItem  func(role, text string) // items added to the conversation
	OnToolCall          func(call ToolCall)
	OnSpeechCreated     func(responseID string)
	OnAgentStateChanged func(oldState, newState string)
	OnUserStateChanged  func(oldState, newState string)
	OnAudioDelta        func(audio []byte) // raw audio bytes in the session's output format
	OnError             func(err error)
	OnClosed            func()
}

// Session is a live connection to the realtime model.
type Session struct {
	conn     *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu         sync.Mutex
	closed     bool
	agentState string
	userState  string

	done chan struct{}
}

// Dial opens the websocket, configures the session (voice, audio format,
// tools, instructions) and starts delivering events to the given handlers.
func Dial(ctx context.Context, cfg Config, handlers Handlers) (*Session, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("realtime: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-realtime"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, realtimeURL+"?model="+cfg.Model, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime dial failed: %w", err)
	}

	s := &Session{
		conn:       conn,
		handlers:   handlers,
		agentState: StateIdle,
		userState:  StateIdle,
		done:       make(chan struct{}),
	}

	if err := s.configure(cfg); err != nil {
		conn.Close()
		return nil, err
	}

	go s.readLoop()
	return s, nil
}

// configure sends the initial session.update carrying persona, audio format
// and tool schemas. G.711 u-law passes through LiveKit tracks without any
// transcoding, so both directions use it.
func (s *Session) configure(cfg Config) error {
	specs := make([]toolSpec, 0, len(cfg.Tools))
	for _, def := range cfg.Tools {
		specs = append(specs, toolSpec{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}

	return s.writeJSON(sessionUpdate{
		Type: eventSessionUpdate,
		Session: sessionConfig{
			Modalities:              []string{"audio", "text"},
			Instructions:            cfg.Instructions,
			Voice:                   cfg.Voice,
			Temperature:             cfg.Temperature,
			InputAudioFormat:        "g711_ulaw",
			OutputAudioFormat:       "g711_ulaw",
			InputAudioTranscription: &transcription{Model: "whisper-1"},
			TurnDetection:           &turnDetection{Type: "server_vad"},
			Tools:                   specs,
		},
	})
}

// GenerateReply asks the model to produce an utterance following the given
// one-off instructions.
func (s *Session) GenerateReply(instructions string) error {
	return s.writeJSON(responseCreate{
		Type:     eventResponseCreate,
		Response: responseOptions{Instructions: instructions},
	})
}

// SendToolResult returns a tool outcome to the model and asks it to speak a
// follow-up. Error results are prefixed so the model knows the call failed.
func (s *Session) SendToolResult(callID, output string, isError bool) error {
	if isError {
		output = "Error: " + output
	}
	if err := s.writeJSON(itemCreate{
		Type: eventConversationItemCreate,
		Item: outputItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}); err != nil {
		return err
	}
	return s.writeJSON(responseCreate{Type: eventResponseCreate})
}

// AppendAudio streams one inbound audio frame to the model.
func (s *Session) AppendAudio(frame []byte) error {
	return s.writeJSON(audioAppend{
		Type:  eventInputAudioAppend,
		Audio: base64.StdEncoding.EncodeToString(frame),
	})
}

// Close tears the session down and unregisters all handlers. Safe to call
// more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.handlers = Handlers{}
	s.mu.Unlock()

	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.writeMu.Unlock()

	err := s.conn.Close()
	<-s.done
	return err
}

// Done is closed when the read loop exits, whether by Close or by the
// server dropping the connection.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) writeJSON(v any) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("realtime: session closed")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *Session) readLoop() {
	defer func() {
		close(s.done)
		if h := s.currentHandlers(); h.OnClosed != nil {
			h.OnClosed()
		}
	}()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				logging.Errorf("[realtime] read error: %v", err)
			}
			return
		}
		s.handleEvent(msg)
	}
}

func (s *Session) currentHandlers() Handlers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers
}

// handleEvent decodes one server event and fires the matching handler.
func (s *Session) handleEvent(msg []byte) {
	var ev serverEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		logging.Errorf("[realtime] bad event: %v", err)
		return
	}

	h := s.currentHandlers()

	switch ev.Type {
	case eventError:
		if h.OnError != nil && ev.Error != nil {
			h.OnError(fmt.Errorf("realtime api error (%s): %s", ev.Error.Code, ev.Error.Message))
		}

	case eventSessionCreated:
		logging.Infof("[realtime] session created")

	case eventResponseCreated:
		s.setAgentState(StateThinking, h)
		if h.OnSpeechCreated != nil {
			id := ""
			if ev.Response != nil {
				id = ev.Response.ID
			}
			h.OnSpeechCreated(id)
		}

	case eventResponseAudioDelta:
		s.setAgentState(StateSpeaking, h)
		if h.OnAudioDelta != nil && ev.Delta != "" {
			audio, err := base64.StdEncoding.DecodeString(ev.Delta)
			if err != nil {
				logging.Errorf("[realtime] bad audio delta: %v", err)
				return
			}
			h.OnAudioDelta(audio)
		}

	case eventResponseDone:
		s.setAgentState(StateListening, h)

	case eventResponseAudioTranscriptDone:
		if h.OnTranscript != nil && ev.Transcript != "" {
			h.OnTranscript("assistant", ev.Transcript)
		}

	case eventInputTranscriptionCompleted:
		if h.OnTranscript != nil && ev.Transcript != "" {
			h.OnTranscript("user", ev.Transcript)
		}

	case eventConversationItemCreated:
		if h.OnConversationItem != nil && ev.Item != nil {
			if text := ev.Item.text(); text != "" {
				h.OnConversationItem(ev.Item.Role, text)
			}
		}

	case eventResponseFunctionCallArgsDone:
		if h.OnToolCall != nil {
			h.OnToolCall(ToolCall{
				CallID:    ev.CallID,
				Name:      ev.Name,
				Arguments: json.RawMessage(ev.Arguments),
			})
		}

	case eventInputSpeechStarted:
		s.setUserState(StateSpeaking, h)

	case eventInputSpeechStopped:
		s.setUserState(StateListening, h)
	}
}

func (s *Session) setAgentState(state string, h Handlers) {
	s.mu.Lock()
	old := s.agentState
	if old == state {
		s.mu.Unlock()
		return
	}
	s.agentState = state
	s.mu.Unlock()

	if h.OnAgentStateChanged != nil {
		h.OnAgentStateChanged(old, state)
	}
}

func (s *Session) setUserState(state string, h Handlers) {
	s.mu.Lock()
	old := s.userState
	if old == state {
		s.mu.Unlock()
		return
	}
	s.userState = state
	s.mu.Unlock()

	if h.OnUserStateChanged != nil {
		h.OnUserStateChanged(old, state)
	}
}
