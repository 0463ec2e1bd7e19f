package realtime

import "encoding/json"

// Wire event types the session reacts to. Anything else is ignored.
const (
	// server -> client
	eventError                        = "error"
	eventSessionCreated               = "session.created"
	eventResponseCreated              = "response.created"
	eventResponseDone                 = "response.done"
	eventResponseAudioDelta           = "response.audio.delta"
	eventResponseAudioTranscriptDone  = "response.audio_transcript.done"
	eventResponseFunctionCallArgsDone = "response.function_call_arguments.done"
	eventInputTranscriptionCompleted  = "conversation.item.input_audio_transcription.completed"
	eventConversationItemCreated      = "conversation.item.created"
	eventInputSpeechStarted           = "input_audio_buffer.speech_started"
	eventInputSpeechStopped           = "input_audio_buffer.speech_stopped"

	// client -> server
	eventSessionUpdate          = "session.update"
	eventResponseCreate         = "response.create"
	eventConversationItemCreate = "conversation.item.create"
	eventInputAudioAppend       = "input_audio_buffer.append"
)

// serverEvent is the envelope every inbound message shares.
type serverEvent struct {
	Type string `json:"type"`

	// error
	Error *apiError `json:"error,omitempty"`

	// response.audio.delta
	Delta string `json:"delta,omitempty"`

	// response.audio_transcript.done
	Transcript string `json:"transcript,omitempty"`

	// response.function_call_arguments.done
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// conversation.item.created
	Item *conversationItem `json:"item,omitempty"`

	// response.created
	Response *responseInfo `json:"response,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type conversationItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

type itemContent struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
}

// text returns the first textual content of the item, if any.
func (i *conversationItem) text() string {
	for _, c := range i.Content {
		if c.Text != "" {
			return c.Text
		}
		if c.Transcript != "" {
			return c.Transcript
		}
	}
	return ""
}

type responseInfo struct {
	ID string `json:"id"`
}

// sessionUpdate configures the realtime session right after the socket opens.
type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities              []string       `json:"modalities"`
	Instructions            string         `json:"instructions"`
	Voice                   string         `json:"voice"`
	Temperature             float64        `json:"temperature"`
	InputAudioFormat        string         `json:"input_audio_format"`
	OutputAudioFormat       string         `json:"output_audio_format"`
	InputAudioTranscription *transcription `json:"input_audio_transcription,omitempty"`
	TurnDetection           *turnDetection `json:"turn_detection,omitempty"`
	Tools                   []toolSpec     `json:"tools,omitempty"`
}

type transcription struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type string `json:"type"`
}

// toolSpec is the function-tool shape the realtime API expects.
type toolSpec struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type responseCreate struct {
	Type     string          `json:"type"`
	Response responseOptions `json:"response"`
}

type responseOptions struct {
	Instructions string `json:"instructions,omitempty"`
}

type itemCreate struct {
	Type string     `json:"type"`
	Item outputItem `json:"item"`
}

// outputItem carries a function_call_output back to the model.
type outputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}
