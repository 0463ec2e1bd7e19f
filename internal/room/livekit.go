package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/avavoice/ava/internal/logging"
)

// G.711 u-law, 8 kHz mono. The realtime model speaks the same format, so
// frames pass through both legs without transcoding.
const (
	ulawSampleRate = 8000
	frameDuration  = 20 * time.Millisecond
	bytesPerFrame  = ulawSampleRate / 50 // 160 bytes per 20 ms at 8 kHz
	agentTrackName = "agent-voice"
)

// ConnectInfo carries what's needed to join a LiveKit room as the agent.
type ConnectInfo struct {
	URL       string
	APIKey    string
	APISecret string
	RoomName  string
}

// LiveKitRoom implements Room on top of the LiveKit server SDK.
type LiveKitRoom struct {
	room  *lksdk.Room
	track *lksdk.LocalSampleTrack

	mu       sync.RWMutex
	handlers Handlers

	// leftover partial frame between PublishAudio calls
	pending []byte
}

// Connect joins the named room as the agent participant and publishes the
// agent's audio track.
func Connect(info ConnectInfo) (*LiveKitRoom, error) {
	r := &LiveKitRoom{}

	cb := &lksdk.RoomCallback{
		OnParticipantConnected: func(p *lksdk.RemoteParticipant) {
			if h := r.currentHandlers(); h.OnParticipantJoined != nil {
				h.OnParticipantJoined(Participant{Identity: p.Identity()})
			}
		},
		OnParticipantDisconnected: func(p *lksdk.RemoteParticipant) {
			if h := r.currentHandlers(); h.OnParticipantLeft != nil {
				h.OnParticipantLeft(Participant{Identity: p.Identity()})
			}
		},
		OnDisconnected: func() {
			if h := r.currentHandlers(); h.OnDisconnected != nil {
				h.OnDisconnected()
			}
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: r.onTrackSubscribed,
		},
	}

	// Unique identity per worker so two agents never collide in a room.
	identity := "ava-agent-" + uuid.NewString()[:8]

	lkRoom, err := lksdk.ConnectToRoom(info.URL, lksdk.ConnectInfo{
		APIKey:              info.APIKey,
		APISecret:           info.APISecret,
		RoomName:            info.RoomName,
		ParticipantIdentity: identity,
	}, cb)
	if err != nil {
		return nil, fmt.Errorf("connect to room: %w", err)
	}
	r.room = lkRoom

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypePCMU,
		ClockRate: ulawSampleRate,
		Channels:  1,
	})
	if err != nil {
		lkRoom.Disconnect()
		return nil, fmt.Errorf("create audio track: %w", err)
	}
	if _, err := lkRoom.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name: agentTrackName,
	}); err != nil {
		lkRoom.Disconnect()
		return nil, fmt.Errorf("publish audio track: %w", err)
	}
	r.track = track

	return r, nil
}

func (r *LiveKitRoom) Name() string {
	return r.room.Name()
}

func (r *LiveKitRoom) RemoteCount() int {
	return len(r.room.GetRemoteParticipants())
}

func (r *LiveKitRoom) Subscribe(h Handlers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = h
}

func (r *LiveKitRoom) Unsubscribe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = Handlers{}
}

// PublishAudio chunks agent speech into 20 ms u-law samples and writes them
// to the published track. Partial frames are buffered until the next call.
func (r *LiveKitRoom) PublishAudio(frame []byte) error {
	r.mu.Lock()
	buf := append(r.pending, frame...)
	r.pending = nil
	r.mu.Unlock()

	for len(buf) >= bytesPerFrame {
		chunk := buf[:bytesPerFrame]
		buf = buf[bytesPerFrame:]
		if err := r.track.WriteSample(media.Sample{
			Data:     chunk,
			Duration: frameDuration,
		}, nil); err != nil {
			return fmt.Errorf("write audio sample: %w", err)
		}
	}

	r.mu.Lock()
	r.pending = buf
	r.mu.Unlock()
	return nil
}

func (r *LiveKitRoom) Disconnect() {
	r.room.Disconnect()
}

// onTrackSubscribed forwards u-law payloads from remote audio tracks to the
// subscriber. Non-PCMU tracks are skipped; transcoding is out of scope here.
func (r *LiveKitRoom) onTrackSubscribed(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}
	if track.Codec().MimeType != webrtc.MimeTypePCMU {
		logging.Warnf("[room] skipping %s track from %s (only PCMU audio is bridged)",
			track.Codec().MimeType, rp.Identity())
		return
	}

	logging.Infof("[room] subscribed to audio from %s", rp.Identity())
	go func() {
		for {
			pkt, _, err := track.ReadRTP()
			if err != nil {
				return
			}
			if h := r.currentHandlers(); h.OnAudioFrame != nil && len(pkt.Payload) > 0 {
				h.OnAudioFrame(pkt.Payload)
			}
		}
	}()
}

func (r *LiveKitRoom) currentHandlers() Handlers {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers
}
