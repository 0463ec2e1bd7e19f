// Package room abstracts the transport-level meeting space the assistant
// joins. The bridge observes membership and exchanges audio; it never owns
// the room.
package room

// Participant identifies a remote participant in the room.
type Participant struct {
	Identity string
}

// Handlers is the finite set of typed callbacks a room consumer can
// register. Subscribe installs them; Unsubscribe removes them all.
type Handlers struct {
	OnParticipantJoined func(Participant)
	OnParticipantLeft   func(Participant)
	OnAudioFrame        func(frame []byte) // inbound audio from remote participants
	OnDisconnected      func()
}

// Room is the bridge's view of the transport layer.
type Room interface {
	// Name returns the room name.
	Name() string

	// RemoteCount returns the current number of remote participants.
	RemoteCount() int

	// Subscribe installs the event handlers. At most one subscriber.
	Subscribe(h Handlers)

	// Unsubscribe removes all handlers.
	Unsubscribe()

	// PublishAudio writes one frame of agent speech into the room.
	PublishAudio(frame []byte) error

	// Disconnect leaves the room.
	Disconnect()
}
