// Package tokens mints short-lived LiveKit access tokens for clients that
// want to join a room.
package tokens

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/livekit/protocol/auth"

	"github.com/avavoice/ava/internal/config"
	"github.com/avavoice/ava/internal/logging"
)

const (
	tokenTTL        = time.Hour
	defaultIdentity = "ios-user"
)

// Issuer signs join tokens for the configured LiveKit deployment.
type Issuer struct {
	apiKey      string
	apiSecret   string
	defaultRoom string
}

// NewIssuer creates a token issuer from the startup configuration.
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		apiKey:      cfg.LiveKitAPIKey,
		apiSecret:   cfg.LiveKitAPISecret,
		defaultRoom: cfg.RoomName,
	}
}

// Mint returns a signed credential granting join, publish, subscribe and
// publish-data rights on the named room, valid for one hour.
func (i *Issuer) Mint(identity, room string) (string, error) {
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)
	grant.SetCanPublishData(true)

	at := auth.NewAccessToken(i.apiKey, i.apiSecret).
		SetIdentity(identity).
		SetValidFor(tokenTTL).
		SetVideoGrant(grant)
	return at.ToJWT()
}

type tokenRequest struct {
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Room  string `json:"room"`
}

// Routes returns the router serving POST /token.
func (i *Issuer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/token", i.handleToken)
	return r
}

func (i *Issuer) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Match the permissive behavior of the original endpoint: an empty
		// or malformed body falls back to defaults.
		req = tokenRequest{}
	}
	if req.Identity == "" {
		req.Identity = defaultIdentity
	}
	if req.Room == "" {
		req.Room = i.defaultRoom
	}

	token, err := i.Mint(req.Identity, req.Room)
	if err != nil {
		logging.Errorf("[token] mint failed for %s/%s: %v", req.Identity, req.Room, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "failed to mint token"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{Token: token, Room: req.Room})
}
