package rest

import (
	"net/http"

	"github.com/bwise1/civic_circle/util/websockets"
)

// LiveFeedSocket upgrades to the live report feed. The token query
// parameter is optional; anonymous clients receive public events only.
func (api *API) LiveFeedSocket(w http.ResponseWriter, r *http.Request) {
	var sub websockets.Subscriber
	if token := r.URL.Query().Get("token"); token != "" {
		actor, err := api.actorFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
			return
		}
		sub = websockets.Subscriber{UserID: actor.UserID.String(), Email: actor.Email, Role: actor.Role}
	}

	api.Deps.WebSocket.HandleConnections(w, r, sub)
}
