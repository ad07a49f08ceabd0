package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/starneighbours/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// NeighbourResponse is the JSON representation of one neighbour repository
// and the stargazers it shares with the queried repository.
type NeighbourResponse struct {
	Repo       string              `json:"repo"`
	Stargazers []StargazerResponse `json:"stargazers"`
}

// StargazerResponse is the JSON representation of a GitHub user.
type StargazerResponse struct {
	Login string `json:"login"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toNeighbourResponses converts domain neighbours, keeping their order.
// An empty input encodes as [] rather than null.
func toNeighbourResponses(neighbours []model.Neighbour) []NeighbourResponse {
	resp := make([]NeighbourResponse, 0, len(neighbours))
	for _, n := range neighbours {
		stargazers := make([]StargazerResponse, 0, len(n.Stargazers))
		for _, u := range n.Stargazers {
			stargazers = append(stargazers, StargazerResponse{Login: u.Login})
		}
		resp = append(resp, NeighbourResponse{Repo: n.Repo, Stargazers: stargazers})
	}
	return resp
}
