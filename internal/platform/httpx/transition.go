package httpx

import (
	"net/http"
	"strings"

	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/shared"
)

// TransitionRequest is the body of POST /{entity}/{id}/transitions.
type TransitionRequest struct {
	Action string `json:"action"`
}

// DecodeAction reads the requested lifecycle action.
func DecodeAction(r *http.Request) (lifecycle.Action, error) {
	var req TransitionRequest
	if err := DecodeJSON(r, &req); err != nil {
		return "", err
	}
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return "", shared.NewValidationError("action", "is required")
	}
	return lifecycle.Action(action), nil
}
