package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrSessionExpired = errors.New("client: session expired")
	ErrDeleteRejected = errors.New("client: delete rejected")
	ErrNotConfigured  = errors.New("client: base url is required")
)

const (
	textCodeSessionExpired = "SESSION_EXPIRED"
	textCodeTransport      = "TRANSPORT_FAILED"
	textCodeAPI            = "API_ERROR"
	textCodeDeleteRejected = "DELETE_REJECTED"
)

// GenericMessage is shown when the backend sends no usable message.
const GenericMessage = "Une erreur est survenue."

// APIError is a non 2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Message extracts the user facing message of err: the backend message for
// API errors, a generic fallback otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return "Session expirée, veuillez vous reconnecter."
	}
	return GenericMessage
}

type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

func parseAPIError(status int, body []byte) *APIError {
	out := &APIError{Status: status}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		out.Message = GenericMessage
		return out
	}

	msg := strings.TrimSpace(parsed.Message)
	detail := strings.TrimSpace(parsed.Error)
	switch {
	case msg != "" && detail != "" && msg != detail:
		out.Message = msg + " : " + detail
	case msg != "":
		out.Message = msg
	case detail != "":
		out.Message = detail
	default:
		out.Message = GenericMessage
	}
	out.Fields = parseFieldErrors(parsed.Errors)
	return out
}

// parseFieldErrors accepts {"field": "msg"} and {"field": ["msg", ...]}.
func parseFieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	out := make(map[string][]string, len(generic))
	for field, value := range generic {
		var msgs []string
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			msgs = []string{single}
		} else if err := json.Unmarshal(value, &msgs); err != nil {
			continue
		}
		if clean := normalizeMessages(msgs); len(clean) > 0 {
			out[strings.TrimSpace(field)] = clean
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeMessages(msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		msg = strings.TrimSpace(msg)
		if msg == "" || slices.Contains(out, msg) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func sessionError() error {
	return goerrors.Wrap(ErrSessionExpired, goerrors.CategoryAuth, "session expired").
		WithTextCode(textCodeSessionExpired)
}

func transportError(err error, op string) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, op+" failed").
		WithTextCode(textCodeTransport)
}

func apiError(apiErr *APIError, op string) error {
	return goerrors.Wrap(apiErr, goerrors.CategoryExternal, op+": "+apiErr.Message).
		WithTextCode(textCodeAPI).
		WithCode(apiErr.Status)
}

func deleteRejected(kind, id, status string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %s %s returned status %q", ErrDeleteRejected, kind, id, status),
		goerrors.CategoryExternal, "delete rejected").
		WithTextCode(textCodeDeleteRejected)
}
