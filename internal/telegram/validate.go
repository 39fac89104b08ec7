package telegram

import (
	"bytes"
	"encoding/json"
)

// apiEnvelope is the outer object every Bot API response is wrapped in.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// validateResponse normalizes a raw transport result into the result payload
// or a typed error, independent of which API method was called. callErr is
// the error of the HTTP call itself (if any); body and statusCode come from
// the HTTP response when one was obtained. Pure function of its input.
func validateResponse(body []byte, statusCode int, callErr error) (json.RawMessage, error) {
	if callErr != nil {
		return nil, &TransportError{Err: callErr}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &EmptyBodyError{StatusCode: statusCode}
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIRejectionError{Body: body}
	}

	if !env.OK {
		return nil, &APIRejectionError{Description: env.Description, Body: body}
	}

	return env.Result, nil
}
