package bidir

import "encoding/json"

// RequestKind closes the set of standard server-to-client request shapes
// a Channel may send: a yes/no confirmation, a free-text prompt, or a
// multi-choice selection.
type RequestKind string

const (
	RequestConfirm RequestKind = "confirm"
	RequestPrompt  RequestKind = "prompt"
	RequestSelect  RequestKind = "select"
)

// SelectOption is one choice offered by a RequestSelect request: a value
// the client sends back, a label shown to the user, and an optional
// longer description.
type SelectOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// StandardRequest is the wire shape carried in a StreamItem's
// RequestData for any of the three standard kinds.
type StandardRequest struct {
	Kind    RequestKind    `json:"kind"`
	Message string         `json:"message"`
	Options []SelectOption `json:"options,omitempty"`
}

// ResponseKind closes the set of standard client-to-server response
// shapes: a boolean confirmation, free text, a list of selected options,
// or an explicit cancellation of the pending request.
type ResponseKind string

const (
	ResponseConfirmed ResponseKind = "confirmed"
	ResponseText      ResponseKind = "text"
	ResponseSelected  ResponseKind = "selected"
	ResponseCancelled ResponseKind = "cancelled"
)

// StandardResponse is the wire shape a client sends back for a
// StandardRequest. Exactly one payload field is meaningful, selected by
// Kind.
type StandardResponse struct {
	Kind      ResponseKind `json:"kind"`
	Confirmed bool         `json:"confirmed,omitempty"`
	Text      string       `json:"text,omitempty"`
	Selected  []string     `json:"selected,omitempty"`
}

func marshalRequest(r StandardRequest) (json.RawMessage, error) {
	return json.Marshal(r)
}

func unmarshalResponse(raw json.RawMessage) (StandardResponse, error) {
	var r StandardResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return StandardResponse{}, err
	}
	return r, nil
}
