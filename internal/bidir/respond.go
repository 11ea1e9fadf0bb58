package bidir

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Respond delivers a StandardResponse to the pending request id in r. It
// is the counterpart callers (the router's dispatch of MCP's
// "_plexus_respond" tool, or a direct transport's response handler) use
// to resolve a Request call blocked in StandardChannel.Request.
func Respond(r *Registry, id uuid.UUID, resp StandardResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return r.Resolve(id, raw, nil)
}

// RespondRaw delivers an arbitrary JSON payload, for activations that
// define their own request/response shape instead of the standard one.
func RespondRaw(r *Registry, id uuid.UUID, data json.RawMessage) error {
	return r.Resolve(id, data, nil)
}

// Fail resolves a pending request with an error instead of a payload,
// used when the transport itself reports the client can't be reached.
func Fail(r *Registry, id uuid.UUID, err error) error {
	return r.Resolve(id, nil, err)
}
