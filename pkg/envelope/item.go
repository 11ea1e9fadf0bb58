package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the StreamItem variants. The JSON field is "type" and
// carries the lowercase variant name, matching the wire contract in full.
type Kind string

const (
	KindData     Kind = "data"
	KindProgress Kind = "progress"
	KindError    Kind = "error"
	KindDone     Kind = "done"
	KindRequest  Kind = "request"
)

// StreamItem is the only type that crosses the wire. Exactly one variant's
// fields are populated per item, selected by Kind. Metadata is always a
// flat sibling of the payload fields — never nested under a wrapper key —
// because MarshalJSON below flattens Metadata and the active variant into
// one object.
type StreamItem struct {
	Kind     Kind
	Metadata Metadata

	// Data
	ContentType string
	Content     json.RawMessage

	// Progress
	Message    string
	Percentage *float64

	// Error
	ErrorMessage string
	ErrorCode    *string
	Recoverable  bool

	// Request
	RequestID   uuid.UUID
	RequestData json.RawMessage
	TimeoutMS   int64
}

// Data constructs a Data envelope. content is marshaled eagerly so that a
// marshal failure surfaces at construction time rather than on the wire.
func Data(meta Metadata, contentType string, content interface{}) (StreamItem, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return StreamItem{}, fmt.Errorf("envelope: marshal data content: %w", err)
	}
	return StreamItem{
		Kind:        KindData,
		Metadata:    meta,
		ContentType: contentType,
		Content:     raw,
	}, nil
}

// DataRaw is Data for callers that already hold a json.RawMessage.
func DataRaw(meta Metadata, contentType string, content json.RawMessage) StreamItem {
	return StreamItem{Kind: KindData, Metadata: meta, ContentType: contentType, Content: content}
}

// Progress constructs a non-terminal Progress envelope.
func Progress(meta Metadata, message string, percentage *float64) StreamItem {
	return StreamItem{Kind: KindProgress, Metadata: meta, Message: message, Percentage: percentage}
}

// Error constructs an Error envelope. recoverable:false marks the stream
// terminal; recoverable:true allows further items to follow.
func Error(meta Metadata, message string, code *string, recoverable bool) StreamItem {
	return StreamItem{
		Kind:         KindError,
		Metadata:     meta,
		ErrorMessage: message,
		ErrorCode:    code,
		Recoverable:  recoverable,
	}
}

// Done constructs the terminal success marker.
func Done(meta Metadata) StreamItem {
	return StreamItem{Kind: KindDone, Metadata: meta}
}

// Request constructs a server-initiated request envelope. The correlating
// response arrives out-of-band, keyed by RequestID (see internal/bidir).
func Request(meta Metadata, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) StreamItem {
	return StreamItem{
		Kind:        KindRequest,
		Metadata:    meta,
		RequestID:   requestID,
		RequestData: data,
		TimeoutMS:   timeoutMS,
	}
}

// IsTerminal reports whether this item ends a stream: Done, or an Error
// marked non-recoverable. Progress and recoverable Error are not terminal.
func (i StreamItem) IsTerminal() bool {
	if i.Kind == KindDone {
		return true
	}
	if i.Kind == KindError && !i.Recoverable {
		return true
	}
	return false
}

// wireData, wireProgress, etc. are the exact flat JSON shapes per variant.
// Metadata fields are embedded so they sit as siblings of the payload,
// never nested in a wrapper object.

type wireData struct {
	Type string `json:"type"`
	Metadata
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content"`
}

type wireProgress struct {
	Type string `json:"type"`
	Metadata
	Message    string   `json:"message"`
	Percentage *float64 `json:"percentage,omitempty"`
}

type wireError struct {
	Type string `json:"type"`
	Metadata
	Message     string  `json:"message"`
	Code        *string `json:"code,omitempty"`
	Recoverable bool    `json:"recoverable"`
}

type wireDone struct {
	Type string `json:"type"`
	Metadata
}

type wireRequest struct {
	Type string `json:"type"`
	Metadata
	RequestID   uuid.UUID       `json:"request_id"`
	RequestData json.RawMessage `json:"request_data"`
	TimeoutMS   int64           `json:"timeout_ms"`
}

// MarshalJSON produces the flat, discriminated wire shape for the active
// variant only; unrelated fields on StreamItem are never emitted.
func (i StreamItem) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case KindData:
		return json.Marshal(wireData{
			Type: string(KindData), Metadata: i.Metadata,
			ContentType: i.ContentType, Content: i.Content,
		})
	case KindProgress:
		return json.Marshal(wireProgress{
			Type: string(KindProgress), Metadata: i.Metadata,
			Message: i.Message, Percentage: i.Percentage,
		})
	case KindError:
		return json.Marshal(wireError{
			Type: string(KindError), Metadata: i.Metadata,
			Message: i.ErrorMessage, Code: i.ErrorCode, Recoverable: i.Recoverable,
		})
	case KindDone:
		return json.Marshal(wireDone{Type: string(KindDone), Metadata: i.Metadata})
	case KindRequest:
		return json.Marshal(wireRequest{
			Type: string(KindRequest), Metadata: i.Metadata,
			RequestID: i.RequestID, RequestData: i.RequestData, TimeoutMS: i.TimeoutMS,
		})
	default:
		return nil, fmt.Errorf("envelope: unknown kind %q", i.Kind)
	}
}

// UnmarshalJSON dispatches on the "type" discriminator and fills only the
// fields that belong to that variant.
func (i *StreamItem) UnmarshalJSON(b []byte) error {
	var disc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &disc); err != nil {
		return fmt.Errorf("envelope: decode discriminator: %w", err)
	}

	switch Kind(disc.Type) {
	case KindData:
		var w wireData
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*i = StreamItem{Kind: KindData, Metadata: w.Metadata, ContentType: w.ContentType, Content: w.Content}
	case KindProgress:
		var w wireProgress
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*i = StreamItem{Kind: KindProgress, Metadata: w.Metadata, Message: w.Message, Percentage: w.Percentage}
	case KindError:
		var w wireError
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*i = StreamItem{Kind: KindError, Metadata: w.Metadata, ErrorMessage: w.Message, ErrorCode: w.Code, Recoverable: w.Recoverable}
	case KindDone:
		var w wireDone
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*i = StreamItem{Kind: KindDone, Metadata: w.Metadata}
	case KindRequest:
		var w wireRequest
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		*i = StreamItem{Kind: KindRequest, Metadata: w.Metadata, RequestID: w.RequestID, RequestData: w.RequestData, TimeoutMS: w.TimeoutMS}
	default:
		return fmt.Errorf("envelope: unknown stream item type %q", disc.Type)
	}
	return nil
}
