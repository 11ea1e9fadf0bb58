package demoactivations

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"plexus/internal/activation"
	"plexus/internal/bidir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	payloads    []interface{}
	errMessages []string
	errCodes    []string
}

func (e *recordingEmitter) Emit(ctx context.Context, ev activation.Event) error {
	e.payloads = append(e.payloads, ev.Payload)
	return nil
}

func (e *recordingEmitter) EmitProgress(ctx context.Context, message string, percentage *float64) error {
	return nil
}

func (e *recordingEmitter) EmitError(ctx context.Context, message string, code string) error {
	e.errMessages = append(e.errMessages, message)
	e.errCodes = append(e.errCodes, code)
	return nil
}

// timeoutChannel simulates a transport-level bidirectional timeout: every
// request fails with bidir.Timeout regardless of payload.
type timeoutChannel struct{}

func (timeoutChannel) Request(ctx context.Context, data json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	return nil, bidir.Timeout(0)
}

func (timeoutChannel) Confirm(ctx context.Context, message string, timeout time.Duration) (bool, error) {
	return false, bidir.Timeout(0)
}

func (timeoutChannel) Prompt(ctx context.Context, message string, timeout time.Duration) (string, error) {
	return "", bidir.Timeout(0)
}

func (timeoutChannel) Select(ctx context.Context, message string, options []bidir.SelectOption, timeout time.Duration) ([]string, error) {
	return nil, bidir.Timeout(0)
}

func lastEvent(t *testing.T, payloads []interface{}) string {
	t.Helper()
	require.NotEmpty(t, payloads)
	switch v := payloads[len(payloads)-1].(type) {
	case WizardEvent:
		return v.Event
	case DeleteEvent:
		return v.Event
	case ConfirmEvent:
		return v.Event
	default:
		t.Fatalf("unexpected payload type %T", v)
		return ""
	}
}

func anyEvent(payloads []interface{}, event string) bool {
	for _, p := range payloads {
		switch v := p.(type) {
		case WizardEvent:
			if v.Event == event {
				return true
			}
		case DeleteEvent:
			if v.Event == event {
				return true
			}
		}
	}
	return false
}

func TestWizardWithAutoResponses(t *testing.T) {
	ch := bidir.NewAutoRespondChannel().
		WithResponder(bidir.RequestPrompt, func(bidir.StandardRequest) bidir.StandardResponse {
			return bidir.StandardResponse{Kind: bidir.ResponseText, Text: "my-project"}
		}).
		WithResponder(bidir.RequestSelect, func(r bidir.StandardRequest) bidir.StandardResponse {
			return bidir.StandardResponse{Kind: bidir.ResponseSelected, Selected: []string{r.Options[0].Value}}
		}).
		WithResponder(bidir.RequestConfirm, func(bidir.StandardRequest) bidir.StandardResponse {
			return bidir.StandardResponse{Kind: bidir.ResponseConfirmed, Confirmed: true}
		})

	emitter := &recordingEmitter{}
	err := Interactive{}.Call(context.Background(), "wizard", nil, emitter, ch)
	require.NoError(t, err)

	assert.Equal(t, "done", lastEvent(t, emitter.payloads))
	assert.True(t, anyEvent(emitter.payloads, "started"))
	assert.True(t, anyEvent(emitter.payloads, "name_collected"))
	assert.True(t, anyEvent(emitter.payloads, "template_selected"))
	assert.True(t, anyEvent(emitter.payloads, "created"))
}

func TestWizardCancelled(t *testing.T) {
	ch := bidir.NewAutoRespondChannel().
		WithResponder(bidir.RequestPrompt, func(bidir.StandardRequest) bidir.StandardResponse {
			return bidir.StandardResponse{Kind: bidir.ResponseCancelled}
		})

	emitter := &recordingEmitter{}
	err := Interactive{}.Call(context.Background(), "wizard", nil, emitter, ch)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", lastEvent(t, emitter.payloads))
}

func TestDeleteConfirmed(t *testing.T) {
	ch := bidir.NewAutoRespondChannel()

	emitter := &recordingEmitter{}
	params := []byte(`{"paths":["file1.txt","file2.txt"]}`)
	err := Interactive{}.Call(context.Background(), "delete", params, emitter, ch)
	require.NoError(t, err)

	assert.True(t, anyEvent(emitter.payloads, "deleted"))
	assert.Equal(t, "done", lastEvent(t, emitter.payloads))
}

func TestDeleteDeclined(t *testing.T) {
	ch := bidir.NewAutoRespondChannel().
		WithResponder(bidir.RequestConfirm, func(bidir.StandardRequest) bidir.StandardResponse {
			return bidir.StandardResponse{Kind: bidir.ResponseConfirmed, Confirmed: false}
		})

	emitter := &recordingEmitter{}
	params := []byte(`{"paths":["file.txt"]}`)
	err := Interactive{}.Call(context.Background(), "delete", params, emitter, ch)
	require.NoError(t, err)

	assert.False(t, anyEvent(emitter.payloads, "deleted"))
	assert.Equal(t, "cancelled", lastEvent(t, emitter.payloads))
}

func TestConfirmYesAndNo(t *testing.T) {
	yesCh := bidir.NewAutoRespondChannel()
	emitter := &recordingEmitter{}
	err := Interactive{}.Call(context.Background(), "confirm", []byte(`{"message":"Proceed?"}`), emitter, yesCh)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", lastEvent(t, emitter.payloads))

	noCh := bidir.NewAutoRespondChannel().
		WithResponder(bidir.RequestConfirm, func(bidir.StandardRequest) bidir.StandardResponse {
			return bidir.StandardResponse{Kind: bidir.ResponseConfirmed, Confirmed: false}
		})
	emitter2 := &recordingEmitter{}
	err = Interactive{}.Call(context.Background(), "confirm", []byte(`{"message":"Proceed?"}`), emitter2, noCh)
	require.NoError(t, err)
	assert.Equal(t, "declined", lastEvent(t, emitter2.payloads))
}

func TestConfirmTimeoutEmitsRecoverableError(t *testing.T) {
	emitter := &recordingEmitter{}
	err := Interactive{}.Call(context.Background(), "confirm", []byte(`{"message":"Proceed?"}`), emitter, timeoutChannel{})
	require.NoError(t, err)

	require.Empty(t, emitter.payloads)
	require.Len(t, emitter.errCodes, 1)
	assert.Equal(t, bidirTimeoutCode, emitter.errCodes[0])
}

func TestWizardTimeoutEmitsRecoverableError(t *testing.T) {
	emitter := &recordingEmitter{}
	err := Interactive{}.Call(context.Background(), "wizard", nil, emitter, timeoutChannel{})
	require.NoError(t, err)

	require.Len(t, emitter.errCodes, 1)
	assert.Equal(t, bidirTimeoutCode, emitter.errCodes[0])
}

func TestHealthCheck(t *testing.T) {
	emitter := &recordingEmitter{}
	err := Health{}.Call(context.Background(), "check", nil, emitter, bidir.NewAutoRespondChannel())
	require.NoError(t, err)
	require.Len(t, emitter.payloads, 1)
	status, ok := emitter.payloads[0].(healthStatus)
	require.True(t, ok)
	assert.Equal(t, "ok", status.Status)
}
