package demoactivations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/pkg/handle"
)

// bidirTimeoutCode is the in-stream Error code a bidirectional timeout
// surfaces under, per the wire contract's recoverable-error taxonomy.
const bidirTimeoutCode = "bidir.timeout"

// isBidirTimeout reports whether err is a bidir.Error of Kind
// bidir.KindTimeout.
func isBidirTimeout(err error) bool {
	var be *bidir.Error
	return errors.As(err, &be) && be.Kind == bidir.KindTimeout
}

// Interactive demonstrates bidirectional communication patterns: user
// confirmations via ch.Confirm, text prompts via ch.Prompt, and
// selection menus via ch.Select. Ported from
// original_source/src/activations/interactive/activation.rs.
type Interactive struct{}

func (Interactive) Descriptor() activation.Descriptor {
	return activation.Descriptor{
		Namespace: "interactive",
		Version:   "1.0.0",
		Methods: []activation.MethodSchema{
			{Name: "wizard", Description: "multi-step project setup wizard", Bidir: true},
			{Name: "delete", Description: "delete files, with confirmation", Bidir: true},
			{Name: "confirm", Description: "ask a single yes/no question", Bidir: true},
		},
	}
}

func (a Interactive) Call(ctx context.Context, method string, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	switch method {
	case "wizard":
		return a.wizard(ctx, emit, ch)
	case "delete":
		return a.delete(ctx, params, emit, ch)
	case "confirm":
		return a.confirm(ctx, params, emit, ch)
	default:
		return fmt.Errorf("interactive: unknown method %q", method)
	}
}

func (a Interactive) MethodHelp(name string) *string {
	return activation.MethodHelpFromDescriptor(a.Descriptor(), name)
}

// ResolveHandle defaults to HandleNotSupported: Interactive's methods are
// one-shot bidirectional flows, not externally-addressable data.
func (a Interactive) ResolveHandle(ctx context.Context, h handle.Handle, emit activation.Emitter) error {
	return activation.HandleNotSupported(a.Descriptor().Namespace)
}

func (a Interactive) FullSchema() activation.Descriptor {
	return a.Descriptor()
}

// bidirErrorMessage flattens a bidir.Error into the short, user-facing
// string the original's bidir_error_message helper produces.
func bidirErrorMessage(err error) string {
	var be *bidir.Error
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

func (a Interactive) wizard(ctx context.Context, emit activation.Emitter, ch bidir.Channel) error {
	if err := emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardStarted()}); err != nil {
		return err
	}

	name, err := ch.Prompt(ctx, "Enter project name:", 0)
	switch {
	case err == nil && name == "":
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardError("Name cannot be empty")})
	case err != nil:
		if isBidirTimeout(err) {
			return emit.EmitError(ctx, bidirErrorMessage(err), bidirTimeoutCode)
		}
		var be *bidir.Error
		if errors.As(err, &be) && be.Kind == bidir.KindNotSupported {
			return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardError("Interactive mode required. Use a bidirectional transport.")})
		}
		if errors.As(err, &be) && be.Kind == bidir.KindCancelled {
			return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardCancelled()})
		}
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardError(bidirErrorMessage(err))})
	}
	if err := emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardNameCollected(name)}); err != nil {
		return err
	}

	templates := []bidir.SelectOption{
		{Value: "minimal", Label: "Minimal"},
		{Value: "full", Label: "Full"},
		{Value: "api", Label: "API"},
	}
	selected, err := ch.Select(ctx, "Choose template:", templates, 0)
	switch {
	case err == nil && len(selected) == 0:
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardError("No template selected")})
	case err != nil:
		if isBidirTimeout(err) {
			return emit.EmitError(ctx, bidirErrorMessage(err), bidirTimeoutCode)
		}
		var be *bidir.Error
		if errors.As(err, &be) && be.Kind == bidir.KindCancelled {
			return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardCancelled()})
		}
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardError(bidirErrorMessage(err))})
	}
	template := selected[0]
	if err := emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardTemplateSelected(template)}); err != nil {
		return err
	}

	confirmed, err := ch.Confirm(ctx, fmt.Sprintf("Create project %q with %q template?", name, template), 0)
	if err != nil {
		if isBidirTimeout(err) {
			return emit.EmitError(ctx, bidirErrorMessage(err), bidirTimeoutCode)
		}
		var be *bidir.Error
		if errors.As(err, &be) && be.Kind == bidir.KindCancelled {
			return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardCancelled()})
		}
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardError(bidirErrorMessage(err))})
	}
	if !confirmed {
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardCancelled()})
	}

	if err := emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardCreated(name, template)}); err != nil {
		return err
	}
	return emit.Emit(ctx, activation.Event{ContentType: "interactive.wizard", Payload: wizardDone()})
}

type deleteParams struct {
	Paths []string `json:"paths"`
}

func (a Interactive) delete(ctx context.Context, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	var req deleteParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return fmt.Errorf("interactive.delete: invalid params: %w", err)
		}
	}
	if len(req.Paths) == 0 {
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.delete", Payload: deleteDone()})
	}

	message := fmt.Sprintf("Delete %q?", req.Paths[0])
	if len(req.Paths) > 1 {
		message = fmt.Sprintf("Delete %d files?", len(req.Paths))
	}

	confirmed, err := ch.Confirm(ctx, message, 0)
	if err != nil || !confirmed {
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.delete", Payload: deleteCancelled()})
	}

	for _, p := range req.Paths {
		if err := emit.Emit(ctx, activation.Event{ContentType: "interactive.delete", Payload: deleteDeleted(p)}); err != nil {
			return err
		}
	}
	return emit.Emit(ctx, activation.Event{ContentType: "interactive.delete", Payload: deleteDone()})
}

type confirmParams struct {
	Message string `json:"message"`
}

func (a Interactive) confirm(ctx context.Context, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	var req confirmParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return fmt.Errorf("interactive.confirm: invalid params: %w", err)
		}
	}

	confirmed, err := ch.Confirm(ctx, req.Message, 0)
	if err != nil {
		if isBidirTimeout(err) {
			return emit.EmitError(ctx, bidirErrorMessage(err), bidirTimeoutCode)
		}
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.confirm", Payload: confirmError(bidirErrorMessage(err))})
	}
	if confirmed {
		return emit.Emit(ctx, activation.Event{ContentType: "interactive.confirm", Payload: confirmConfirmed()})
	}
	return emit.Emit(ctx, activation.Event{ContentType: "interactive.confirm", Payload: confirmDeclined()})
}
