package demoactivations

// WizardEvent is the closed set of events the wizard method emits, one
// per Data envelope, ported from original_source's WizardEvent enum.
// Event discriminates the variant; only the fields relevant to that
// variant are populated.
type WizardEvent struct {
	Event    string `json:"event"`
	Name     string `json:"name,omitempty"`
	Template string `json:"template,omitempty"`
	Message  string `json:"message,omitempty"`
}

func wizardStarted() WizardEvent                 { return WizardEvent{Event: "started"} }
func wizardNameCollected(name string) WizardEvent { return WizardEvent{Event: "name_collected", Name: name} }
func wizardTemplateSelected(tpl string) WizardEvent {
	return WizardEvent{Event: "template_selected", Template: tpl}
}
func wizardCreated(name, tpl string) WizardEvent {
	return WizardEvent{Event: "created", Name: name, Template: tpl}
}
func wizardCancelled() WizardEvent           { return WizardEvent{Event: "cancelled"} }
func wizardError(message string) WizardEvent { return WizardEvent{Event: "error", Message: message} }
func wizardDone() WizardEvent                { return WizardEvent{Event: "done"} }

// DeleteEvent is the closed set of events the delete method emits.
type DeleteEvent struct {
	Event string `json:"event"`
	Path  string `json:"path,omitempty"`
}

func deleteDeleted(path string) DeleteEvent { return DeleteEvent{Event: "deleted", Path: path} }
func deleteCancelled() DeleteEvent          { return DeleteEvent{Event: "cancelled"} }
func deleteDone() DeleteEvent               { return DeleteEvent{Event: "done"} }

// ConfirmEvent is the closed set of events the confirm method emits.
type ConfirmEvent struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}

func confirmConfirmed() ConfirmEvent           { return ConfirmEvent{Event: "confirmed"} }
func confirmDeclined() ConfirmEvent            { return ConfirmEvent{Event: "declined"} }
func confirmError(message string) ConfirmEvent { return ConfirmEvent{Event: "error", Message: message} }
