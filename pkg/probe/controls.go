package probe

// NextControl is the wizard's "next" affordance. the desktop arrow carries the
// accessible name, the mobile full-width button carries the test id and one of two texts.
func NextControl() Control {
	return NewControl("next",
		Label("Next step"),
		TestID("next-button"),
		Text("Next Step"),
		Text("Start Mediation"),
	)
}

// ReadyControl marks the application as rendered.
func ReadyControl(readyText string) Control {
	if readyText == "" {
		return NewControl("ready", Selector("h1"))
	}
	return NewControl("ready", TextContains(readyText), Selector("h1"))
}

// FieldControl is a form field by id.
func FieldControl(id string) Control {
	return NewControl(id, ID(id))
}

// SuggestionToggle is shown only while the field has a non-empty suggestion set.
func SuggestionToggle() Control {
	return NewControl("suggestion toggle", Label("Show suggestions"))
}

// SuggestionControl is a generated suggestion button containing text.
func SuggestionControl(text string) Control {
	return NewControl("suggestion", SelectorWithText("button", text))
}

// AddItemControl is the "Add item" button in the same input group as the field.
// several list widgets share the label, only the container tells them apart.
func AddItemControl(fieldID string) Control {
	return NewControl("add item", Within("div.flex.gap-2", ID(fieldID), Label("Add item")))
}

// ItemControl is a rendered list entry by its literal text.
func ItemControl(text string) Control {
	return NewControl("item", Text(text))
}

// ItemControls returns the per-item controls, keyed by role, in assertion order.
func ItemControls(text string) []Control {
	return []Control{
		NewControl("edit", Label("Edit "+text)),
		NewControl("delete", Label("Delete "+text)),
		NewControl("complete", Label("Mark "+text+" as complete")),
	}
}
