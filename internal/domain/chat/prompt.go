package chat

// Model selects one of the two configured generation models.
type Model string

const (
	// ModelSimple is the fast model used for normalization and final phrasing.
	ModelSimple Model = "simple"
	// ModelReasoned is the slower model used for the middle escalation step.
	ModelReasoned Model = "reasoned"
)

// Valid reports whether m names a known model.
func (m Model) Valid() bool {
	return m == ModelSimple || m == ModelReasoned
}

const (
	// FarewellPrompt replaces the farewell command before it reaches the simple model.
	FarewellPrompt = "The user is ending the conversation. " +
		"Reply with a short, friendly goodbye and invite them to come back any time."

	// EscalationRequestPrefix introduces the simple model's reading of the request to the reasoned model.
	EscalationRequestPrefix = "Our client is requesting about this: "

	// EscalationReplyPrefix hands the reasoned answer back to the simple model for rephrasing.
	EscalationReplyPrefix = "Here is the relevant reasoned response: "
)
