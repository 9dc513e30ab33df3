package consultation

import "strings"

const groundRules = `You are playing a patient in a medical communication training session.
Rules:
- Stay in character at all times.
- React to the doctor's tone: warmth and clear explanations help you, dismissiveness and jargon do not.
- Keep your underlying goal from the character profile in mind throughout the conversation.
- Never break character or mention that you are an AI.`

// ComposePersona builds the system prompt for the patient.
func ComposePersona(profile string, state EmotionalState) string {
	var b strings.Builder
	b.WriteString(groundRules)
	b.WriteString("\n\nCurrent emotional state: ")
	b.WriteString(string(state))
	b.WriteString("\n")
	b.WriteString(Guidance(state))
	b.WriteString("\n\nCharacter profile:\n")
	b.WriteString(strings.TrimSpace(profile))
	return b.String()
}
