package ask

import "strings"

// Messages holds the canned replies. Every reply is a pure function of its
// inputs so identical requests get identical text.
type Messages struct {
	Owner string
}

func (m Messages) owner() string {
	if m.Owner == "" {
		return "Matt"
	}
	return m.Owner
}

// Rejected is the reply for a query the router turned away.
func (m Messages) Rejected(category string) string {
	o := m.owner()
	lead := "That's outside what I can help with."
	switch category {
	case "empty":
		return "Ask me anything about " + o + "'s professional experience, for example " +
			"'agile transformation', 'team scaling' or 'payments modernization'."
	case "greeting":
		return "Hi there! I'm " + o + "'s portfolio assistant. I can walk you through his experience in " +
			"digital transformation, agile delivery and enterprise leadership. What would you like to know?"
	case "identity":
		return "I'm an assistant that helps you explore " + o + "'s professional portfolio. " +
			"I answer from specific stories about his transformation projects. What interests you?"
	case "weather":
		lead = "I can't check the weather."
	case "shopping":
		lead = "I can't help with shopping or product questions."
	case "sports":
		lead = "I don't follow sports scores."
	case "food":
		lead = "I don't have recipes or restaurant tips."
	case "finance":
		lead = "I can't give market or crypto advice."
	case "trivia":
		lead = "I'm not a general trivia engine."
	case "entertainment":
		lead = "I don't do jokes, poems or movie picks."
	}
	return lead + " I'm here to help you explore " + o + "'s portfolio of transformation work. " +
		"Try asking about a client, a capability or an outcome."
}

// NoMatch is the reply when nothing in the portfolio is relevant enough.
func (m Messages) NoMatch() string {
	o := m.owner()
	return "I don't have specific information about that in " + o + "'s portfolio. " +
		"His experience is primarily in enterprise digital transformation, agile delivery and " +
		"financial services. Want to explore what he has worked on?"
}

// EmbeddingUnavailable is the reply when the query could not be embedded.
func (m Messages) EmbeddingUnavailable() string {
	return "I'm having trouble searching " + m.owner() + "'s portfolio right now. Please try again in a moment."
}

// GenerationUnavailable is the reply when stories were found but no answer
// could be written. Sources are returned alongside it.
func (m Messages) GenerationUnavailable() string {
	return "I found relevant stories from " + m.owner() + "'s portfolio but couldn't write a summary right now. " +
		"The stories below are the closest matches."
}

// BudgetExhausted is the reply when the token budget is spent.
func (m Messages) BudgetExhausted() string {
	return "I've reached my usage limit for now. Please come back later to explore " +
		m.owner() + "'s portfolio."
}

// SystemPrompt is the generator instruction for the routed intent. Each
// theme in themes adds its framing guidance, in the order given.
func (m Messages) SystemPrompt(synthesis bool, themes ...string) string {
	o := m.owner()
	var b strings.Builder
	b.WriteString("You are a portfolio assistant that relays facts from " + o + "'s career stories.\n\n")
	b.WriteString("Your responses should:\n")
	b.WriteString("- Be grounded in the specific stories provided\n")
	b.WriteString("- Lead with outcomes and metrics when available\n")
	b.WriteString("- Cite specific clients and projects\n")
	b.WriteString("- Present facts in third person (" + o + " did X, he achieved Y)\n\n")
	b.WriteString("Never evaluate " + o + " (\"his ability to\", \"this demonstrates\", \"this reflects\"). " +
		"State the fact instead.\n\n")
	if synthesis {
		b.WriteString("The question asks about patterns across stories. Name the common theme in one sentence, " +
			"then give one example per story with its client and outcome.\n\n")
	} else {
		b.WriteString("Answer the question directly in 1-2 sentences, then give the specific example " +
			"from the context with its client and outcome.\n\n")
	}
	if len(themes) > 0 {
		b.WriteString("Frame each story by its theme:\n\n")
		for _, t := range themes {
			b.WriteString(themeGuidance(t, o))
			b.WriteString("\n\n")
		}
	}
	b.WriteString("CRITICAL: Base your answer ONLY on the context provided. If the context doesn't contain " +
		"relevant information, say so honestly.")
	return b.String()
}
