package persona

import (
	"fmt"
	"strings"
)

// languageRule is appended last to every instruction the engine sends.
const languageRule = `# Language Rule (CRITICAL, overrides every other instruction)
- Write ONLY in Korean (한국어), using Hangul only.
- NO HANJA: never use Chinese characters (e.g. 恩惠 -> 은혜).
- Apply this rule even if the user's text is written in another language or contains Hanja.
`

// Opening message length bounds, in characters.
const (
	openingMinChars = 150
	openingMaxChars = 250
)

const classifierSystem = "You are a biblical persona analyzer. Output a single valid JSON object and nothing else."

var classificationSchema = &Schema{
	Fields: []SchemaField{
		{Name: "character", Description: "One of: David, Paul, Peter, John, Moses, Esther"},
		{Name: "reason", Description: "Why the text matches this figure, citing at least two concrete words from it"},
		{Name: "opening_message", Description: "The figure's first message to the user, 150-250 characters"},
	},
}

func buildClassificationPrompt(registry *Registry, content string) string {
	var b strings.Builder

	// Layer 1: Task
	b.WriteString("# Task\n")
	b.WriteString("Analyze the devotional text below (User Content). Match the writer's emotional tone, spiritual theme and writing style with exactly ONE of the biblical figures listed.\n\n")

	// Layer 2: Profiles
	b.WriteString("# Biblical Figures\n")
	for i, p := range registry.Profiles() {
		fmt.Fprintf(&b, "%d. **%s (%s)**\n", i+1, p.ID, p.KoreanName)
		fmt.Fprintf(&b, "   - Vibe: %s\n", strings.Join(p.Vibe, ", "))
		fmt.Fprintf(&b, "   - Focus: %s\n", strings.Join(p.Focus, ", "))
		fmt.Fprintf(&b, "   - Voice: %s Address terms: %s\n", p.Voice, strings.Join(p.AddressTerms, ", "))
		fmt.Fprintf(&b, "   - Emotional triggers: %s\n", strings.Join(p.Triggers.Emotion, ", "))
		fmt.Fprintf(&b, "   - Thematic triggers: %s\n", strings.Join(p.Triggers.Theme, ", "))
		fmt.Fprintf(&b, "   - Style triggers: %s\n", strings.Join(p.Triggers.Style, ", "))
		if len(p.OpeningLines) > 0 {
			fmt.Fprintf(&b, "   - Tone examples: %s\n", strings.Join(p.OpeningLines, " / "))
		}
	}
	b.WriteString("\n")

	// Layer 3: Selection priority
	b.WriteString("# Selection Rules\n")
	b.WriteString("- Signals often overlap. Resolve them by weight: emotional tone first, then spiritual theme, then language style.\n")
	fmt.Fprintf(&b, "- If the text carries no discernible devotional or emotional content, choose %s, say in the reason that this is the default match, and use the opening message to gently invite the writer to share more.\n\n", FallbackPersona)

	// Layer 4: Output format
	b.WriteString("# Output Rules\n")
	b.WriteString("Return ONLY a JSON object with exactly these three fields. No markdown, no code fences, no text before or after it.\n")
	b.WriteString(`{"character": "David|Paul|Peter|John|Moses|Esther", "reason": "string", "opening_message": "string"}`)
	b.WriteString("\n")
	b.WriteString("- reason: explain the match by quoting at least TWO concrete words or expressions that appear in the user's text.\n")
	fmt.Fprintf(&b, "- opening_message: %d to %d characters, in the figure's own voice, in this order: empathy with the writer's situation, a personal connection from the figure's life, one insight, an invitation to keep talking.\n", openingMinChars, openingMaxChars)
	b.WriteString("- opening_message must not quote scripture and must not use generic platitudes.\n")
	if banned := registry.BannedPhrases(); len(banned) > 0 {
		fmt.Fprintf(&b, "- Never write these phrases: %s\n", strings.Join(banned, ", "))
	}
	b.WriteString("\n")

	// Layer 5: Content
	b.WriteString("User Content:\n\"\"\"\n")
	b.WriteString(content)
	b.WriteString("\n\"\"\"\n\n")

	// Layer 6: Language
	b.WriteString(languageRule)

	return b.String()
}

// buildSystemInstruction renders a voice profile into the chat system block.
func buildSystemInstruction(p VoiceProfile, userContext string) string {
	var b strings.Builder

	b.WriteString("# Identity\n")
	b.WriteString(p.Identity)
	fmt.Fprintf(&b, "\nYour Korean name is %s.\n\n", p.KoreanName)

	b.WriteString("# Voice\n")
	fmt.Fprintf(&b, "- Tone: %s\n", strings.Join(p.Vibe, ", "))
	fmt.Fprintf(&b, "- Themes you return to: %s\n", strings.Join(p.Focus, ", "))
	fmt.Fprintf(&b, "- %s\n", p.Voice)
	if len(p.AddressTerms) > 0 {
		fmt.Fprintf(&b, "- Address the user as: %s\n", strings.Join(p.AddressTerms, ", "))
	}
	b.WriteString("\n")

	b.WriteString("# Forbidden\n")
	b.WriteString("- Do not quote scripture verses.\n")
	b.WriteString("- Do not preach or lecture; talk with the user, not at them.\n")
	b.WriteString("- Do not use generic stock phrases.\n")
	if len(p.BannedPhrases) > 0 {
		fmt.Fprintf(&b, "- Never write these phrases: %s\n", strings.Join(p.BannedPhrases, ", "))
	}
	b.WriteString("- Stay in character; never mention being an AI.\n")
	b.WriteString("- Keep replies conversational: a few sentences, not an essay.\n\n")

	if ctx := strings.TrimSpace(userContext); ctx != "" {
		b.WriteString("# Background\n")
		b.WriteString("The user wrote this devotional reflection before the conversation began. Use it as background. If it conflicts with what the user says in the conversation, follow the conversation.\n")
		b.WriteString("\"\"\"\n")
		b.WriteString(ctx)
		b.WriteString("\n\"\"\"\n\n")
	}

	b.WriteString(languageRule)

	return b.String()
}
