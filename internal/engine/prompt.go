package engine

import (
	"fmt"
	"strings"

	"github.com/pb1803/PDF-RAG/internal/models"
)

// Section markers form the textual contract between the prompt composer
// and the postprocessor. Both sides must agree on this vocabulary.
const (
	markerDefinition  = "## Definition"
	markerExplanation = "## Explanation"
	markerExample     = "## Example"
	markerTable       = "## Table"
	markerFollowUp    = "## Follow-up Question"
	markerSources     = "## Sources"
)

// disclosureNote is embedded in every general-knowledge answer.
const disclosureNote = "Note: This information was not found in the source material. It has been answered using general knowledge."

const tutorSystemPrompt = `You are an AI academic tutor that provides clean, well-formatted answers.

Always follow this structure:
` + markerDefinition + `
[2-3 lines maximum, a clear concise definition]

` + markerExplanation + `
[Simple, student-friendly explanation]

` + markerExample + `
[Only include if relevant and helpful, keep it brief]

` + markerTable + `
[Only for comparison questions: difference, compare, vs, advantages, disadvantages]

` + markerFollowUp + `
[One engaging question to continue learning]

` + markerSources + `
[List the page numbers from the source material]

Rules:
- Use clean Markdown formatting
- Keep explanations concise and readable
- Cite the page numbers given with the source material
- Use simple, student-friendly language
- Never show placeholders or ask for more context`

const generalSystemPrompt = `You are an AI academic tutor answering from general knowledge because the
source material does not contain this information.

Use the same structure (` + markerDefinition + `, ` + markerExplanation + `, ` + markerExample + ` if relevant,
` + markerFollowUp + `, ` + markerSources + `) and keep the answer accurate and educational.

Always end with: "` + disclosureNote + `"`

const blendedSystemPrompt = tutorSystemPrompt + `

The source material only partially covers this question. Blend the provided
excerpts with your general knowledge: state what comes from the source pages
and what is general knowledge, and list both page numbers and "External
sources" under ` + markerSources + `.`

// promptInput collects everything the composer needs for one request.
type promptInput struct {
	question  string
	strategy  models.AnswerStrategy
	fragments []models.Fragment
	window    []models.ConversationTurn
}

// composePrompt assembles the system and user prompts. The user prompt
// embeds, in order: the conversation window (oldest first, role-labeled),
// the fragment excerpts tagged with document and page, and the question.
//
// When the combined prompt exceeds MaxPromptBytes, older turns are dropped
// first, then fragment text is trimmed starting with the least-similar
// fragment. The question itself is never truncated.
func composePrompt(in promptInput, opts Options) (string, string) {
	system := tutorSystemPrompt
	switch in.strategy {
	case models.StrategyGeneralOnly:
		system = generalSystemPrompt
	case models.StrategyBlended:
		system = blendedSystemPrompt
	}

	window := in.window
	if len(window) > opts.HistoryWindow {
		window = window[len(window)-opts.HistoryWindow:]
	}

	fragments := in.fragments
	if in.strategy == models.StrategyGeneralOnly {
		fragments = nil
	}

	user := renderUserPrompt(in.question, fragments, window, in.strategy)

	// Size budget: drop the oldest turns first.
	for len(user) > opts.MaxPromptBytes && len(window) > 0 {
		window = window[1:]
		user = renderUserPrompt(in.question, fragments, window, in.strategy)
	}

	// Then trim fragment text, least-similar fragment first.
	if len(user) > opts.MaxPromptBytes && len(fragments) > 0 {
		fragments = trimFragments(fragments, len(user)-opts.MaxPromptBytes)
		user = renderUserPrompt(in.question, fragments, window, in.strategy)
	}

	return system, user
}

func renderUserPrompt(question string, fragments []models.Fragment, window []models.ConversationTurn, strategy models.AnswerStrategy) string {
	var b strings.Builder

	if len(window) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range window {
			b.WriteString(roleLabel(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(fragments) > 0 {
		b.WriteString("Source material:\n")
		for _, f := range fragments {
			if f.Text == "" {
				continue
			}
			if f.Page > 0 {
				fmt.Fprintf(&b, "[%s, Page %d]\n%s\n\n", f.DocumentID, f.Page, f.Text)
			} else {
				fmt.Fprintf(&b, "[%s]\n%s\n\n", f.DocumentID, f.Text)
			}
		}
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n")

	if detectComparison(question) {
		b.WriteString("\nThis is a comparison question: include a markdown comparison table in the " + markerTable + " section.\n")
	}

	switch strategy {
	case models.StrategyGeneralOnly:
		b.WriteString("\nAnswer from general knowledge and clearly mark the answer as such.")
	case models.StrategyBlended:
		b.WriteString("\nThe source material provides partial information. Blend it with general knowledge into a complete answer.")
	default:
		b.WriteString("\nAnswer using the source material, following the exact structure from the system prompt.")
	}

	return b.String()
}

func roleLabel(r models.Role) string {
	switch r {
	case models.RoleUser:
		return "Student"
	case models.RoleAssistant:
		return "Tutor"
	default:
		return "System"
	}
}

// trimFragments removes excess bytes from fragment text, starting with the
// lowest-scored fragment. Fragments are cleared one at a time until the
// excess is covered; the relative order never changes.
func trimFragments(fragments []models.Fragment, excess int) []models.Fragment {
	out := make([]models.Fragment, len(fragments))
	copy(out, fragments)

	for excess > 0 {
		idx := -1
		lowest := 2.0
		for i, f := range out {
			if len(f.Text) == 0 {
				continue
			}
			if f.Score < lowest {
				lowest = f.Score
				idx = i
			}
		}
		if idx < 0 {
			break
		}

		text := out[idx].Text
		if len(text) <= excess {
			excess -= len(text)
			out[idx].Text = ""
			continue
		}
		out[idx].Text = strings.TrimSpace(text[:len(text)-excess])
		excess = 0
	}

	return out
}
