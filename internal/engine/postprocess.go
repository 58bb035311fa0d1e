package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pb1803/PDF-RAG/internal/llm"
	"github.com/pb1803/PDF-RAG/internal/models"
)

// parseKind distinguishes a completion that followed the section contract
// from one that has to be treated as unstructured text.
type parseKind int

const (
	parseWellFormed parseKind = iota
	parseDegraded
)

// sectionSet holds the text of each recognized section.
type sectionSet struct {
	definition  string
	explanation string
	example     string
	table       string
	followUp    string
}

// parsedCompletion is the tagged result of parsing a raw completion:
// either WellFormed with sections, or Degraded carrying the raw text.
type parsedCompletion struct {
	kind     parseKind
	sections sectionSet
	raw      string
}

// parseCompletion splits a raw completion on the agreed section markers.
// Missing optional sections (Example, Table) are simply absent. If neither
// Definition nor Explanation can be found the whole completion degrades to
// raw text; degradation is never an error.
func parseCompletion(raw string) parsedCompletion {
	sections := map[string]*strings.Builder{}
	var current *strings.Builder

	for _, line := range strings.Split(raw, "\n") {
		if name, ok := sectionName(line); ok {
			b := &strings.Builder{}
			sections[name] = b
			current = b
			continue
		}
		if current != nil {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	get := func(name string) string {
		if b, ok := sections[name]; ok {
			return strings.TrimSpace(b.String())
		}
		return ""
	}

	s := sectionSet{
		definition:  get("definition"),
		explanation: get("explanation"),
		example:     get("example"),
		table:       get("table"),
		followUp:    firstLine(get("follow-up")),
	}

	if s.definition == "" && s.explanation == "" {
		return parsedCompletion{kind: parseDegraded, raw: strings.TrimSpace(raw)}
	}
	return parsedCompletion{kind: parseWellFormed, sections: s, raw: strings.TrimSpace(raw)}
}

// sectionName maps a heading line to its canonical section name.
func sectionName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	heading := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
	switch {
	case heading == "definition":
		return "definition", true
	case heading == "explanation":
		return "explanation", true
	case heading == "example" || heading == "examples":
		return "example", true
	case heading == "table" || heading == "comparison table":
		return "table", true
	case strings.HasPrefix(heading, "follow-up") || strings.HasPrefix(heading, "follow up") || heading == "followup":
		return "follow-up", true
	case heading == "sources" || heading == "source":
		return "sources", true
	}
	return "", false
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// comparisonKeywords is the vocabulary that marks a question as asking for
// a comparison.
var comparisonKeywords = []string{
	"difference", "differences", "compare", "comparison", "vs", "versus",
	"advantages", "disadvantages", "pros", "cons", "contrast",
	"similarities", "distinguish", "differentiate",
}

// detectComparison scans the question for comparison indicators.
func detectComparison(question string) bool {
	lower := strings.ToLower(question)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	for _, kw := range comparisonKeywords {
		if set[kw] {
			return true
		}
	}
	return false
}

const tableRepairSystemPrompt = `You produce markdown comparison tables.
Reply with only a markdown table that answers the question. No headings,
no prose before or after the table.`

// repairTable runs the dedicated second synthesis call that produces a
// comparison table when the main completion did not include one. This is
// not a retry of the main answer; on any failure the table is simply
// omitted.
func (e *Engine) repairTable(ctx context.Context, question string) string {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	table, err := e.gen.Generate(callCtx, llm.Request{
		System:      tableRepairSystemPrompt,
		User:        fmt.Sprintf("Question: %s", question),
		Temperature: 0.1,
		MaxTokens:   600,
	})
	if err != nil {
		e.log.Warn("table repair call failed, omitting table", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	table = strings.TrimSpace(table)
	if !strings.Contains(table, "|") {
		return ""
	}
	return table
}

// distinctPages returns the deduplicated, ascending page numbers of the
// fragments. Fragments without page information are skipped.
func distinctPages(fragments []models.Fragment) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, f := range fragments {
		if f.Page <= 0 || seen[f.Page] {
			continue
		}
		seen[f.Page] = true
		pages = append(pages, f.Page)
	}
	sort.Ints(pages)
	return pages
}

// formatPageCitation renders the citation line for the Sources section.
// Output is deterministic and built only from fragment metadata, so an
// unresolved placeholder can never appear.
func formatPageCitation(pages []int, maxPages int) string {
	switch {
	case len(pages) == 0:
		return ""
	case len(pages) == 1:
		return fmt.Sprintf("Page %d", pages[0])
	case len(pages) <= maxPages:
		parts := make([]string, len(pages))
		for i, p := range pages {
			parts[i] = fmt.Sprintf("%d", p)
		}
		return "Pages " + strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("Pages %d–%d (and others)", pages[0], pages[len(pages)-1])
	}
}

// buildSources derives the sources list authoritatively from fragment
// metadata; nothing is trusted from the completion text.
func buildSources(fragments []models.Fragment, strategy models.AnswerStrategy) []string {
	if strategy == models.StrategyGeneralOnly {
		return []string{"External sources"}
	}

	var sources []string
	for _, p := range distinctPages(fragments) {
		sources = append(sources, fmt.Sprintf("Page %d", p))
	}
	if len(sources) == 0 {
		seen := make(map[string]bool)
		for _, f := range fragments {
			if f.DocumentID == "" || seen[f.DocumentID] {
				continue
			}
			seen[f.DocumentID] = true
			sources = append(sources, fmt.Sprintf("Document %s", f.DocumentID))
		}
	}

	if strategy == models.StrategyBlended {
		sources = append(sources, "External sources")
	}
	return sources
}

// defaultFollowUp is the deterministic fallback when the completion has no
// usable follow-up line.
func defaultFollowUp(strategy models.AnswerStrategy) string {
	if strategy == models.StrategyGeneralOnly {
		return "Would you like to explore this further?"
	}
	return "Would you like an example?"
}

// computeConfidence maps the fragment score distribution into the
// strategy's confidence band. Within a fixed strategy the result is
// monotone in the maximum fragment score.
func computeConfidence(strategy models.AnswerStrategy, fragments []models.Fragment, opts Options) float64 {
	if strategy == models.StrategyGeneralOnly || len(fragments) == 0 {
		return 0.0
	}

	maxScore := 0.0
	sum := 0.0
	for _, f := range fragments {
		if f.Score > maxScore {
			maxScore = f.Score
		}
		sum += f.Score
	}
	mean := sum / float64(len(fragments))
	base := 0.7*maxScore + 0.3*mean

	floor, ceil := opts.FragmentFloor, opts.FragmentCeil
	if strategy == models.StrategyBlended {
		floor, ceil = opts.BlendedFloor, opts.BlendedCeil
	}

	conf := floor + (ceil-floor)*base
	if conf < floor {
		conf = floor
	}
	if conf > ceil {
		conf = ceil
	}
	return conf
}

// postprocess turns a raw completion into a StructuredAnswer: it parses
// the sections, enforces tabular output for comparison questions, repairs
// the citations from fragment metadata, extracts the follow-up and
// computes the confidence-independent pieces of the final markdown.
// Postprocessing degrades gracefully and never fails the request.
func (e *Engine) postprocess(ctx context.Context, raw string, fragments []models.Fragment, strategy models.AnswerStrategy, question string) models.StructuredAnswer {
	parsed := parseCompletion(raw)

	definition := parsed.sections.definition
	explanation := parsed.sections.explanation
	example := parsed.sections.example
	table := parsed.sections.table
	if parsed.kind == parseDegraded {
		definition = ""
		explanation = parsed.raw
		example = ""
		table = ""
		e.log.Debug("completion missing required sections, degraded to raw text", nil)
	}

	if detectComparison(question) && table == "" {
		table = e.repairTable(ctx, question)
	}

	followUp := parsed.sections.followUp
	if followUp == "" {
		followUp = defaultFollowUp(strategy)
	}

	sources := buildSources(fragments, strategy)

	if strategy == models.StrategyGeneralOnly && !strings.Contains(explanation+definition, "general knowledge") {
		explanation = strings.TrimSpace(explanation + "\n\n" + disclosureNote)
	}

	return models.StructuredAnswer{
		Definition:  definition,
		Explanation: explanation,
		Example:     example,
		Table:       table,
		FollowUp:    followUp,
		Sources:     sources,
		RawMarkdown: renderMarkdown(definition, explanation, example, table, followUp, fragments, strategy, e.opts),
	}
}

// renderMarkdown rebuilds the normalized answer markdown. The Sources
// section is always replaced with the authoritative citation line.
func renderMarkdown(definition, explanation, example, table, followUp string, fragments []models.Fragment, strategy models.AnswerStrategy, opts Options) string {
	var b strings.Builder

	writeSection := func(marker, body string) {
		if body == "" {
			return
		}
		b.WriteString(marker)
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	writeSection(markerDefinition, definition)
	writeSection(markerExplanation, explanation)
	writeSection(markerExample, example)
	writeSection(markerTable, table)
	writeSection(markerFollowUp, followUp)

	b.WriteString(markerSources)
	b.WriteString("\n")
	switch strategy {
	case models.StrategyGeneralOnly:
		b.WriteString("External sources (not found in the uploaded material)")
	default:
		citation := formatPageCitation(distinctPages(fragments), opts.MaxSourcePages)
		if citation == "" {
			citation = "Uploaded source material"
		}
		b.WriteString(citation)
		if strategy == models.StrategyBlended {
			b.WriteString(", external sources")
		}
	}
	b.WriteString("\n")

	return strings.TrimSpace(b.String())
}
