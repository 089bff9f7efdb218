// Package prompt renders the instructions sent to the generative model.
// Every builder is a pure function of its input; absent optional values are
// rendered as NotProvided so the model always sees the same field set.
package prompt

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/zulandar/launchpad/internal/ingest"
	"github.com/zulandar/launchpad/internal/models"
)

// NotProvided replaces absent optional values.
const NotProvided = "not provided"

// MaxRecommendedFeatures is how many features the analysis asks for.
const MaxRecommendedFeatures = 5

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"na": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return NotProvided
		}
		return s
	},
	"num": func(p *int) string {
		if p == nil {
			return NotProvided
		}
		return strconv.Itoa(*p)
	},
	"speaker": func(role string) string {
		if role == models.RoleUser {
			return "User"
		}
		return "AI"
	},
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// Execute fails only on template bugs.
	if err := t.Execute(&buf, data); err != nil {
		panic("prompt: render " + t.Name() + ": " + err.Error())
	}
	return buf.String()
}

var analysisTmpl = mustParse("analysis", `You are a senior product manager analysing Voice of Customer (VOC) feedback.

Feedback ({{len .Feedback}} entries):
{{range $i, $f := .Feedback}}{{inc $i}}. [{{na $f.Date}}] {{$f.Text}}
{{end}}
Instructions:
1. Group the feedback into categories. For each category give the number of entries and an importance of high, medium or low.
2. Recommend at most {{.Max}} product improvements. For each one estimate:
   - development_cost: 1 (small), 2 (medium) or 3 (large)
   - effect_score: 1 (strong effect), 2 (normal) or 3 (weak)
   - priority_score: development_cost multiplied by effect_score (lower is better)
   - related_feedback_count: how many entries support it
3. Write a short narrative summary first.
4. Finish with exactly one JSON object in this shape:
{
  "categories": [{"name": "...", "count": 0, "importance": "high"}],
  "recommended_features": [{"title": "...", "description": "...", "development_cost": 1, "effect_score": 1, "priority_score": 1, "related_feedback_count": 0, "category": "..."}]
}
`)

// Analysis builds the feedback analysis prompt.
func Analysis(feedback []ingest.Feedback) string {
	return render(analysisTmpl, struct {
		Feedback []ingest.Feedback
		Max      int
	}{feedback, MaxRecommendedFeatures})
}

var prdTmpl = mustParse("prd", `You are a senior product manager. Write a product requirements document (PRD) for the task below.

Task
- Title: {{na .Title}}
- Description: {{na .Description}}
- Priority: {{na .Priority}}
- Development cost (1-3): {{num .DevelopmentCost}}
- Effect score (1 best - 3 worst): {{num .EffectScore}}
- Frequency score: {{num .FrequencyScore}}
- Impact score: {{num .ImpactScore}}

Write these five sections. Wrap each one in markers exactly as shown:
[SECTION:background] why this matters now, with the customer evidence [/SECTION]
[SECTION:problem] the concrete problem users hit [/SECTION]
[SECTION:solution] the proposed solution and its scope [/SECTION]
[SECTION:ux_requirements] screens, flows and interaction requirements [/SECTION]
[SECTION:edge_cases] failure modes, limits and exceptional cases [/SECTION]

If you cannot use markers, start each section with a heading line:
Background (배경), Problem (문제), Solution (해결방안), UX Requirements (UX 요구사항), Edge Cases (엣지 케이스).
`)

// PRD builds the prompt that drafts a PRD from a task candidate.
func PRD(task *models.TaskCandidate) string {
	return render(prdTmpl, task)
}

var chatTmpl = mustParse("chat", `You are helping refine a product requirements document (PRD).

Current PRD
Title: {{na .PRD.Title}}
[background] {{na .PRD.Background}}
[problem] {{na .PRD.Problem}}
[solution] {{na .PRD.Solution}}
[ux_requirements] {{na .PRD.UXRequirements}}
[edge_cases] {{na .PRD.EdgeCases}}

Conversation so far:
{{if .History}}{{range .History}}{{speaker .Role}}: {{.Content}}
{{end}}{{else}}{{na ""}}
{{end}}
User request: {{.Message}}

Answer the request conversationally. When the request changes the document, return every changed section in full inside markers:
[UPDATED_SECTION:<name>]new section text[/UPDATED_SECTION]
Valid names: background, problem, solution, ux_requirements, edge_cases. Do not wrap unchanged sections.
`)

// Chat builds a PRD refinement prompt from the current document, the prior
// conversation and the new user message.
func Chat(prd *models.PRDDraft, history []models.ChatTurn, message string) string {
	return render(chatTmpl, struct {
		PRD     *models.PRDDraft
		History []models.ChatTurn
		Message string
	}{prd, history, message})
}

var contentTmpl = mustParse("content", `{{.Style}}

Write a {{.Label}} based on this PRD.

PRD title: {{na .PRD.Title}}
Background: {{na .PRD.Background}}
Problem: {{na .PRD.Problem}}
Solution: {{na .PRD.Solution}}
UX requirements: {{na .PRD.UXRequirements}}
Edge cases: {{na .PRD.EdgeCases}}
{{if .Images}}{{range $i, $u := .Images}}Service image {{inc $i}}: {{$u}}
{{end}}{{else}}Service images: {{na ""}}
{{end}}
Combine the information above into production-ready {{.Label}} copy that can be used as is.
`)

// Content builds a launch content prompt for the given content-type label.
// Unknown labels get generic guidance.
func Content(prd *models.PRDDraft, images []string, label string) string {
	canonical := CanonicalContentLabel(label)
	return render(contentTmpl, struct {
		Style  string
		Label  string
		PRD    *models.PRDDraft
		Images []string
	}{contentStyleFor(canonical), canonical, prd, images})
}
