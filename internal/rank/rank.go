// Package rank orders task candidates and derives new ones from analysis
// output. Ranking is advisory: it decides display order only.
package rank

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/zulandar/launchpad/internal/airesp"
	"github.com/zulandar/launchpad/internal/models"
)

// PriorityScore is development cost times effect score. Lower ranks first;
// a missing factor counts as 1.
func PriorityScore(cost, effect *int) int {
	return valueOr(cost, 1) * valueOr(effect, 1)
}

// TotalScore is frequency plus impact, with missing scores counted as 0.
func TotalScore(frequency, impact *int) int {
	return valueOr(frequency, 0) + valueOr(impact, 0)
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Scored is a task candidate with its derived scores.
type Scored struct {
	models.TaskCandidate
	TotalScore    int `json:"total_score"`
	PriorityScore int `json:"priority_score"`
}

// Score attaches derived scores without reordering.
func Score(tasks []models.TaskCandidate) []Scored {
	out := make([]Scored, len(tasks))
	for i, t := range tasks {
		out[i] = Scored{
			TaskCandidate: t,
			TotalScore:    TotalScore(t.FrequencyScore, t.ImpactScore),
			PriorityScore: PriorityScore(t.DevelopmentCost, t.EffectScore),
		}
	}
	return out
}

// Sort orders tasks in place: ascending priority score, then descending
// total score, then newest first. Equal tasks keep their input order.
func Sort(tasks []Scored) {
	slices.SortStableFunc(tasks, func(a, b Scored) int {
		if c := cmp.Compare(a.PriorityScore, b.PriorityScore); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Ranked scores and sorts tasks.
func Ranked(tasks []models.TaskCandidate) []Scored {
	scored := Score(tasks)
	Sort(scored)
	return scored
}

// TierForRank maps a zero-based position in the recommendation list to a
// priority tier.
func TierForRank(i int) string {
	switch {
	case i < 2:
		return models.PriorityHigh
	case i < 4:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// maxTitleRunes matches the task title column size.
const maxTitleRunes = 255

// unrankedPriority sorts features without a stated priority last.
const unrankedPriority = 999

// DeriveTasks turns recommended features into task candidates. Features are
// ordered by their stated priority score and at most limit are kept. The
// returned tasks have no id, source or creator set.
func DeriveTasks(features []airesp.Feature, limit int) []models.TaskCandidate {
	ordered := slices.Clone(features)
	slices.SortStableFunc(ordered, func(a, b airesp.Feature) int {
		return cmp.Compare(valueOr(a.PriorityScore, unrankedPriority), valueOr(b.PriorityScore, unrankedPriority))
	})
	if limit >= 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	tasks := make([]models.TaskCandidate, 0, len(ordered))
	for _, f := range ordered {
		title := strings.TrimSpace(f.Title)
		if title == "" {
			continue
		}
		if r := []rune(title); len(r) > maxTitleRunes {
			title = string(r[:maxTitleRunes])
		}
		f.DevelopmentCost = clampScore(f.DevelopmentCost)
		f.EffectScore = clampScore(f.EffectScore)
		impact := 5
		if f.DevelopmentCost != nil {
			impact = (4 - *f.DevelopmentCost) * 3
		}
		frequency := valueOr(f.RelatedFeedbackCount, 1)
		if frequency == 0 {
			frequency = 1
		}
		tasks = append(tasks, models.TaskCandidate{
			Title:           title,
			Description:     describe(f),
			FrequencyScore:  &frequency,
			ImpactScore:     &impact,
			DevelopmentCost: f.DevelopmentCost,
			EffectScore:     f.EffectScore,
			Priority:        TierForRank(len(tasks)),
			Status:          models.TaskPending,
		})
	}
	return tasks
}

// clampScore fits a model-supplied 1-3 score into range. Zero or negative
// values are treated as not provided.
func clampScore(p *int) *int {
	if p == nil || *p < 1 {
		return nil
	}
	v := min(*p, 3)
	return &v
}

var effectLabels = map[int]string{1: "good", 2: "normal", 3: "low"}

func describe(f airesp.Feature) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(f.Description))
	b.WriteString("\n\nMetrics")
	if f.DevelopmentCost != nil {
		fmt.Fprintf(&b, "\n- Development cost: %d/3", *f.DevelopmentCost)
	}
	if f.EffectScore != nil {
		label := effectLabels[*f.EffectScore]
		if label == "" {
			label = "unknown"
		}
		fmt.Fprintf(&b, "\n- Expected effect: %d (%s)", *f.EffectScore, label)
	}
	if f.PriorityScore != nil {
		fmt.Fprintf(&b, "\n- Priority score: %d", *f.PriorityScore)
	}
	if f.RelatedFeedbackCount != nil {
		fmt.Fprintf(&b, "\n- Related feedback: %d", *f.RelatedFeedbackCount)
	}
	if f.Category != "" {
		fmt.Fprintf(&b, "\n- Category: %s", f.Category)
	}
	return strings.TrimSpace(b.String())
}
