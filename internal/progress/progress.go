// Package progress derives an application's completion from its three status fields.
//
// The result is computed on every read and never stored, so changing the
// rules here changes every displayed percentage without a data migration.
package progress

import (
	"fmt"
	"math"
	"strings"

	"github.com/sakif/college-tracker/internal/model"
)

// Step identifies one of the three tracked steps of an application.
type Step string

const (
	StepApplication    Step = "application"
	StepEssay          Step = "essay"
	StepRecommendation Step = "recommendation"
)

// State is the badge bucket a raw status string falls into.
type State string

const (
	NotStarted State = "not-started"
	InProgress State = "in-progress"
	Rejected   State = "rejected"
	Waitlisted State = "waitlisted"
	Completed  State = "completed"
)

const totalSteps = 3

// completedEquivalent statuses count as "done" for any step.
var completedEquivalent = map[string]bool{
	"Completed": true,
	"Submitted": true,
	"Received":  true,
	"Accepted":  true,
}

// terminalOutcomes end granular tracking once the application status reaches them.
var terminalOutcomes = map[string]bool{
	"Rejected":   true,
	"Accepted":   true,
	"Waitlisted": true,
}

var inProgress = map[string]bool{
	"In Progress": true,
	"Requested":   true,
}

// rejectedAliases only apply to the application step.
var rejectedAliases = map[string]bool{
	"Rejected": true,
	"Reject":   true,
	"Denied":   true,
}

// Steps holds the per-step badge state.
type Steps struct {
	Application    State `json:"application"`
	Essay          State `json:"essay"`
	Recommendation State `json:"recommendation"`
}

// Summary is the derived progress view of one saved record.
type Summary struct {
	Percent  int    `json:"percent"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
	Steps    Steps  `json:"steps"`
}

// Classify buckets a raw status for the given step. Unrecognised strings
// are treated as not started.
func Classify(step Step, status string) State {
	status = strings.TrimSpace(status)
	switch {
	case status == "" || status == model.StatusNotStarted:
		return NotStarted
	case inProgress[status]:
		return InProgress
	case step == StepApplication && rejectedAliases[status]:
		return Rejected
	case step == StepApplication && status == "Waitlisted":
		return Waitlisted
	case completedEquivalent[status]:
		return Completed
	default:
		return NotStarted
	}
}

// Derive computes the summary from the three status fields.
//
// A terminal application outcome (Accepted, Rejected, Waitlisted) forces 100%
// and the outcome itself as the label, whatever the essay and recommendation
// say. Otherwise the percentage is the rounded share of completed steps.
func Derive(application, essay, recommendation string) Summary {
	s := Summary{
		Steps: Steps{
			Application:    Classify(StepApplication, application),
			Essay:          Classify(StepEssay, essay),
			Recommendation: Classify(StepRecommendation, recommendation),
		},
	}

	app := strings.TrimSpace(application)
	if terminalOutcomes[app] {
		s.Percent = 100
		s.Label = app
		s.Terminal = true
		return s
	}

	done := 0
	for _, status := range []string{application, essay, recommendation} {
		if completedEquivalent[strings.TrimSpace(status)] {
			done++
		}
	}
	s.Percent = int(math.Round(100 * float64(done) / totalSteps))
	s.Label = fmt.Sprintf("%d%%", s.Percent)
	return s
}

// ForRecord is Derive applied to a saved record's status fields.
func ForRecord(rec model.SavedRecord) Summary {
	return Derive(rec.ApplicationStatus, rec.EssayStatus, rec.RecommendationStatus)
}
