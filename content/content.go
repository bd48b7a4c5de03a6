package content

import (
	"fmt"

	"coursedrip/models"
)

// StepDefinition is one message of a campaign, offset from the enrollment
// epoch by DelayDays and DelayHours. Order is the stable identity used for
// sent-tracking and must never be renumbered for an existing campaign.
type StepDefinition struct {
	Order      int
	DelayDays  int
	DelayHours int
	Subject    string
	Body       string
	AudioURL   string
}

// SequenceDefinition is the canonical, content-reviewed description of a
// campaign. Definitions are pure data; the seeder materializes them into
// Sequence/SequenceEmail rows.
type SequenceDefinition struct {
	Slug        string
	Name        string
	Description string
	TriggerType string
	Niche       string
	Priority    int
	Steps       []StepDefinition
}

// voice carries the niche-specific vocabulary substituted into campaign
// copy at definition-build time. All niches share the same step schema and
// schedule; only the string payloads differ.
type voice struct {
	Niche         string
	Field         string // "functional medicine"
	Title         string // "Functional Medicine Practitioner"
	Diploma       string // "Functional Medicine Mini Diploma"
	Certification string // "Functional Medicine Certification Program"
	ClientWord    string // "clients", "patients"
	Outcome       string // what graduates help people do
	AudioSlug     string // asset path fragment for pre-recorded lessons
}

var voices = []voice{
	{
		Niche:         models.NicheFunctionalMedicine,
		Field:         "functional medicine",
		Title:         "Functional Medicine Practitioner",
		Diploma:       "Functional Medicine Mini Diploma",
		Certification: "Functional Medicine Certification Program",
		ClientWord:    "clients",
		Outcome:       "get to the root cause of chronic symptoms",
		AudioSlug:     "functional-medicine",
	},
	{
		Niche:         models.NicheEnergyHealing,
		Field:         "energy healing",
		Title:         "Certified Energy Healer",
		Diploma:       "Energy Healing Mini Diploma",
		Certification: "Energy Healing Certification Program",
		ClientWord:    "clients",
		Outcome:       "restore balance and release what keeps them stuck",
		AudioSlug:     "energy-healing",
	},
	{
		Niche:         models.NicheHealthCoach,
		Field:         "health coaching",
		Title:         "Certified Health Coach",
		Diploma:       "Health Coach Mini Diploma",
		Certification: "Health Coach Certification Program",
		ClientWord:    "clients",
		Outcome:       "build habits that actually last",
		AudioSlug:     "health-coach",
	},
}

// All returns every campaign definition the platform ships with: an 18-step
// nurture campaign and a 7-step completion campaign per niche.
func All() []SequenceDefinition {
	defs := make([]SequenceDefinition, 0, len(voices)*2)
	for _, v := range voices {
		defs = append(defs, nurtureSequence(v), completionSequence(v))
	}
	return defs
}

// ForTrigger filters All() down to one trigger type, mostly for tests
func ForTrigger(triggerType string) []SequenceDefinition {
	var defs []SequenceDefinition
	for _, def := range All() {
		if def.TriggerType == triggerType {
			defs = append(defs, def)
		}
	}
	return defs
}

// Validate rejects malformed definitions at load time. Send-time code may
// assume every persisted sequence passed these checks.
func Validate(def SequenceDefinition) error {
	if def.Slug == "" {
		return fmt.Errorf("sequence has no slug")
	}
	if def.TriggerType == "" {
		return fmt.Errorf("sequence %q has no trigger type", def.Slug)
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("sequence %q has no steps", def.Slug)
	}

	seen := make(map[int]bool, len(def.Steps))
	prevDelay := -1
	for _, step := range def.Steps {
		if step.Order <= 0 {
			return fmt.Errorf("sequence %q: step order %d must be positive", def.Slug, step.Order)
		}
		if seen[step.Order] {
			return fmt.Errorf("sequence %q: duplicate step order %d", def.Slug, step.Order)
		}
		seen[step.Order] = true

		if step.DelayDays < 0 || step.DelayHours < 0 {
			return fmt.Errorf("sequence %q: step %d has a negative delay", def.Slug, step.Order)
		}
		if step.Subject == "" {
			return fmt.Errorf("sequence %q: step %d has no subject", def.Slug, step.Order)
		}

		delay := step.DelayDays*24 + step.DelayHours
		if delay < prevDelay {
			return fmt.Errorf("sequence %q: step %d fires before the previous step", def.Slug, step.Order)
		}
		prevDelay = delay
	}
	return nil
}

// ValidateAll runs Validate over every shipped definition
func ValidateAll() error {
	for _, def := range All() {
		if err := Validate(def); err != nil {
			return err
		}
	}
	return nil
}
