package content

import (
	"fmt"

	"coursedrip/models"
)

// completionSequence is the 7-step campaign for students who passed the
// final exam. It congratulates, then walks toward the full certification
// offer over nine days.
func completionSequence(v voice) SequenceDefinition {
	steps := []StepDefinition{
		{
			Order: 1, DelayDays: 0, DelayHours: 0,
			Subject: "You did it, {{ firstName }}! 🎓",
			Body: fmt.Sprintf(
				"Congratulations {{ firstName }}!\n\nYou passed with a score of {{ examScore }}%% and officially earned your %s. Your certificate is attached to your student dashboard, ready to download and share.\n\nTake a minute to enjoy this. You finished something most people only talk about.",
				v.Diploma),
		},
		{
			Order: 2, DelayDays: 0, DelayHours: 6,
			Subject: "Your certificate, and what it opens",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nNow that your %s is in hand, here is what it opens: the full %s, where graduates learn to work with real %s and %s.\n\nNo decision needed today. Just know the door is open.",
				v.Diploma, v.Certification, v.ClientWord, v.Outcome),
		},
		{
			Order: 3, DelayDays: 1, DelayHours: 0,
			Subject: fmt.Sprintf("From mini diploma to practicing %s", v.Title),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nThe mini diploma gave you the map. The %s gives you the practice: casework, mentorship, and a recognized credential as a %s.\n\nYour exam score of {{ examScore }}%% tells us you are ready for it.",
				v.Certification, v.Title),
		},
		{
			Order: 4, DelayDays: 2, DelayHours: 0,
			Subject: "A scholarship seat with your name on it",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nBecause you completed the mini diploma, you qualify for a graduate scholarship toward the %s. It meaningfully reduces tuition and is reserved for students who finished what they started.\n\nReply to this email or visit your dashboard to claim it.",
				v.Certification),
		},
		{
			Order: 5, DelayDays: 4, DelayHours: 0,
			Subject: "What week one of certification looks like",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nWeek one of the %s: you meet your cohort, get your mentor, and do your first supervised practice conversation. Students consistently say it feels less like a course and more like a residency.\n\nYour scholarship seat is still held for you.",
				v.Certification),
		},
		{
			Order: 6, DelayDays: 6, DelayHours: 0,
			Subject: "Graduates answer: was it worth it?",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nWe asked recent graduates one question: was it worth it? The most common answer: \"I wish I had started sooner, my %s were waiting.\"\n\nYou already proved you can finish. The next program just gives that proof somewhere to go.",
				v.ClientWord),
		},
		{
			Order: 7, DelayDays: 9, DelayHours: 0,
			Subject: "Your scholarship window closes soon",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nThis is the last note about your graduate scholarship, the window closes this week. After that, your %s stays valid but tuition returns to standard rates.\n\nEither way: congratulations again. You earned the title on that certificate.",
				v.Diploma),
		},
	}

	return SequenceDefinition{
		Slug:        "completion-" + v.AudioSlug,
		Name:        fmt.Sprintf("Mini Diploma Completion (%s)", v.Field),
		Description: fmt.Sprintf("Post-completion campaign for %s graduates, congratulation through scholarship offer", v.Field),
		TriggerType: models.TriggerMiniDiplomaCompleted,
		Niche:       v.Niche,
		Priority:    20,
		Steps:       steps,
	}
}
