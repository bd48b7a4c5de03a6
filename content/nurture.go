package content

import (
	"fmt"

	"coursedrip/models"
)

// nurtureSequence is the 18-step campaign for students who opted into the
// mini diploma but have not completed the final exam yet. The schedule
// front-loads the first week and stretches out to day 30.
func nurtureSequence(v voice) SequenceDefinition {
	audio := func(name string) string {
		return fmt.Sprintf("https://assets.coursedrip.io/audio/%s/%s.mp3", v.AudioSlug, name)
	}

	steps := []StepDefinition{
		{
			Order: 1, DelayDays: 0, DelayHours: 0,
			Subject: fmt.Sprintf("Your %s is ready, {{ firstName }}", v.Diploma),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nWelcome! Your %s is unlocked and waiting for you. Most students finish the first lesson in under twenty minutes, and that first lesson is where %s starts to click.\n\nJump in while it is fresh: open lesson one and press play.",
				v.Diploma, v.Field),
		},
		{
			Order: 2, DelayDays: 1, DelayHours: 0,
			Subject: "The one mistake new students make",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nThe biggest mistake new students make is waiting for the \"right week\" to start. There is no right week. There is only lesson one, and it takes twenty minutes.\n\nEvery %s who now helps %s %s started exactly where you are today.",
				v.Title, v.ClientWord, v.Outcome),
		},
		{
			Order: 3, DelayDays: 2, DelayHours: 0,
			Subject: fmt.Sprintf("What %s actually looks like in practice", v.Field),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nToday I want to show you what a real session looks like. Not theory, an actual first conversation between a %s and a new client.\n\nIt is lesson two in your %s, and it is the lesson students tell us changed how they think about this work.",
				v.Title, v.Diploma),
		},
		{
			Order: 4, DelayDays: 3, DelayHours: 0,
			Subject: "A student story worth two minutes",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nMaria enrolled with zero background in %s. Eight months later she had her first three paying %s.\n\nHer advice to new students: \"Finish the mini diploma first. Everything made sense after that.\" You are closer than you think.",
				v.Field, v.ClientWord),
		},
		{
			Order: 5, DelayDays: 4, DelayHours: 0,
			Subject: "Stuck on a lesson? Read this",
			Body: "Hi {{ firstName }},\n\nIf you opened a lesson and closed it again, you are not behind, you are normal. The students who finish are not the most disciplined ones, they are the ones who restart without drama.\n\nPick up where you left off today. Ten minutes counts.",
		},
		{
			Order: 6, DelayDays: 5, DelayHours: 0,
			Subject: fmt.Sprintf("Why %s is growing so fast", v.Field),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nDemand for %s has grown every single year for a decade, and most of that demand is unmet. People are actively looking for someone who can help them %s.\n\nYour %s covers exactly why, in lesson three.",
				v.Field, v.Outcome, v.Diploma),
		},
		{
			Order: 7, DelayDays: 6, DelayHours: 0,
			Subject: "Your halfway checkpoint",
			Body:    "Hi {{ firstName }},\n\nQuick checkpoint: by now you have everything you need to be halfway through the lessons. If you are, the final exam will feel easy. If you are not, today is a perfectly good day to catch up.\n\nEither way, the material is not going anywhere, but momentum is easier to keep than to rebuild.",
		},
		{
			Order: 8, DelayDays: 7, DelayHours: 0,
			Subject:  "Listen to this on your commute",
			Body:     fmt.Sprintf("Hi {{ firstName }},\n\nWe recorded a short audio walkthrough of the core framework from your %s, made for listening on a walk or a commute.\n\nPress play below and let the ideas settle in without a screen.", v.Diploma),
			AudioURL: audio("core-framework"),
		},
		{
			Order: 9, DelayDays: 9, DelayHours: 0,
			Subject: fmt.Sprintf("Could you really work as a %s?", v.Title),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nThe question under every question we get: \"could someone like me really do this?\" The honest answer is that our graduates are teachers, nurses, parents and career changers. None of them started as experts.\n\nThe %s exists to prove to yourself that you can learn this. That is the whole point of finishing it.",
				v.Diploma),
		},
		{
			Order: 10, DelayDays: 11, DelayHours: 0,
			Subject: "The exam is shorter than you think",
			Body: "Hi {{ firstName }},\n\nA small secret: the final exam takes most students under fifteen minutes. It is not there to trick you, it is there to lock in what you learned.\n\nFinish the remaining lessons and take it while the material is fresh.",
		},
		{
			Order: 11, DelayDays: 13, DelayHours: 0,
			Subject: fmt.Sprintf("What graduates do with the %s", v.Certification),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nAfter the mini diploma, many students continue into the full %s. Some build practices, some add %s to an existing career, some start with friends and family.\n\nBut step one is the same for everyone: finish what you started.",
				v.Certification, v.Field),
		},
		{
			Order: 12, DelayDays: 15, DelayHours: 0,
			Subject:  "A second audio lesson for you",
			Body:     fmt.Sprintf("Hi {{ firstName }},\n\nHere is the second audio lesson: how a %s structures the first month with a new client. Real structure, not platitudes.\n\nTwelve minutes, press play below.", v.Title),
			AudioURL: audio("first-month"),
		},
		{
			Order: 13, DelayDays: 17, DelayHours: 0,
			Subject: "Two weeks in, an honest question",
			Body: "Hi {{ firstName }},\n\nIt has been about two weeks since you enrolled. Honest question: what is actually in the way? Time, doubt, or just forgetting?\n\nWhatever it is, the fix is the same and it is small: open the next lesson today.",
		},
		{
			Order: 14, DelayDays: 19, DelayHours: 0,
			Subject: fmt.Sprintf("The science behind %s", v.Field),
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nSkeptics make the best practitioners. If part of you wonders whether %s holds up, good. Lesson four walks through the evidence and the limits, no hand-waving.\n\nBring your skepticism, it belongs here.",
				v.Field),
		},
		{
			Order: 15, DelayDays: 21, DelayHours: 0,
			Subject: "Three weeks: the fork in the road",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nThree weeks in, students split into two groups: the ones who finished and the ones who \"meant to\". The only difference between them is one sitting of about an hour.\n\nYour %s is still right where you left it.",
				v.Diploma),
		},
		{
			Order: 16, DelayDays: 24, DelayHours: 0,
			Subject: "What Sandra wrote us",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\n\"I almost let it expire. I finished the exam on a Tuesday night and cried a little. It was the first thing I had finished for myself in years.\" Sandra is now a practicing %s.\n\nYour Tuesday night is available too.",
				v.Title),
		},
		{
			Order: 17, DelayDays: 27, DelayHours: 0,
			Subject: "We are closing the loop soon",
			Body: "Hi {{ firstName }},\n\nWe keep these check-ins going for thirty days, then we step back and leave you in peace. That window closes soon.\n\nIf the diploma still matters to you, this week is the week.",
		},
		{
			Order: 18, DelayDays: 30, DelayHours: 0,
			Subject: "Last note from us (for now)",
			Body: fmt.Sprintf(
				"Hi {{ firstName }},\n\nThis is the last nudge, promise. Your %s stays unlocked, and the exam will be there whenever you are ready.\n\nWhenever that is, we will be glad to see your name on the pass list.",
				v.Diploma),
		},
	}

	return SequenceDefinition{
		Slug:        "nurture-" + v.AudioSlug,
		Name:        fmt.Sprintf("Mini Diploma Nurture (%s)", v.Field),
		Description: fmt.Sprintf("30-day nurture campaign for %s students who started the mini diploma but have not completed the exam", v.Field),
		TriggerType: models.TriggerMiniDiplomaStarted,
		Niche:       v.Niche,
		Priority:    10,
		Steps:       steps,
	}
}
