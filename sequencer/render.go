package sequencer

import (
	"fmt"

	"github.com/osteele/liquid"

	"coursedrip/models"
)

var templateEngine = liquid.NewEngine()

// TemplateBinding collects the placeholder values available to campaign
// copy. Missing profile data renders as an empty string or a generic term,
// never as a failed send.
func TemplateBinding(user *models.User, unsubscribeURL string) map[string]interface{} {
	firstName := user.FirstName
	if firstName == "" {
		firstName = "there"
	}

	examScore := ""
	if user.ExamScore != nil {
		examScore = fmt.Sprintf("%d", *user.ExamScore)
	}

	return map[string]interface{}{
		"firstName":      firstName,
		"lastName":       user.LastName,
		"email":          user.Email,
		"examScore":      examScore,
		"niche":          user.Niche,
		"unsubscribeURL": unsubscribeURL,
	}
}

// RenderTemplate substitutes {{ token }} placeholders. A template that fails
// to parse is sent as-is; a cosmetic defect beats a stuck campaign step.
func RenderTemplate(tpl string, binding map[string]interface{}) string {
	out, err := templateEngine.ParseAndRenderString(tpl, binding)
	if err != nil {
		return tpl
	}
	return out
}
