package evaluation

import (
	"fmt"
	"strings"

	"github.com/monkeyandriver/healthforge/internal/server/models"
)

// BuildHealthPrompt renders the questionnaire as the evaluation-request
// document sent to the AI service. It is pure and deterministic: identical
// input produces byte-identical output, and optional sections are omitted
// entirely rather than rendered as placeholders. Section order is fixed:
// demographics, vitals, medications/allergies, conditions, notes, closing
// instruction.
func BuildHealthPrompt(q *models.Questionnaire, additionalNotes string) string {
	var sb strings.Builder

	sb.WriteString("## Patient Health Evaluation Request\n")
	sb.WriteString("### Basic Information\n")
	fmt.Fprintf(&sb, "- Age: %d\n", q.Age)
	fmt.Fprintf(&sb, "- Gender: %s\n", q.Gender)
	fmt.Fprintf(&sb, "- Height: %v cm\n", q.Height)
	fmt.Fprintf(&sb, "- Weight: %v kg\n", q.Weight)

	if q.BloodPressure != "" {
		fmt.Fprintf(&sb, "- Blood Pressure: %s\n", q.BloodPressure)
	}
	if q.Cholesterol != "" {
		fmt.Fprintf(&sb, "- Cholesterol: %s\n", q.Cholesterol)
	}
	if q.Medications != "" {
		fmt.Fprintf(&sb, "- Medications: %s\n", q.Medications)
	}
	if q.Allergies != "" {
		fmt.Fprintf(&sb, "- Allergies: %s\n", q.Allergies)
	}
	if len(q.HealthConditions) > 0 {
		fmt.Fprintf(&sb, "- Health Conditions: %s\n", strings.Join(q.HealthConditions, ", "))
	}

	if additionalNotes != "" {
		sb.WriteString("\n### Additional Notes\n")
		sb.WriteString(additionalNotes)
		sb.WriteString("\n")
	}

	sb.WriteString("\nPlease provide a thorough health evaluation based on this information.\n")
	return sb.String()
}
