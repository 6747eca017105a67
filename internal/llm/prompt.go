package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a personal finance transaction classifier. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// buildPrompt creates the classification prompt for one expense description.
func buildPrompt(description string, categories []string) string {
	var categoryList strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&categoryList, "- %s\n", c)
	}

	return fmt.Sprintf(`Classify this personal expense into exactly one of the categories below, based solely on its description.

Categories:
%s
Expense description: %q

Respond with a JSON object of the form:
{"category": "<one category name from the list, spelled exactly as shown>", "confidence": <number between 0 and 1>}

If nothing fits well, choose the closest category and lower the confidence.`,
		categoryList.String(),
		description)
}
