package llm

import (
	"encoding/json"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// cleanMarkdownWrapper strips a ```json fenced block and any prose around
// the outermost JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// parseClassification decodes {"category": "...", "confidence": 0.0} from a
// model reply. Missing fields and unparseable JSON are contract violations;
// the confidence range is left to the caller.
func parseClassification(content string) (model.Classification, error) {
	var jsonResp struct {
		Category   *string  `json:"category"`
		Confidence *float64 `json:"confidence"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return model.Classification{}, common.NewContractViolation("failed to parse JSON response: %v", err)
	}

	if jsonResp.Category == nil || strings.TrimSpace(*jsonResp.Category) == "" {
		return model.Classification{}, common.NewContractViolation("no category found in response")
	}
	if jsonResp.Confidence == nil {
		return model.Classification{}, common.NewContractViolation("no confidence found in response")
	}

	return model.Classification{
		Category:   strings.TrimSpace(*jsonResp.Category),
		Confidence: *jsonResp.Confidence,
	}, nil
}
