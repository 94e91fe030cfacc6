// Package prompts builds LLM prompts for metadata suggestion workflows.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// EntityContext describes one catalog entity for the completion prompt.
type EntityContext struct {
	Kind          string // database | table | column
	Name          string
	QualifiedName string
	Known         map[string]string // attribute name -> current value
	Missing       []string          // attribute names with no value
}

// BuildCompletionPrompt creates the prompt asking the model to fill the
// missing metadata attributes of a single entity. The response contract
// is a flat JSON object keyed by the missing attribute names.
func BuildCompletionPrompt(entity EntityContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Metadata Completion\n\n")
	prompt.WriteString(fmt.Sprintf("Suggest values for the missing metadata attributes of the following %s.\n\n", entity.Kind))

	prompt.WriteString("## Entity\n\n")
	prompt.WriteString(fmt.Sprintf("- **Type**: %s\n", entity.Kind))
	prompt.WriteString(fmt.Sprintf("- **Name**: %s\n", entity.Name))
	if entity.QualifiedName != "" {
		prompt.WriteString(fmt.Sprintf("- **Qualified name**: %s\n", entity.QualifiedName))
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Known Attributes\n\n")
	if len(entity.Known) == 0 {
		prompt.WriteString("(none)\n")
	} else {
		// Sorted for stable prompts.
		keys := make([]string, 0, len(entity.Known))
		for k := range entity.Known {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", k, entity.Known[k]))
		}
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Missing Attributes\n\n")
	for _, field := range entity.Missing {
		prompt.WriteString(fmt.Sprintf("- %s\n", field))
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond with a single JSON object whose keys are exactly the missing attribute names ")
	prompt.WriteString("and whose values are your suggested string values. Omit attributes you cannot suggest.\n\n")
	prompt.WriteString("Example:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString("{\n  \"description\": \"Daily order line items from the retail pipeline\",\n  \"owner\": \"retail-data-team\"\n}\n")
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}
