package prompts

import (
	"fmt"
	"strings"
)

// ColumnContext describes one column for batch suggestion prompts.
type ColumnContext struct {
	Name            string
	QualifiedName   string
	DataType        string
	TableName       string
	Description     string
	Classifications []string
}

// TableContext describes one table for retention suggestions.
type TableContext struct {
	Name            string
	QualifiedName   string
	Description     string
	RetentionPeriod *int
	Classifications []string
}

// BuildTagRelationshipPrompt creates the prompt asking for tag and
// relationship suggestions across a batch of columns. The response
// contract is {"tags": {qualifiedName: [tag, ...]}, "relationships":
// [{"from": qn, "to": qn, "type": label}]}.
func BuildTagRelationshipPrompt(columns []ColumnContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Tag and Relationship Suggestions\n\n")
	prompt.WriteString("Suggest governance tags for the following columns and identify relationships between them.\n\n")

	writeColumnSection(&prompt, columns)

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- Tags are short lowercase labels describing the business meaning (e.g. \"pii\", \"email\", \"financial\").\n")
	prompt.WriteString("- A relationship links two columns that reference the same business entity (e.g. a foreign key pattern).\n")
	prompt.WriteString("- Only suggest relationships you are reasonably confident about.\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `tags`: object mapping each column's qualified name to a list of tag strings (may be empty)\n")
	prompt.WriteString("- `relationships`: array of objects with `from`, `to` (qualified names) and `type` (short label)\n\n")
	prompt.WriteString("Example:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "tags": {
    "sales.orders.customer_email@cluster": ["pii", "email"]
  },
  "relationships": [
    {
      "from": "sales.orders.customer_id@cluster",
      "to": "sales.customers.id@cluster",
      "type": "foreign_key"
    }
  ]
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildClassificationRetentionPrompt creates the prompt asking for
// sensitivity classifications on columns and retention periods on tables.
// The response contract is {"classifications": {qualifiedName: label},
// "retention": {tableName: days}}.
func BuildClassificationRetentionPrompt(columns []ColumnContext, tables []TableContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Classification and Retention Suggestions\n\n")
	prompt.WriteString("Assign a sensitivity classification to each column and suggest a retention period for each table.\n\n")

	writeColumnSection(&prompt, columns)

	prompt.WriteString("## Tables\n\n")
	for _, t := range tables {
		prompt.WriteString(fmt.Sprintf("### %s\n", t.Name))
		if t.QualifiedName != "" {
			prompt.WriteString(fmt.Sprintf("- Qualified name: %s\n", t.QualifiedName))
		}
		if t.Description != "" {
			prompt.WriteString(fmt.Sprintf("- Description: %s\n", t.Description))
		}
		if t.RetentionPeriod != nil {
			prompt.WriteString(fmt.Sprintf("- Current retention: %d days\n", *t.RetentionPeriod))
		} else {
			prompt.WriteString("- Current retention: not set\n")
		}
		if len(t.Classifications) > 0 {
			prompt.WriteString(fmt.Sprintf("- Classifications: %s\n", strings.Join(t.Classifications, ", ")))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- Classification labels: \"public\", \"internal\", \"confidential\", \"restricted\".\n")
	prompt.WriteString("- Retention is an integer number of days appropriate for the table's content.\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON with:\n")
	prompt.WriteString("- `classifications`: object mapping each column's qualified name to one label\n")
	prompt.WriteString("- `retention`: object mapping each table's name to an integer day count\n\n")
	prompt.WriteString("Example:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "classifications": {
    "sales.orders.customer_email@cluster": "confidential"
  },
  "retention": {
    "orders": 730
  }
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

func writeColumnSection(prompt *strings.Builder, columns []ColumnContext) {
	prompt.WriteString("## Columns\n\n")
	for _, col := range columns {
		prompt.WriteString(fmt.Sprintf("### %s\n", col.Name))
		if col.QualifiedName != "" {
			prompt.WriteString(fmt.Sprintf("- Qualified name: %s\n", col.QualifiedName))
		}
		if col.DataType != "" {
			prompt.WriteString(fmt.Sprintf("- Type: %s\n", col.DataType))
		}
		if col.TableName != "" {
			prompt.WriteString(fmt.Sprintf("- Table: %s\n", col.TableName))
		}
		if col.Description != "" {
			prompt.WriteString(fmt.Sprintf("- Description: %s\n", col.Description))
		}
		if len(col.Classifications) > 0 {
			prompt.WriteString(fmt.Sprintf("- Classifications: %s\n", strings.Join(col.Classifications, ", ")))
		}
		prompt.WriteString("\n")
	}
}
