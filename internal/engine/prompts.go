package engine

import (
	"fmt"
	"strings"
)

var schemaKeywords = []string{"describe", "show", "what is", "explain"}

// IsSchemaQuestion reports whether a question asks about the schema itself.
// Such questions are answered with the fetched schema and never executed.
func IsSchemaQuestion(question string) bool {
	q := strings.ToLower(question)
	if !strings.Contains(q, "schema") {
		return false
	}
	for _, kw := range schemaKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// GenerationPrompt asks for a single statement answering the question.
func GenerationPrompt(dialect, schema, question string) string {
	return fmt.Sprintf(`
Given %[1]s database schema:
%[2]s

Question: %[3]q

Generate a %[1]s query to answer this question.

Respond with ONLY the SQL query in this exact format:
`+"```yaml"+`
sql: |
  SELECT ...
`+"```"+`

Do not include any explanations or other text.`, dialect, schema, question)
}

// CorrectionPrompt asks for a replacement of a statement that failed to execute.
func CorrectionPrompt(dialect, schema, question, failedSQL, errMsg string) string {
	return fmt.Sprintf(`
The following %[1]s SQL query failed:
`+"```sql"+`
%[4]s
`+"```"+`
It was generated for: %[3]q
Schema:
%[2]s
Error: %[5]q

Provide a corrected %[1]s query.

Respond with ONLY the corrected SQL query in this exact format:
`+"```yaml"+`
sql: |
  SELECT ... -- corrected query
`+"```"+`

Do not include any explanations or other text.`, dialect, schema, question, failedSQL, errMsg)
}
