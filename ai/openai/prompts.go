package openai

import "fmt"

const scorerSystemPrompt = `You grade how well a documentation passage answers a search query.

Respond with a JSON object of the form {"score": <number>} where the number is
between 0.0 and 1.0:

- 1.0: the passage directly and completely answers the query
- 0.7: the passage answers most of the query or answers it indirectly
- 0.4: the passage is on topic but does not answer the query
- 0.0: the passage is unrelated to the query

Respond with ONLY the JSON object. Do not explain your reasoning.`

// buildScorerPrompt formats the query/passage pair for grading.
func buildScorerPrompt(query, passage string) string {
	return fmt.Sprintf("Query: %s\n\nPassage:\n%s", query, passage)
}
