package prompt

import "fmt"

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior document compliance reviewer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- status must be one of: PASS, FAILED, REVIEW_REQUIRED, INCOMPLETE.
- confidence_score is 0-100; use INCOMPLETE with a low score when the text is too short or garbled to judge.
- issues_detected lists concrete problems found in the text; empty array when none.
- Judge only what the text shows: missing required fields, inconsistent figures, suspicious wording, signs of template tampering.

Schema (example with empty values):
{
  "status": "<PASS|FAILED|REVIEW_REQUIRED|INCOMPLETE>",
  "confidence_score": 0,
  "issues_detected": ["<string>"],
  "metadata": {}
}`
}

// GetUserPrompt builds a compact user message around the extracted text.
func GetUserPrompt(fileName, text string) string {
	const maxChars = 12000
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return fmt.Sprintf("Review the document %q and respond with the JSON per schema.\n\n--- DOCUMENT TEXT ---\n%s", fileName, text)
}
