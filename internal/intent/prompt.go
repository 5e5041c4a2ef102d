package intent

import (
	"fmt"
	"strings"
	"time"
)

// extractionSystemPrompt instructs the model to emit the extractedIntent JSON
// shape. Vague destinations ("somewhere warm", "beach") must be resolved to a
// specific city; missing dates must be suggested in the future.
func extractionSystemPrompt(now time.Time) string {
	var b strings.Builder
	b.WriteString("You are a travel intent parser. Extract structured travel requirements ")
	b.WriteString("from the user's request and reply with a single JSON object, no prose.\n\n")
	b.WriteString("JSON fields:\n")
	b.WriteString(`  origin (string), destination (string), departure_date ("YYYY-MM-DD"),` + "\n")
	b.WriteString(`  return_date ("YYYY-MM-DD"), duration_days (int), flexible_dates (bool),` + "\n")
	b.WriteString("  adults (int), child_ages ([]int), total_budget (number), currency (string),\n")
	b.WriteString("  interests ([]string), travel_style (string)\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- If the destination is vague (\"beach\", \"somewhere warm\"), choose a specific city that fits and put the vague wish into interests.\n")
	b.WriteString("- If no dates are given, suggest dates at least four weeks after the current date, matching any season the user mentioned, and set flexible_dates true.\n")
	b.WriteString("- Phrases like \"two kids aged 5 and 8\" become child_ages [5, 8].\n")
	b.WriteString("- Use null or omit fields you truly cannot determine. Never invent a budget.\n")
	fmt.Fprintf(&b, "\nCurrent date: %s\n", now.Format("2006-01-02"))
	return b.String()
}

func extractionUserPrompt(message string, fields StructuredFields, now time.Time) string {
	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\nKnown structured fields (authoritative):\n")
	if fields.Origin != "" {
		fmt.Fprintf(&b, "- origin: %s\n", fields.Origin)
	}
	if fields.Adults > 0 {
		fmt.Fprintf(&b, "- adults: %d\n", fields.Adults)
	}
	if len(fields.ChildAges) > 0 {
		fmt.Fprintf(&b, "- child ages: %v\n", fields.ChildAges)
	}
	fmt.Fprintf(&b, "\nCurrent date: %s", now.Format("2006-01-02"))
	return b.String()
}

func blurbPrompt(destination, message string) string {
	return fmt.Sprintf(`Explain in two sentences why %s fits this travel request. Be concrete and warm, do not mention budget or dates.

Request: %s`, destination, message)
}
