package prompt

import (
	"fmt"
	"strings"

	"github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
)

// GetAdvisorySystemPrompt keeps the generator on a short leash: one concise
// Vietnamese paragraph, grounded on the treatments it is given.
func GetAdvisorySystemPrompt() string {
	return `You are an agronomy advisor writing for Vietnamese farmers. Answer in Vietnamese with one short, practical paragraph (3-5 sentences, plain text, no markdown). Base your advice on the treatment options provided; if none were provided, give general good-practice guidance for the disease. Never invent product names.`
}

// GetAdvisoryUserPrompt flattens the disease context and its treatment
// groups into a compact user message.
func GetAdvisoryUserPrompt(disease string, confidence float64, plant string, groups []treatment.Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Disease: %s (confidence %.2f).", disease, confidence)
	if plant != "" {
		fmt.Fprintf(&b, " Plant: %s.", plant)
	}
	if len(groups) == 0 {
		b.WriteString(" No treatment options were found in the knowledge base.")
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s: %s", g.Label, strings.Join(g.Items, "; "))
	}
	b.WriteString("\nWrite the recommendation.")
	return b.String()
}

// GetCareSystemPrompt covers the healthy-plant path.
func GetCareSystemPrompt() string {
	return `You are an agronomy advisor writing for Vietnamese farmers. The plant is healthy. Answer in Vietnamese with one short paragraph of routine care instructions (watering, light, fertilizer, prevention). Plain text, no markdown.`
}

func GetCareUserPrompt(plant string) string {
	return fmt.Sprintf("Plant: %s. Write the care instructions.", plant)
}
