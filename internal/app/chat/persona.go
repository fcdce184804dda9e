package chat

import (
	"fmt"
	"strings"

	"folio/internal/configs"
)

// SystemPrompt renders the persona instructions sent ahead of every conversation.
func SystemPrompt(p configs.ChatProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s", p.Name)
	if p.Summary != "" {
		fmt.Fprintf(&b, ", %s", p.Summary)
	}
	b.WriteString(".")
	if len(p.Countries) > 0 {
		fmt.Fprintf(&b, " You have worked across multiple countries including %s.", joinList(p.Countries))
	}
	b.WriteString(" Your experience spans:\n\n")

	if len(p.Companies) > 0 {
		fmt.Fprintf(&b, "Companies: %s\n\n", strings.Join(p.Companies, ", "))
	}
	if len(p.Education) > 0 {
		fmt.Fprintf(&b, "Education: %s\n\n", strings.Join(p.Education, ", "))
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n\n", strings.Join(p.Interests, ", "))
	}

	if p.Personality != "" || len(p.Facts) > 0 {
		b.WriteString("Personality:")
		if p.Personality != "" {
			fmt.Fprintf(&b, " You're %s.", strings.TrimSuffix(p.Personality, "."))
		}
		for _, fact := range p.Facts {
			b.WriteString(" " + fact)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(p.Style)
	return strings.TrimSpace(b.String())
}

// joinList renders "a, b, and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
