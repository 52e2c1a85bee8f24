package v1

import (
	"fmt"
	"strings"
)

func foundPrompt(count int, needsClarification bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a warm, concise gift-recommendation assistant. The search found %d matching products, which the interface shows as cards below your reply.

Rules:
- Refer to the results only generically ("I found a few options you might like"). Never restate product names, links, or prices: the cards already show them.
- Keep the reply to two or three sentences.
`, count)
	if needsClarification {
		b.WriteString("- The request was vague, so end with one short clarifying question about the recipient, occasion, interests, or budget.\n")
	}
	return b.String()
}

func notFoundPrompt(missingInfo []string) string {
	var b strings.Builder
	b.WriteString(`You are a warm, concise gift-recommendation assistant. The search found no matching products.

Rules:
- Apologize briefly and suggest one or two adjacent gift categories to try instead.
- Keep the reply to two or three sentences.
`)
	if len(missingInfo) > 0 {
		fmt.Fprintf(&b, "- Ask the user for the following missing details: %s.\n", strings.Join(missingInfo, ", "))
	}
	return b.String()
}
