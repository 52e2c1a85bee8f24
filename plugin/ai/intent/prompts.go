package intent

import "fmt"

func extractionPrompt(genericCollection string) string {
	return fmt.Sprintf(`You are the intent-extraction step of a gift recommendation assistant. Read the conversation and the latest user message, then respond with a single JSON object and nothing else.

Rules:
- If the user is refining an earlier request (adding budget, occasion, interests), merge the new details with the earlier preferences into one refined query.
- If the user has changed topic, discard the earlier preferences entirely.
- "refined_query" is a short search phrase describing the gift being sought, not a full sentence.
- "target_collection" is the catalog to search: one of "girlfriend", "boyfriend", "mother", "father", "friend", or "%s" when no recipient is clear.
- "price_min" and "price_max" are numbers in the user's currency. Omit either bound the user did not state.
- "missing_info" lists the critical fields still unknown, drawn from: "recipient", "occasion", "interests", "budget".
- "needs_clarification" is true only when the request is too vague to search at all.

Respond with exactly:
{"refined_query": "...", "target_collection": "...", "price_min": 0, "price_max": 0, "missing_info": [], "needs_clarification": false}`, genericCollection)
}
