// Copyright 2025 Review Feedback Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import "fmt"

// userResponsePrompt builds the prompt for the customer-facing reply
func userResponsePrompt(rating int, reviewText string) string {
	return fmt.Sprintf(`You are a customer service AI. A customer just left a %d-star review.

Review: "%s"
Rating: %d stars

Generate a brief, professional, and empathetic response to the customer.
The response should:
- Thank them for their feedback
- Acknowledge their specific points (positive or negative)
- Be appropriate for the rating given
- For negative reviews (1-3 stars): Show empathy and willingness to improve
- For positive reviews (4-5 stars): Express gratitude and encouragement

Keep the response to 2-3 sentences maximum.

Respond with ONLY the customer response text, no JSON, no additional formatting.`, rating, reviewText, rating)
}

// adminSummaryPrompt builds the prompt for the internal summary
func adminSummaryPrompt(rating int, reviewText string) string {
	return fmt.Sprintf(`Analyze this customer review for internal reporting:

Review: "%s"
Rating: %d stars

Provide a brief summary (1-2 sentences) highlighting:
- Main sentiment
- Key points mentioned
- Any critical issues or praise

Respond with ONLY the summary text.`, reviewText, rating)
}

// suggestedActionsPrompt builds the prompt for the team action list
func suggestedActionsPrompt(rating int, reviewText string) string {
	return fmt.Sprintf(`Based on this review, suggest 2-3 specific actionable next steps for the team:

Review: "%s"
Rating: %d stars

Consider:
- For 1-2 stars: Immediate response, investigation, service recovery
- For 3 stars: Follow-up, improvement opportunities
- For 4-5 stars: Thank you, encourage repeat business, request testimonial

Respond with a JSON array of action items:
["action 1", "action 2", "action 3"]

Respond ONLY with the JSON array, no additional text.`, reviewText, rating)
}
