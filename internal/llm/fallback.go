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

// fallbackUserResponse returns the fixed customer reply for the rating band
func fallbackUserResponse(rating int) string {
	switch {
	case rating <= 2:
		return "Thank you for your feedback. We're sorry to hear about your experience and will work to improve. Please contact us directly so we can make this right."
	case rating == 3:
		return "Thank you for your feedback. We appreciate your input and will use it to improve our service."
	default:
		return "Thank you for your wonderful feedback! We're thrilled you had a great experience and look forward to serving you again."
	}
}

// fallbackAdminSummary returns the fixed internal summary embedding the rating
func fallbackAdminSummary(rating int) string {
	return fmt.Sprintf("Rating: %d stars - Unable to generate summary", rating)
}

// fallbackActions returns the fixed action list for the rating band
func fallbackActions(rating int) []string {
	switch {
	case rating <= 2:
		return []string{
			"Contact customer immediately for service recovery",
			"Investigate specific issues mentioned",
			"Review internal processes",
		}
	case rating == 3:
		return []string{
			"Follow up with customer for more details",
			"Identify improvement opportunities",
			"Monitor similar feedback patterns",
		}
	default:
		return []string{
			"Send thank you note to customer",
			"Share positive feedback with team",
			"Encourage customer to leave online review",
		}
	}
}
