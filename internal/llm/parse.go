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

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseActionList parses a provider response expected to contain a JSON
// array of action strings, optionally wrapped in a markdown code fence with
// or without a language tag. Parsing runs in explicit stages: strip fencing,
// unmarshal, validate shape, cap length.
func ParseActionList(text string) ([]string, error) {
	stripped := stripCodeFence(text)

	var actions []string
	if err := json.Unmarshal([]byte(stripped), &actions); err != nil {
		return nil, fmt.Errorf("response is not a JSON string array: %w", err)
	}

	var cleaned []string
	for _, action := range actions {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("response contained no actions")
	}

	if len(cleaned) > MaxSuggestedActions {
		cleaned = cleaned[:MaxSuggestedActions]
	}

	return cleaned, nil
}

// stripCodeFence extracts the content of a markdown code fence, with or
// without a language tag. The fence may be preceded by preamble text.
// Unfenced text passes through untouched.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)

	if i := strings.Index(trimmed, "```json"); i >= 0 {
		trimmed = trimmed[i+len("```json"):]
		if end := strings.Index(trimmed, "```"); end >= 0 {
			trimmed = trimmed[:end]
		}
		return strings.TrimSpace(trimmed)
	}

	if i := strings.Index(trimmed, "```"); i >= 0 {
		trimmed = trimmed[i+3:]
		if newline := strings.Index(trimmed, "\n"); newline >= 0 {
			if isLanguageTag(strings.TrimSpace(trimmed[:newline])) {
				trimmed = trimmed[newline+1:]
			}
		}
		if end := strings.Index(trimmed, "```"); end >= 0 {
			trimmed = trimmed[:end]
		}
		return strings.TrimSpace(trimmed)
	}

	return trimmed
}

// isLanguageTag reports whether a fence's first line is a language tag (or
// blank) rather than content.
func isLanguageTag(line string) bool {
	if line == "" {
		return true
	}
	for _, r := range line {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
