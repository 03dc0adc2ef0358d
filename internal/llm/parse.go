package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// QuestionAnswer is the parsed output of the multi-hop question prompt
type QuestionAnswer struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseQuestion extracts the {"query", "answer"} object from model
// output, tolerating surrounding prose or code fences.
func ParseQuestion(text string) (QuestionAnswer, error) {
	var qa QuestionAnswer
	if err := json.Unmarshal([]byte(text), &qa); err == nil && qa.Query != "" {
		return qa, nil
	}

	if m := jsonObjectPattern.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &qa); err == nil && qa.Query != "" {
			return qa, nil
		}
	}

	return QuestionAnswer{}, fmt.Errorf("no question object in model output")
}
