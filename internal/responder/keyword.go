package responder

import (
	"strings"

	"github.com/avvvet/portfolio-chat/internal/knowledge"
	"github.com/avvvet/portfolio-chat/internal/models"
)

// KeywordResponder answers free text by scanning an ordered rule list.
// The first rule with any keyword contained in the lowercased input wins.
// Containment is plain substring search, so "hi" also fires on "history".
type KeywordResponder struct {
	rules       []knowledge.Rule
	fallback    string
	suggestions []models.Suggestion
}

func NewKeywordResponder(table knowledge.KeywordTable) *KeywordResponder {
	rules := make([]knowledge.Rule, len(table.Rules))
	for i, rule := range table.Rules {
		rules[i] = knowledge.Rule{
			Keywords: append([]string(nil), rule.Keywords...),
			Response: rule.Response,
		}
	}

	return &KeywordResponder{
		rules:       rules,
		fallback:    table.Default,
		suggestions: append([]models.Suggestion(nil), table.Suggestions...),
	}
}

func (r *KeywordResponder) Respond(input string) string {
	return r.Match(input).Reply
}

// Match runs the lookup and reports which rule and keyword decided it.
func (r *KeywordResponder) Match(input string) Match {
	normalized := strings.ToLower(input)

	for i, rule := range r.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(normalized, keyword) {
				return Match{
					Reply:     rule.Response,
					Matched:   true,
					RuleIndex: i,
					Keyword:   keyword,
				}
			}
		}
	}

	return Match{Reply: r.fallback, RuleIndex: -1}
}

// Greeting is the opening message: the first rule's response.
func (r *KeywordResponder) Greeting() string {
	if len(r.rules) == 0 {
		return r.fallback
	}
	return r.rules[0].Response
}

func (r *KeywordResponder) Default() string {
	return r.fallback
}

func (r *KeywordResponder) Suggestions() []models.Suggestion {
	return append([]models.Suggestion(nil), r.suggestions...)
}

// RuleCount is the number of rules in priority order.
func (r *KeywordResponder) RuleCount() int {
	return len(r.rules)
}
