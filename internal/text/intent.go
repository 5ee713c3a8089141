package text

import "strings"

// IntentTagger assigns a coarse semantic role to a chunk of code. The keyword
// heuristic below is the default; it is deliberately replaceable so a smarter
// tagger can be swapped in without touching the chunker.
type IntentTagger func(code string) string

type intentRule struct {
	intent   string
	keywords []string
}

// Ordered by priority; first match wins.
var intentRules = []intentRule{
	{"test", []string{"test", "spec"}},
	{"config", []string{"config", "settings"}},
	{"class", []string{"class "}},
	{"function", []string{"def ", "function "}},
	{"type", []string{"interface ", "type "}},
	{"endpoint", []string{"route", "endpoint"}},
	{"query", []string{"query", "select"}},
}

// DetectCodeIntent is the default IntentTagger.
func DetectCodeIntent(code string) string {
	lower := strings.ToLower(code)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return "utility"
}
