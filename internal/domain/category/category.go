// Package category holds the single shared keyword taxonomy used by the
// perception, decision and action stages, plus the built-in category
// descriptions seeding classifier prototypes and the confidential-site
// URL patterns.
package category

import "strings"

// Others is the fallback category for content matching nothing else.
const Others = "Others"

// Built-in category names.
const (
	Sports         = "Sports"
	Politics       = "Politics"
	Financial      = "Financial"
	HealthMedical  = "Health & Medical"
	CurrentAffairs = "Current Affairs"
	Technology     = "Technology"
)

// Priority is the fixed scan order for keyword detection. The first category
// with a matching keyword wins.
var Priority = []string{Sports, Politics, Financial, HealthMedical, CurrentAffairs, Technology}

// keywords is the consolidated table: the union of the keyword sets that the
// perception, decision and action stages each maintained separately before.
var keywords = map[string][]string{
	Sports: {
		"sport", "football", "basketball", "soccer", "cricket", "tennis",
		"olympic", "game", "match", "player", "league", "championship",
		"tournament", "athletics",
	},
	Politics: {
		"politic", "government", "election", "president", "senate",
		"democracy", "vote", "congress", "parliament", "minister", "party",
		"candidate", "campaign",
	},
	Financial: {
		"finance", "money", "stock", "investment", "bank", "economy",
		"market", "business", "financial", "trading", "currency", "dollar",
	},
	HealthMedical: {
		"health", "medical", "disease", "doctor", "hospital", "medicine",
		"treatment", "wellness", "cure", "therapy", "patient", "clinic",
		"pharmacy", "symptom",
	},
	CurrentAffairs: {
		"news", "current", "breaking", "recent", "today", "happening",
		"update", "report", "event", "announcement",
	},
	Technology: {
		"tech", "computer", "software", "hardware", "ai", "machine learning",
		"programming", "code", "app", "digital", "internet", "cyber", "data",
		"system", "device", "innovation",
	},
}

// defaultDescriptions seed classifier prototypes for categories the user has
// not described themselves.
var defaultDescriptions = map[string]string{
	Sports:         "Sports, games, match, team, league, tournament, olympics, athletes",
	Politics:       "Politics, government, election, policy, parliament, president, senate",
	Financial:      "Finance, markets, stocks, investment, banking, economy, trading",
	HealthMedical:  "Healthcare, medical, disease, treatment, clinical, patient, hospital",
	CurrentAffairs: "News, breaking, update, current events, announcement, report",
	Technology:     "Technology, software, hardware, AI, programming, cybersecurity, data, internet",
	Others:         "General content that does not fit the other categories",
}

// confidentialPatterns mark URLs that should never surface in results when
// the user opts out of confidential sites.
var confidentialPatterns = []string{
	"mail.google.com", "gmail.com", "drive.google.com",
	"bank", "banking", "login", "signin", "medical", "healthcare",
}

// Detect returns the first category (in Priority order) with a keyword
// appearing as a substring of text, or Others.
func Detect(text string) string {
	return DetectWithURL(text, "")
}

// DetectWithURL matches keywords against both the text and the URL.
func DetectWithURL(text, url string) string {
	text = strings.ToLower(text)
	url = strings.ToLower(url)
	for _, name := range Priority {
		for _, kw := range keywords[name] {
			if strings.Contains(text, kw) || (url != "" && strings.Contains(url, kw)) {
				return name
			}
		}
	}
	return Others
}

// DefaultDescription returns the built-in description for a category, or ""
// for categories the table does not know.
func DefaultDescription(name string) string {
	return defaultDescriptions[name]
}

// IsConfidentialURL reports whether url matches the confidential-site list.
func IsConfidentialURL(url string) bool {
	url = strings.ToLower(url)
	for _, p := range confidentialPatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}
