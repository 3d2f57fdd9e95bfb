package usage

import (
	"strings"

	"wellsync/internal/types"
)

type categoryRule struct {
	category types.Category
	keywords []string
}

// categoryRules is checked in order; the first keyword contained in the identifier wins
var categoryRules = []categoryRule{
	{types.CategorySocial, []string{
		"facebook", "instagram", "twitter", "tiktok", "snapchat", "whatsapp",
		"telegram", "messenger", "linkedin", "reddit", "discord", "social",
	}},
	{types.CategoryEntertainment, []string{
		"youtube", "netflix", "spotify", "music", "video", "game",
		"twitch", "hulu", "disney", "prime", "media",
	}},
	{types.CategoryProductivity, []string{
		"android.gm", "gmail", "mail", "slack", "office", "docs", "sheets",
		"calendar", "notion", "drive", "teams", "zoom", "todo", "task",
		"outlook", "productivity",
	}},
	{types.CategoryHealth, []string{
		"zenflow", "fit", "health", "strava", "meditation", "calm",
		"headspace", "sleep", "yoga", "workout", "wellness",
	}},
}

// Categorize maps an application identifier to its category. It never fails.
func Categorize(packageIdentifier string) types.Category {
	id := strings.ToLower(packageIdentifier)
	if id == "" {
		return types.CategoryOther
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(id, kw) {
				return rule.category
			}
		}
	}
	return types.CategoryOther
}
