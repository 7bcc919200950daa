package publish

import (
	"regexp"
	"strings"

	"github.com/lmokto/newsherald/app/feed"
)

// categoryKeywords maps post flairs to the keywords that select them.
// Matching is whole-word; the first category whose keyword appears wins,
// with "Breaking News" as the catch-all.
var categoryKeywords = []struct {
	flair    string
	keywords []string
}{
	{"Politics", []string{"politics", "congress", "senate", "parliament", "government", "election", "policy", "president", "minister"}},
	{"Crime & Legal", []string{"crime", "police", "court", "legal", "arrest", "trial", "investigation", "prosecution"}},
	{"Sports", []string{"sport", "football", "basketball", "baseball", "soccer", "nfl", "nba", "mlb", "match", "game"}},
	{"Entertainment", []string{"entertainment", "hollywood", "celebrity", "movie", "tv show", "music", "award", "oscar"}},
}

const defaultFlair = "Breaking News"

var wordBoundaries = map[string]*regexp.Regexp{}

func init() {
	for _, category := range categoryKeywords {
		for _, keyword := range category.keywords {
			wordBoundaries[keyword] = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
		}
	}
}

// Formatter turns a canonical item into a submission-ready post
type Formatter struct {
	titleSuffix string
}

func NewFormatter(titleSuffix string) *Formatter {
	return &Formatter{titleSuffix: titleSuffix}
}

// Run formats an item: suffixed title, link-or-body payload, flair from
// category keywords. Link posts take priority; the body only rides along
// when there is no link.
func (f *Formatter) Run(item feed.Item) Post {
	title := item.Title
	if f.titleSuffix != "" && !strings.HasSuffix(title, f.titleSuffix) {
		title += f.titleSuffix
	}

	post := Post{
		Title: title,
		Flair: categorize(item),
	}
	if item.Link != "" {
		post.URL = item.Link
	} else {
		post.Body = item.Body
	}

	return post
}

func categorize(item feed.Item) string {
	text := strings.ToLower(item.Title + " " + item.Body)
	for _, category := range categoryKeywords {
		for _, keyword := range category.keywords {
			if wordBoundaries[keyword].MatchString(text) {
				return category.flair
			}
		}
	}
	return defaultFlair
}
