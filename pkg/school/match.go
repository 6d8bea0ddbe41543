package school

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return whitespaceRegex.ReplaceAllString(name, "")
}

// BestMatch returns the record whose name is the closest to `name` by Jaro-Winkler similarity.
func BestMatch(records []Record, name string) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}

	target := normalizeName(name)
	best := 0
	bestScore := -1.0
	for i, r := range records {
		score := matchr.JaroWinkler(normalizeName(r.Name), target, false)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return records[best], true
}
