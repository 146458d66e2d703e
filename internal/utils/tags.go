package utils

import (
	"strings"

	"github.com/paulmach/osm"
)

// ParseTagString parses "k=v;k2=v2" into tags, in input order. Whitespace
// around keys and values is trimmed, values may contain '=', and pairs
// without a usable key or value are skipped. A repeated key keeps its first
// position and takes the last value.
func ParseTagString(s string) osm.Tags {
	var tags osm.Tags
	index := make(map[string]int)

	for _, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" || ValidateTagKey(key) != nil {
			continue
		}

		if i, seen := index[key]; seen {
			tags[i].Value = value
			continue
		}
		index[key] = len(tags)
		tags = append(tags, osm.Tag{Key: key, Value: value})
	}

	return tags
}

var streetAbbreviations = map[string]string{
	"ave":  "Avenue",
	"av":   "Avenue",
	"blvd": "Boulevard",
	"ctr":  "Center",
	"ct":   "Court",
	"dr":   "Drive",
	"fwy":  "Freeway",
	"hwy":  "Highway",
	"ln":   "Lane",
	"pkwy": "Parkway",
	"pl":   "Place",
	"rd":   "Road",
	"sq":   "Square",
	"st":   "Street",
	"stn":  "Station",
	"ter":  "Terrace",
	"tpke": "Turnpike",
	"ne":   "Northeast",
	"nw":   "Northwest",
	"se":   "Southeast",
	"sw":   "Southwest",
}

// FormatName cleans up a name taken from a feed so it reads like an OSM name:
// underscores become spaces, runs of whitespace collapse, trailing ',' and ';'
// are dropped and common street abbreviations are spelled out. A leading
// "St" is read as "Saint". Separators such as '/' and '-' are left alone.
func FormatName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimRight(strings.TrimSpace(name), ",; ")
	words := strings.Fields(name)

	for i, w := range words {
		bare := strings.TrimSuffix(w, ".")
		lower := strings.ToLower(bare)
		if i == 0 && lower == "st" && len(words) > 1 {
			words[i] = "Saint"
			continue
		}
		if full, ok := streetAbbreviations[lower]; ok {
			words[i] = full
		}
	}

	return strings.Join(words, " ")
}
