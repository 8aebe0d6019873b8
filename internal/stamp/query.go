package stamp

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField selects the key a collection listing is ordered by.
type SortField string

const (
	SortDateAdded SortField = "dateAdded"
	SortName      SortField = "name"
	SortValue     SortField = "value"
	SortYear      SortField = "year"
	SortOrigin    SortField = "origin"
	SortCondition SortField = "condition"
)

// ParseSortField maps user input (German or English) to a SortField.
func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "datum", "date", "dateadded", "neu":
		return SortDateAdded, true
	case "name":
		return SortName, true
	case "wert", "value", "estimatedvalue":
		return SortValue, true
	case "jahr", "year":
		return SortYear, true
	case "land", "herkunft", "origin":
		return SortOrigin, true
	case "zustand", "condition":
		return SortCondition, true
	}
	return "", false
}

// AllAlbums is the album filter value that matches every album.
const AllAlbums = "Alle"

// Query filters and orders a collection the way the collection view does.
// The zero value lists everything, newest first.
type Query struct {
	Search    string
	Album     string       // "" or AllAlbums for every album
	Status    ExpertStatus // "" for every status
	SortBy    SortField    // "" means SortDateAdded
	Ascending bool
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// Apply returns the matching stamps in query order. The input is not modified.
func (q Query) Apply(stamps []Stamp) []Stamp {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Stamp, 0, len(stamps))
	for _, s := range stamps {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Origin), search) &&
			!strings.Contains(strings.ToLower(s.Description), search) {
			continue
		}
		if q.Album != "" && q.Album != AllAlbums && s.Album != q.Album {
			continue
		}
		if q.Status != "" && s.ExpertStatus != q.Status {
			continue
		}
		out = append(out, s)
	}

	col := collate.New(language.German)
	sort.SliceStable(out, func(i, j int) bool {
		c := compareBy(col, q.SortBy, out[i], out[j])
		if c == 0 {
			c = out[i].DateAdded.Compare(out[j].DateAdded)
		}
		if q.Ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compareBy(col *collate.Collator, field SortField, a, b Stamp) int {
	switch field {
	case SortValue:
		return compareFloat(ParseValue(EffectiveValue(a)), ParseValue(EffectiveValue(b)))
	case SortYear:
		return numericYear(a.Year) - numericYear(b.Year)
	case SortOrigin:
		return col.CompareString(a.Origin, b.Origin)
	case SortName:
		return col.CompareString(a.Name, b.Name)
	case SortCondition:
		return col.CompareString(a.Condition, b.Condition)
	default:
		return a.DateAdded.Compare(b.DateAdded)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// numericYear returns the first four-digit run in s, or 0.
func numericYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// StatusCounts counts stamps per expert status.
func StatusCounts(stamps []Stamp) map[ExpertStatus]int {
	counts := map[ExpertStatus]int{StatusNone: 0, StatusPending: 0, StatusAppraised: 0}
	for _, s := range stamps {
		counts[s.ExpertStatus]++
	}
	return counts
}
