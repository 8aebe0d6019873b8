package stamp

import "sort"

const topOriginCount = 5

// OriginShare is the share of the collection coming from one origin.
type OriginShare struct {
	Origin  string
	Count   int
	Percent float64
}

// Summary is the dashboard view of a collection.
type Summary struct {
	Count      int
	TotalValue float64
	Appraised  int
	TopOrigins []OriginShare
}

// Summarize computes the dashboard figures. Totals use the effective value
// of every stamp.
func Summarize(stamps []Stamp) Summary {
	sum := Summary{Count: len(stamps)}
	counts := make(map[string]int)
	var order []string
	for _, s := range stamps {
		sum.TotalValue += ParseValue(EffectiveValue(s))
		if s.ExpertStatus == StatusAppraised {
			sum.Appraised++
		}
		if _, seen := counts[s.Origin]; !seen {
			order = append(order, s.Origin)
		}
		counts[s.Origin]++
	}

	for _, origin := range order {
		sum.TopOrigins = append(sum.TopOrigins, OriginShare{
			Origin:  origin,
			Count:   counts[origin],
			Percent: float64(counts[origin]) / float64(len(stamps)) * 100,
		})
	}
	sort.SliceStable(sum.TopOrigins, func(i, j int) bool {
		return sum.TopOrigins[i].Count > sum.TopOrigins[j].Count
	})
	if len(sum.TopOrigins) > topOriginCount {
		sum.TopOrigins = sum.TopOrigins[:topOriginCount]
	}
	return sum
}
