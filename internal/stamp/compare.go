package stamp

// CompareField names a field shown in the side-by-side comparison.
type CompareField string

const (
	CompareValue     CompareField = "value"
	CompareOrigin    CompareField = "origin"
	CompareYear      CompareField = "year"
	CompareCondition CompareField = "condition"
	CompareRarity    CompareField = "rarity"
	ComparePrinting  CompareField = "printing"
	ComparePaper     CompareField = "paper"
)

// CompareFields lists the compared fields in display order.
var CompareFields = []CompareField{
	CompareValue, CompareOrigin, CompareYear, CompareCondition, CompareRarity, ComparePrinting, ComparePaper,
}

// FieldValue returns the display value of a comparison field.
func FieldValue(s Stamp, f CompareField) string {
	switch f {
	case CompareValue:
		return EffectiveValue(s)
	case CompareOrigin:
		return s.Origin
	case CompareYear:
		return s.Year
	case CompareCondition:
		return s.Condition
	case CompareRarity:
		return s.Rarity
	case ComparePrinting:
		return Deref(s.PrintingMethod)
	case ComparePaper:
		return Deref(s.PaperType)
	}
	return ""
}

// Comparison is the side-by-side view of several stamps.
type Comparison struct {
	Stamps  []Stamp
	Diverse map[CompareField]bool // true when not all stamps share the value
}

// Compare builds a comparison. With fewer than two stamps no field is diverse.
func Compare(stamps []Stamp) Comparison {
	c := Comparison{Stamps: stamps, Diverse: make(map[CompareField]bool, len(CompareFields))}
	for _, f := range CompareFields {
		c.Diverse[f] = isDiverse(stamps, f)
	}
	return c
}

func isDiverse(stamps []Stamp, f CompareField) bool {
	if len(stamps) <= 1 {
		return false
	}
	first := FieldValue(stamps[0], f)
	for _, s := range stamps[1:] {
		if FieldValue(s, f) != first {
			return true
		}
	}
	return false
}
