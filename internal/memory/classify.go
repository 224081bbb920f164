package memory

// route is one row of the classification tables
type route struct {
	Type Type
	Slot string
}

// kindRoutes maps fine-grained subtypes to a memory type and canonical
// conflict-resolution slot. A kind present on the candidate takes
// precedence over its category.
var kindRoutes = map[string]route{
	"home_location":    {ProfileFact, "home_location"},
	"current_location": {TempState, "current_location"},
	"trip":             {EpisodicEvent, "trip"},
	"job_title":        {ProfileFact, "job"},
	"hobby":            {Preference, "hobby"},
}

// categoryTypes is the fallback mapping when no kind is recognized.
// Categories outside this table classify as Other.
var categoryTypes = map[Category]Type{
	CategoryProfile:    ProfileFact,
	CategoryPreference: Preference,
	CategoryEvent:      EpisodicEvent,
	CategoryTempState:  TempState,
	CategoryOther:      Other,
}

// Classify maps a fact candidate to its memory type and slot. Unknown
// kinds fall back to the category table, unknown categories to Other;
// classification never fails. On the fallback path the candidate's own
// slot is used verbatim, possibly empty.
func Classify(c FactCandidate) (Type, string) {
	if c.Kind != "" {
		if r, ok := kindRoutes[c.Kind]; ok {
			return r.Type, r.Slot
		}
	}
	if t, ok := categoryTypes[c.Category]; ok {
		return t, c.Slot
	}
	return Other, c.Slot
}
