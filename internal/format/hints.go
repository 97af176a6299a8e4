package format

// Per-category caps applied by BuildHints.
const (
	MaxEmails           = 5
	MaxPhones           = 5
	MaxAmountCandidates = 10
	MaxNumericDates     = 10
	MaxEntities         = 10
)

// Hints are the candidate values shown to the model. Field order is the
// serialization order and every category marshals as an array.
type Hints struct {
	Emails           []string `json:"emails"`
	Phones           []string `json:"phones"`
	AmountCandidates []string `json:"amount_candidates"`
	NumericDates     []string `json:"numeric_dates"`
	Organizations    []string `json:"organizations"`
	Dates            []string `json:"dates"`
	MoneyEntities    []string `json:"money_entities"`
	Persons          []string `json:"persons"`
	Locations        []string `json:"locations"`
}

// BuildHints truncates each category to its cap.
func BuildHints(rx RegexMatches, ents Entities) Hints {
	return Hints{
		Emails:           capped(rx.Emails, MaxEmails),
		Phones:           capped(rx.Phones, MaxPhones),
		AmountCandidates: capped(rx.AmountCandidates, MaxAmountCandidates),
		NumericDates:     capped(rx.NumericDates, MaxNumericDates),
		Organizations:    capped(ents.Organizations, MaxEntities),
		Dates:            capped(ents.Dates, MaxEntities),
		MoneyEntities:    capped(ents.Money, MaxEntities),
		Persons:          capped(ents.Persons, MaxEntities),
		Locations:        capped(ents.Locations, MaxEntities),
	}
}

func capped(in []string, n int) []string {
	if len(in) > n {
		in = in[:n]
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
