package format

import "regexp"

var (
	reEmail  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	rePhone  = regexp.MustCompile(`(?:\+?\d{1,3}[\s-]?)?\b\d{10}\b`)
	reAmount = regexp.MustCompile(`(?:₹|\$|€|£|INR|USD|EUR|GBP)?\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)
	reDate   = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)
)

// RegexMatches holds every pattern match in order of first occurrence. Nothing is capped here.
type RegexMatches struct {
	Emails           []string
	Phones           []string
	AmountCandidates []string
	NumericDates     []string
}

// RegexExtract runs the four candidate patterns over text.
func RegexExtract(text string) RegexMatches {
	return RegexMatches{
		Emails:           findAll(reEmail, text),
		Phones:           findAll(rePhone, text),
		AmountCandidates: findAll(reAmount, text),
		NumericDates:     findAll(reDate, text),
	}
}

func findAll(re *regexp.Regexp, text string) []string {
	m := re.FindAllString(text, -1)
	if m == nil {
		return []string{}
	}
	return m
}
