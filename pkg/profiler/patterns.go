package profiler

import "regexp"

// patternSampleSize bounds how many non-missing values are tested per
// column, in original row order.
const patternSampleSize = 20

// namedPattern pairs a label with its detection regex. Declared as an
// ordered slice so result labels come out in a stable order.
type namedPattern struct {
	label string
	re    *regexp.Regexp
}

var patterns = []namedPattern{
	{"email", regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)},
	{"date", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
	{"phone", regexp.MustCompile(`^\+?[0-9\-() ]{7,}$`)},
	{"postal_code", regexp.MustCompile(`^\d{5}(-\d{4})?$`)},
}

// detectPatterns samples up to the first 20 non-missing values and reports
// every pattern that ALL sampled values match. A single non-matching value
// disqualifies the pattern. Columns matching nothing (or with no values to
// sample) get the single label "none".
func detectPatterns(nonMissing []string) []string {
	sample := nonMissing
	if len(sample) > patternSampleSize {
		sample = sample[:patternSampleSize]
	}

	var detected []string
	if len(sample) > 0 {
		for _, p := range patterns {
			all := true
			for _, v := range sample {
				if !p.re.MatchString(v) {
					all = false
					break
				}
			}
			if all {
				detected = append(detected, p.label)
			}
		}
	}

	if len(detected) == 0 {
		return []string{"none"}
	}
	return detected
}
