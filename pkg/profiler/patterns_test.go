package profiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPatterns_AllSampledValuesMustMatch(t *testing.T) {
	emails := make([]string, 20)
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@example.com", i)
	}
	assert.Contains(t, detectPatterns(emails), "email")

	// One non-matching value inside the sample disqualifies the pattern.
	mixed := append([]string{}, emails[:19]...)
	mixed = append(mixed, "not-an-email")
	assert.Equal(t, []string{"none"}, detectPatterns(mixed))
}

func TestDetectPatterns_SampleIsFirstTwenty(t *testing.T) {
	values := make([]string, 21)
	for i := 0; i < 20; i++ {
		values[i] = fmt.Sprintf("user%d@example.com", i)
	}
	// The 21st value is beyond the sample window and cannot disqualify.
	values[20] = "not-an-email"
	assert.Contains(t, detectPatterns(values), "email")
}

func TestDetectPatterns_DateValuesAlsoMatchPhone(t *testing.T) {
	// ISO dates are digits and dashes of length 10, which the permissive
	// phone pattern also accepts.
	got := detectPatterns([]string{"2024-01-02", "2023-12-31"})
	assert.Equal(t, []string{"date", "phone"}, got)
}

func TestDetectPatterns_PostalCode(t *testing.T) {
	assert.Equal(t, []string{"postal_code"}, detectPatterns([]string{"12345", "54321-9876"}))
}

func TestDetectPatterns_EmptySample(t *testing.T) {
	assert.Equal(t, []string{"none"}, detectPatterns(nil))
}
