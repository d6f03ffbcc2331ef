package services

import (
	"fmt"
	"strings"
)

// MissingField is a mandatory question the run could not answer, phrased as
// something the user can act on
type MissingField struct {
	Label  string `json:"label"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
	Hint   string `json:"hint"`
}

// CollectMissingFields turns the unmatched mandatory questions of a run into
// prompts. Questions with a known key can be fixed by adding the value to the
// profile and continuing; the rest must be answered in the browser.
func CollectMissingFields(diag *Diagnostics) []MissingField {
	if diag == nil {
		return nil
	}

	seen := make(map[string]bool)
	var result []MissingField
	for _, u := range diag.UnmatchedMandatory {
		id := u.Key + "|" + u.Label
		if seen[id] {
			continue
		}
		seen[id] = true

		field := MissingField{Label: u.Label, Key: u.Key, Reason: u.Reason}
		switch u.Reason {
		case ReasonNoUserData:
			field.Hint = fmt.Sprintf("add a value for %q to the profile", u.Key)
		case ReasonNoInputMatched:
			field.Hint = fmt.Sprintf("the %q value matches none of the offered options; pick one in the browser", u.Key)
		case ReasonFillError:
			field.Hint = "the field rejected the value; check it in the browser"
		default:
			field.Hint = "no profile key covers this question; answer it in the browser"
		}
		result = append(result, field)
	}
	return result
}

// DescribeMissingFields renders the prompts as a numbered list
func DescribeMissingFields(fields []MissingField) string {
	if len(fields) == 0 {
		return ""
	}

	lines := []string{fmt.Sprintf("%d required question(s) still need an answer:", len(fields))}
	for i, f := range fields {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, f.Label, f.Hint))
	}
	return strings.Join(lines, "\n")
}
