package lgd

import "strings"

// The upstream "Hierarchy" column encodes parents as "Name(Level)" segments,
// e.g. "Maharashtra(State)" for a district and
// "Pune(District) / Maharashtra(State)" for a sub-district. The parsing below
// mirrors the published snapshot's formatting and is not a general parser.

const (
	stateMarker    = "(State)"
	districtPrefix = "District) / "
)

// stateCorrections fixes labels produced by district names that themselves
// contain parentheses, e.g. "Kaimur (Bhabua)(District) / Bihar(State)".
var stateCorrections = map[string]string{
	"Bhabua)":     "Bihar",
	"East Nimar)": "Madhya Pradesh",
	"West Nimar)": "Madhya Pradesh",
}

// DistrictStateLabel extracts the parent state from a district Hierarchy
// value: drop the "(State)" marker, keep the text before the first "(".
func DistrictStateLabel(hierarchy string) string {
	s := strings.ReplaceAll(hierarchy, stateMarker, "")
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// SubDistrictStateLabel extracts the parent state from a sub-district
// Hierarchy value: drop the "(State)" marker, take the segment after the
// first "(", strip the "District) / " prefix and apply stateCorrections.
// ok is false when the value has no "(" at all.
func SubDistrictStateLabel(hierarchy string) (label string, ok bool) {
	s := strings.ReplaceAll(hierarchy, stateMarker, "")
	parts := strings.SplitN(s, "(", 3)
	if len(parts) < 2 {
		return "", false
	}
	label = strings.TrimSpace(parts[1])
	label = strings.ReplaceAll(label, districtPrefix, "")
	if fixed, found := stateCorrections[label]; found {
		label = fixed
	}
	return label, true
}
