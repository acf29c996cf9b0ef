package models

// LocationResponse lists the children of the requested hierarchy level.
// Exactly one of the lists is set.
type LocationResponse struct {
	States       []string `json:"states,omitempty"`
	Districts    []string `json:"districts,omitempty"`
	Subdistricts []string `json:"subdistricts,omitempty"`
	Villages     []string `json:"villages,omitempty"`
}
