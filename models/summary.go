package models

// StateSummary is one row of the state wise records table.
type StateSummary struct {
	State        string `json:"state"`
	Districts    int    `json:"districts"`
	SubDistricts int    `json:"sub_districts"`
	Villages     int    `json:"villages"`
}

// ChartSeries carries the labels and values for one dashboard chart.
type ChartSeries struct {
	Title  string   `json:"title"`
	Kind   string   `json:"kind"` // "pie" | "bar"
	Hole   float64  `json:"hole,omitempty"`
	XTitle string   `json:"x_title,omitempty"`
	YTitle string   `json:"y_title,omitempty"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// TierKPI is the distinct code count shown in the KPI strip.
type TierKPI struct {
	Tier   Tier   `json:"tier"`
	Label  string `json:"label"`
	Column string `json:"column"`
	Unique int    `json:"unique"`
}
