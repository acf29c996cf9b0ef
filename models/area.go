package models

// AreaUnit is one row of the land-area conversion table.
type AreaUnit struct {
	Name          string  `json:"name"`
	MetersPerUnit float64 `json:"square_meters_per_unit"`
}

// Conversion is a single converted value in a multi-unit table.
type Conversion struct {
	Unit  string  `json:"unit_type"`
	Value float64 `json:"converted_value"`
}
