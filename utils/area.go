package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"lgd_site/models"
)

var (
	// ErrInvalidUnit is returned when a unit name is not in the conversion table.
	ErrInvalidUnit = errors.New("invalid area unit")

	// ErrInvalidValue is returned for area values that are not finite,
	// non-negative numbers.
	ErrInvalidValue = errors.New("invalid area value")
)

// areaUnits holds square meters per unit, in display order.
var areaUnits = []models.AreaUnit{
	{Name: "Acre", MetersPerUnit: 4046.86},
	{Name: "Hectare", MetersPerUnit: 10000},
	{Name: "Bigha", MetersPerUnit: 1337.8},
	{Name: "Square meter", MetersPerUnit: 1},
	{Name: "Square feet", MetersPerUnit: 0.092903},
	{Name: "Biswa", MetersPerUnit: 125.42},
	{Name: "Guntha", MetersPerUnit: 101.17},
	{Name: "Square yard", MetersPerUnit: 0.836127},
	{Name: "Cent", MetersPerUnit: 40.4686},
	{Name: "Ground", MetersPerUnit: 222.967},
	{Name: "Biswani", MetersPerUnit: 50.93},
	{Name: "Dhur", MetersPerUnit: 16.929},
	{Name: "Kanal", MetersPerUnit: 505.857},
	{Name: "Katha", MetersPerUnit: 126.441},
	{Name: "Chatak", MetersPerUnit: 33.528},
	{Name: "Ghumao", MetersPerUnit: 24281.13},
	{Name: "Killa", MetersPerUnit: 4046.86},
	{Name: "Ankanam", MetersPerUnit: 2.323},
	{Name: "Decimal", MetersPerUnit: 40.4686},
}

// AreaConverter converts land area between the regional units of areaUnits.
// It is immutable and safe for concurrent use.
type AreaConverter struct {
	units  []models.AreaUnit
	meters map[string]float64
}

// DefaultAreaConverter is built once from the fixed unit table.
var DefaultAreaConverter = NewAreaConverter(areaUnits)

// NewAreaConverter builds a converter over the given table. Units with a
// non-positive factor are skipped.
func NewAreaConverter(units []models.AreaUnit) *AreaConverter {
	c := &AreaConverter{meters: make(map[string]float64, len(units))}
	for _, u := range units {
		if u.MetersPerUnit <= 0 {
			continue
		}
		if _, dup := c.meters[u.Name]; dup {
			continue
		}
		c.units = append(c.units, u)
		c.meters[u.Name] = u.MetersPerUnit
	}
	return c
}

// Units returns a copy of the table in display order.
func (c *AreaConverter) Units() []models.AreaUnit {
	out := make([]models.AreaUnit, len(c.units))
	copy(out, c.units)
	return out
}

// UnitNames returns unit names in display order.
func (c *AreaConverter) UnitNames() []string {
	names := make([]string, len(c.units))
	for i, u := range c.units {
		names[i] = u.Name
	}
	return names
}

func (c *AreaConverter) factor(unit string) (float64, error) {
	m, ok := c.meters[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return m, nil
}

// Convert returns value expressed in toUnit. No rounding is applied.
func (c *AreaConverter) Convert(value float64, fromUnit, toUnit string) (float64, error) {
	from, err := c.factor(fromUnit)
	if err != nil {
		return 0, err
	}
	to, err := c.factor(toUnit)
	if err != nil {
		return 0, err
	}
	return value * from / to, nil
}

// ConvertToAll converts value into every unit of the table.
func (c *AreaConverter) ConvertToAll(value float64, fromUnit string) (map[string]float64, error) {
	table, err := c.ConversionTable(value, fromUnit)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(table))
	for _, row := range table {
		out[row.Unit] = row.Value
	}
	return out, nil
}

// ConversionTable is ConvertToAll in display order.
func (c *AreaConverter) ConversionTable(value float64, fromUnit string) ([]models.Conversion, error) {
	if _, err := c.factor(fromUnit); err != nil {
		return nil, err
	}
	out := make([]models.Conversion, 0, len(c.units))
	for _, u := range c.units {
		v, err := c.Convert(value, fromUnit, u.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Conversion{Unit: u.Name, Value: v})
	}
	return out, nil
}

// FormatConversion renders the sentence shown under the converter.
func FormatConversion(value float64, fromUnit string, result float64, toUnit string) string {
	return fmt.Sprintf("%s %s is equal to %.6f %s",
		formatValue(value), fromUnit, result, toUnit)
}

// formatValue prints the shortest representation, keeping a ".0" on whole
// numbers ("1.0", not "1").
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ParseAreaValue parses a user supplied, non-negative area value. A trailing
// unit name ("2.5 acre") is tolerated and ignored.
func ParseAreaValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if fields := strings.Fields(raw); len(fields) > 1 {
		raw = fields[0]
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	if val < 0 {
		return 0, fmt.Errorf("%w: must be non-negative, got %v", ErrInvalidValue, val)
	}
	return val, nil
}
