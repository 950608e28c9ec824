package store

import (
	"fmt"
	"sort"
	"strings"
)

// Column describes one measurement column of the readings table.
type Column struct {
	Name  string // SQL column name
	Title string // human-friendly name for chart titles
}

// columns maps the CLI short names to their columns. The short names
// match the ones the station's own software uses in its exports.
var columns = map[string]Column{
	"itemp":  {"indoor_temp", "Indoor temperature"},
	"ihumid": {"indoor_humidity", "Indoor humidity"},
	"otemp":  {"outdoor_temp", "Outdoor temperature"},
	"ohumid": {"outdoor_humidity", "Outdoor humidity"},
	"dewpt":  {"dew_point", "Dew point"},
	"feels":  {"feels_like", "Feels like"},
	"wind":   {"wind", "Wind"},
	"gust":   {"gust", "Gust"},
	"wdir":   {"wind_dir", "Wind direction"},
	"apres":  {"abs_pressure", "Absolute pressure"},
	"rpres":  {"rel_pressure", "Relative pressure"},
	"solrad": {"solar_radiation", "Solar radiation"},
	"uvidx":  {"uv_index", "UV index"},
	"hrain":  {"hourly_rain", "Hourly rain"},
	"erain":  {"event_rain", "Event rain"},
	"drain":  {"daily_rain", "Daily rain"},
	"wrain":  {"weekly_rain", "Weekly rain"},
	"mrain":  {"monthly_rain", "Monthly rain"},
	"yrain":  {"yearly_rain", "Yearly rain"},
}

// measurementColumns is the SQL column list in backup column order,
// matching Reading's measurement order exactly.
var measurementColumns = []string{
	"indoor_temp", "indoor_humidity",
	"outdoor_temp", "outdoor_humidity",
	"dew_point", "feels_like",
	"wind", "gust", "wind_dir",
	"abs_pressure", "rel_pressure",
	"solar_radiation", "uv_index",
	"hourly_rain", "event_rain", "daily_rain",
	"weekly_rain", "monthly_rain", "yearly_rain",
}

// NumMeasurements is the number of measurement columns in a reading.
const NumMeasurements = 19

// MeasurementName returns the SQL name of the i-th measurement column
// in backup order.
func MeasurementName(i int) string {
	return measurementColumns[i]
}

// LookupColumn resolves a CLI short name. The error lists the known
// short names so it can be shown to the user verbatim.
func LookupColumn(short string) (Column, error) {
	c, ok := columns[short]
	if !ok {
		return Column{}, fmt.Errorf("%q is not a known data type; must be one of: %s",
			short, strings.Join(ShortNames(), ", "))
	}
	return c, nil
}

// ShortNames returns the known short names, sorted.
func ShortNames() []string {
	names := make([]string, 0, len(columns))
	for n := range columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// validColumn reports whether name is a measurement column of the
// readings table. Scans refuse anything else so that column names are
// never interpolated from untrusted text.
func validColumn(name string) bool {
	for _, c := range measurementColumns {
		if c == name {
			return true
		}
	}
	return false
}
