package wavfile

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

const guanoMarker = "GUANO|Version:"

// Hong Kong recorders have been seen writing the longitude with a flipped
// sign; values with a magnitude in this band are taken as east.
const (
	hkLongitudeMin = 113.0
	hkLongitudeMax = 115.0
)

// Metadata is the subset of GUANO fields shown next to a recording
type Metadata struct {
	Date      string            `json:"date" yaml:"date"`
	Time      string            `json:"time" yaml:"time"`
	Latitude  string            `json:"latitude" yaml:"latitude"`
	Longitude string            `json:"longitude" yaml:"longitude"`
	Fields    map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ExtractGUANO returns the text of the first chunk that carries a GUANO
// header. ok is false when the file has none.
func ExtractGUANO(data []byte) (text string, ok bool) {
	_ = WalkChunks(data, func(c Chunk) bool {
		body := c.Body(data)
		if bytes.Contains(body, []byte(guanoMarker)) {
			text = string(body)
			ok = true
			return false
		}
		return true
	})
	return text, ok
}

// ParseGUANO reads "Key: value" lines. Timestamp becomes a YYYY/MM/DD date
// and an HHMM time; Loc Position becomes latitude and longitude.
func ParseGUANO(text string) Metadata {
	fields := make(map[string]string)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	meta := Metadata{Fields: fields}

	if ts := fields["Timestamp"]; ts != "" {
		datePart, rest, _ := strings.Cut(ts, " ")
		timePart, _, _ := strings.Cut(rest, "+")
		meta.Date = strings.ReplaceAll(datePart, "-", "/")
		if len(timePart) > 5 {
			timePart = timePart[:5]
		}
		meta.Time = strings.Replace(timePart, ":", "", 1)
	}

	if pos := strings.Fields(fields["Loc Position"]); len(pos) > 0 {
		meta.Latitude = pos[0]
		if len(pos) > 1 {
			meta.Longitude = normalizeLongitude(pos[1])
		}
	}

	return meta
}

func normalizeLongitude(raw string) string {
	lon, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if lon < 0 && math.Abs(lon) >= hkLongitudeMin && math.Abs(lon) <= hkLongitudeMax {
		lon = math.Abs(lon)
	}
	return strconv.FormatFloat(lon, 'f', -1, 64)
}

// Coordinates parses the latitude and longitude. ok is false when either is
// missing or not numeric.
func (m Metadata) Coordinates() (lat, lon float64, ok bool) {
	lat, errLat := strconv.ParseFloat(m.Latitude, 64)
	lon, errLon := strconv.ParseFloat(m.Longitude, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
