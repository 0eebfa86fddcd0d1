// Package sensors normalises raw NPK sensor payloads into Reading values and
// keeps track of the most recent snapshot reported by the field devices.
package sensors

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Reading is a normalised 7-in-1 soil sensor snapshot.
type Reading struct {
	Label        string    `json:"label"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture float64   `json:"soil_moisture"`
	SoilPH       float64   `json:"soil_ph"`
	EC           float64   `json:"ec"`
	Nitrogen     float64   `json:"nitrogen"`
	Phosphorous  float64   `json:"phosphorous"`
	Potassium    float64   `json:"potassium"`
	Battery      float64   `json:"battery"`
	Timestamp    time.Time `json:"timestamp"`
	Alerts       []string  `json:"alerts"`
}

// field lists the accepted spellings of one reading field, in lookup order,
// and the value used when none of them holds a usable number.
type field struct {
	keys     []string
	fallback float64
}

var (
	labelKeys = []string{"label", "name", "sensor_name"}

	temperatureField = field{[]string{"temprature", "temperature", "Temperature", "temp", "Temp"}, 25.0}
	humidityField    = field{[]string{"humidity", "Humidity", "hum", "Hum"}, 60.0}
	moistureField    = field{[]string{"Moisture", "moisture", "soil_moisture", "soilMoisture"}, 50.0}
	phField          = field{[]string{"PH", "ph", "pH", "soil_ph", "soilPh"}, 6.5}
	ecField          = field{[]string{"EC", "ec", "electrical_conductivity"}, 1.5}
	nitrogenField    = field{[]string{"Nitrogen", "nitrogen", "N"}, 50.0}
	phosphorousField = field{[]string{"Phosphorous", "phosphorous", "P"}, 30.0}
	potassiumField   = field{[]string{"Potassium", "potassium", "K"}, 40.0}
	batteryField     = field{[]string{"battery", "battery_level", "batteryLevel"}, 85.0}

	timestampKeys = []string{"timestamp", "time", "updated_at"}
)

const DefaultLabel = "NPK Sensor"

// Normalize maps a raw device payload onto a Reading. Unknown keys are
// ignored, missing or unparsable values fall back to defaults, and zero is
// kept as a real value. now is used when the payload carries no usable
// timestamp.
func Normalize(raw map[string]any, now time.Time) Reading {
	if raw == nil {
		raw = map[string]any{}
	}

	label := DefaultLabel
	if v, ok := lookup(raw, labelKeys); ok {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			label = s
		}
	}

	r := Reading{
		Label:        label,
		Temperature:  round2(floatField(raw, temperatureField)),
		Humidity:     round2(floatField(raw, humidityField)),
		SoilMoisture: round2(floatField(raw, moistureField)),
		SoilPH:       round2(floatField(raw, phField)),
		EC:           round2(floatField(raw, ecField)),
		Nitrogen:     round2(floatField(raw, nitrogenField)),
		Phosphorous:  round2(floatField(raw, phosphorousField)),
		Potassium:    round2(floatField(raw, potassiumField)),
		Battery:      round2(floatField(raw, batteryField)),
		Timestamp:    parseTimestamp(raw, now),
	}
	r.Alerts = Alerts(r)
	return r
}

// Alerts reports readings that cross the field alarm thresholds.
func Alerts(r Reading) []string {
	alerts := []string{}
	if r.Temperature > 40 {
		alerts = append(alerts, fmt.Sprintf("High temperature alert: %v°C exceeds 40°C threshold", r.Temperature))
	} else if r.Temperature < 10 {
		alerts = append(alerts, fmt.Sprintf("Low temperature alert: %v°C below 10°C threshold", r.Temperature))
	}

	if r.SoilPH < 5 {
		alerts = append(alerts, fmt.Sprintf("Low pH alert: %v below 5.0 threshold", r.SoilPH))
	} else if r.SoilPH > 8 {
		alerts = append(alerts, fmt.Sprintf("High pH alert: %v exceeds 8.0 threshold", r.SoilPH))
	}

	if r.SoilMoisture < 30 {
		alerts = append(alerts, fmt.Sprintf("Low soil moisture alert: %v%% below 30%% threshold", r.SoilMoisture))
	}
	return alerts
}

// Placeholder is served when no device has reported yet.
func Placeholder(now time.Time) Reading {
	return Reading{
		Label:        DefaultLabel,
		Temperature:  28.5,
		Humidity:     65.0,
		SoilMoisture: 55.0,
		SoilPH:       6.8,
		EC:           1.8,
		Nitrogen:     45.0,
		Phosphorous:  25.0,
		Potassium:    35.0,
		Battery:      92.0,
		Timestamp:    now,
		Alerts:       []string{},
	}
}

// readingKeys are every spelling Normalize understands. A map holding any
// of them is a reading rather than a collection of readings keyed by sensor ID.
var readingKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	lists := [][]string{labelKeys, timestampKeys}
	for _, f := range []field{
		temperatureField, humidityField, moistureField, phField, ecField,
		nitrogenField, phosphorousField, potassiumField, batteryField,
	} {
		lists = append(lists, f.keys)
	}
	for _, list := range lists {
		for _, k := range list {
			keys[k] = struct{}{}
		}
	}
	return keys
}()

// ExtractRecord finds the sensor record inside a decoded payload. It accepts
// a direct reading, a map of sensor ID to reading (the first ID in sorted
// order whose value is an object wins), or a list of readings (the first one
// wins). Anything else is rejected.
func ExtractRecord(payload any) (map[string]any, bool) {
	switch v := payload.(type) {
	case map[string]any:
		for k := range v {
			if _, ok := readingKeys[k]; ok {
				return v, true
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if inner, ok := v[k].(map[string]any); ok {
				return inner, true
			}
		}
		return nil, false
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		inner, ok := v[0].(map[string]any)
		return inner, ok
	default:
		return nil, false
	}
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func floatField(raw map[string]any, f field) float64 {
	v, ok := lookup(raw, f.keys)
	if !ok {
		return f.fallback
	}
	n, ok := toFloat(v)
	if !ok {
		log.Printf("sensors: could not convert %q=%v (%T) to float, using default %v", f.keys[0], v, v, f.fallback)
		return f.fallback
	}
	return n
}

// toFloat accepts numbers, numeric strings and booleans. Non-finite values
// are rejected so they never reach the recommendation engine.
func toFloat(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case int32:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	case bool:
		if x {
			n = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw map[string]any, now time.Time) time.Time {
	var v any
	for _, k := range timestampKeys {
		if x, ok := raw[k]; ok && !isZeroValue(x) {
			v = x
			break
		}
	}
	if v == nil {
		return now
	}

	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
				return t
			}
		}
		return now
	}

	secs, ok := toFloat(v)
	if !ok || secs < 0 {
		return now
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).In(now.Location())
}

// isZeroValue reports values a device sends when it has no clock: null,
// empty strings and a numeric zero.
func isZeroValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	n, ok := toFloat(v)
	return ok && n == 0
}

// round2 rounds to two decimals with ties going to the even digit.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
