// Package detail projects a selected node or edge into categorized,
// human-readable property groups for the detail panel.
package detail

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders metadata values for one display language.
type Formatter struct {
	printer *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// ParseLanguage resolves a BCP 47 tag, falling back to English.
func ParseLanguage(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		return language.English
	}
	return t
}

var defaultFormatter = NewFormatter(language.English)

// FormatMetadataValue formats value with English number grouping.
func FormatMetadataValue(key string, value any) string {
	return defaultFormatter.Format(key, value)
}

// Format turns a metadata value into display text: nil is "N/A", booleans
// are Yes/No, numbers use locale grouping, structured values become indented
// JSON and everything else is printed as is. key is accepted for per-key
// rules and currently unused.
func (f *Formatter) Format(key string, value any) string {
	switch v := value.(type) {
	case nil:
		return "N/A"
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case string:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return f.printer.Sprintf("%d", v)
	case float32:
		return f.float(float64(v))
	case float64:
		return f.float(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return f.printer.Sprintf("%d", i)
		}
		if fl, err := v.Float64(); err == nil {
			return f.float(fl)
		}
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}

	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		out, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(out)
	}
	return fmt.Sprint(value)
}

func (f *Formatter) float(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}
