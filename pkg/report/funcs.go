package report

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

func makeFuncMap() template.FuncMap {
	return template.FuncMap{
		"inc":   inc,
		"rule":  rule,
		"fixed": fixed,
		"pct":   pct,
		"bar":   bar,
		"gram":  gram,
		"dict":  dict,
	}
}

// inc returns i + 1.
func inc(i int) int {
	return i + 1
}

// rule returns a horizontal rule of n dashes.
func rule(n int) string {
	if n < 0 {
		return ""
	}
	return strings.Repeat("-", n)
}

// fixed formats f with two decimals.
func fixed(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// pct formats a probability as a percentage.
func pct(p float64) string {
	return fmt.Sprintf("%6.3f%%", p*100)
}

// bar draws value as a run of '#' scaled so that maximum fills width.
func bar(value, maximum any, width int) string {
	v, m := toFloat(value), toFloat(maximum)
	if m <= 0 || v <= 0 || width <= 0 {
		return ""
	}
	n := int(v / m * float64(width))
	if n == 0 {
		return "."
	}
	return strings.Repeat("#", min(n, width))
}

// gram renders a key with its tokens separated by spaces.
func gram(key ngram.Key) string {
	return strings.Join(key, " ")
}

// toFloat converts any numeric template value to float64. Anything else is 0.
func toFloat(val any) float64 {
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return 0
	}
}
