package sink

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var controlWhitespace = regexp.MustCompile(`[\r\n\t]+`)

// formatValue renders one cell. Missing and NaN values become empty cells.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return sanitizeText(v)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return sanitizeText(v.String())
	default:
		return sanitizeText(fmt.Sprint(v))
	}
}

func formatFloat(v float64, bits int) string {
	if math.IsNaN(v) {
		return ""
	}
	// integral values from JSON decoding print without a trailing ".0"
	return strconv.FormatFloat(v, 'f', -1, bits)
}

// sanitizeText strips embedded HTML (providers wrap names in anchor tags)
// and collapses line breaks and tabs into single spaces.
func sanitizeText(raw string) string {
	text := raw
	if strings.ContainsRune(text, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	text = controlWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
