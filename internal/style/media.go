package style

import (
	"strconv"
	"strings"
)

// DefaultViewportHeight pairs with the document viewport width for
// orientation and height queries.
const DefaultViewportHeight = 800

type viewport struct {
	width  int
	height int
}

// mediaRuleActive evaluates an @media prelude against the fixed viewport.
// Unknown media types never match; unknown features are assumed to match.
func mediaRuleActive(prelude string, vp viewport) bool {
	if strings.TrimSpace(prelude) == "" {
		return true
	}
	for _, raw := range strings.Split(prelude, ",") {
		query := strings.ToLower(strings.TrimSpace(raw))
		if query == "" {
			continue
		}
		negate := false
		if strings.HasPrefix(query, "not ") {
			negate = true
			query = strings.TrimSpace(strings.TrimPrefix(query, "not "))
		}
		query = strings.TrimSpace(strings.TrimPrefix(query, "only "))

		mediaType := ""
		rest := query
		if fields := strings.Fields(query); len(fields) > 0 && !strings.HasPrefix(fields[0], "(") {
			mediaType = fields[0]
			rest = strings.TrimSpace(strings.TrimPrefix(query, mediaType))
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "and"))
		}

		var match bool
		switch mediaType {
		case "", "all", "screen":
			match = evaluateMediaFeatures(rest, vp)
		default:
			match = false
		}
		if match != negate {
			return true
		}
	}
	return false
}

func evaluateMediaFeatures(expr string, vp viewport) bool {
	for _, clause := range strings.Split(expr, " and ") {
		c := strings.TrimSpace(clause)
		if c == "" {
			continue
		}
		if strings.HasPrefix(c, "(") && strings.HasSuffix(c, ")") {
			c = strings.TrimSpace(c[1 : len(c)-1])
		}
		parts := strings.SplitN(c, ":", 2)
		feature := strings.TrimSpace(parts[0])
		value := ""
		if len(parts) == 2 {
			value = strings.TrimSpace(parts[1])
		}

		switch feature {
		case "orientation":
			orientation := "portrait"
			if vp.width > vp.height {
				orientation = "landscape"
			}
			if value != "" && value != orientation {
				return false
			}
		case "min-width":
			if px, ok := cssLengthToPx(value, vp.width); ok && vp.width < px {
				return false
			}
		case "max-width":
			if px, ok := cssLengthToPx(value, vp.width); ok && vp.width > px {
				return false
			}
		case "min-height":
			if px, ok := cssLengthToPx(value, vp.height); ok && vp.height < px {
				return false
			}
		case "max-height":
			if px, ok := cssLengthToPx(value, vp.height); ok && vp.height > px {
				return false
			}
		case "prefers-color-scheme":
			if value != "" && value != "light" {
				return false
			}
		case "hover":
			if value != "" && value != "hover" {
				return false
			}
		}
	}
	return true
}

// cssLengthToPx converts a length to whole pixels. Percentages and viewport
// units scale against base; em and rem assume a 16px root font size.
func cssLengthToPx(val string, base int) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(val))
	if v == "" {
		return 0, false
	}
	num := func(suffix string) (float64, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, suffix)), 64)
		return f, err == nil
	}
	switch {
	case strings.HasSuffix(v, "px"):
		if f, ok := num("px"); ok {
			return int(f + 0.5), true
		}
	case strings.HasSuffix(v, "rem"):
		if f, ok := num("rem"); ok {
			return int(f*16 + 0.5), true
		}
	case strings.HasSuffix(v, "em"):
		if f, ok := num("em"); ok {
			return int(f*16 + 0.5), true
		}
	case strings.HasSuffix(v, "%"), strings.HasSuffix(v, "vw"), strings.HasSuffix(v, "vh"):
		suffix := "%"
		if !strings.HasSuffix(v, "%") {
			suffix = v[len(v)-2:]
		}
		if f, ok := num(suffix); ok && base > 0 {
			return int(float64(base) * f / 100), true
		}
	default:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int(f + 0.5), true
		}
	}
	return 0, false
}

// formatPx renders a pixel length the way computed styles do: no trailing
// zeros and a "px" suffix.
func formatPx(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "px"
}
