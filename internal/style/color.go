package style

import (
	"math"
	"strconv"
	"strings"
)

// Serialisation of fully transparent black, as browsers report it.
const Transparent = "rgba(0, 0, 0, 0)"

var namedColors = map[string][3]uint8{
	"black": {0, 0, 0}, "white": {255, 255, 255}, "red": {255, 0, 0},
	"lime": {0, 255, 0}, "blue": {0, 0, 255}, "yellow": {255, 255, 0},
	"cyan": {0, 255, 255}, "aqua": {0, 255, 255}, "magenta": {255, 0, 255},
	"fuchsia": {255, 0, 255}, "silver": {192, 192, 192}, "gray": {128, 128, 128},
	"grey": {128, 128, 128}, "maroon": {128, 0, 0}, "olive": {128, 128, 0},
	"green": {0, 128, 0}, "purple": {128, 0, 128}, "teal": {0, 128, 128},
	"navy": {0, 0, 128}, "orange": {255, 165, 0}, "gold": {255, 215, 0},
	"pink": {255, 192, 203}, "hotpink": {255, 105, 180}, "deeppink": {255, 20, 147},
	"crimson": {220, 20, 60}, "coral": {255, 127, 80}, "tomato": {255, 99, 71},
	"orangered": {255, 69, 0}, "indigo": {75, 0, 130}, "violet": {238, 130, 238},
	"orchid": {218, 112, 214}, "plum": {221, 160, 221}, "turquoise": {64, 224, 208},
	"skyblue": {135, 206, 235}, "deepskyblue": {0, 191, 255}, "dodgerblue": {30, 144, 255},
	"royalblue": {65, 105, 225}, "steelblue": {70, 130, 180}, "slategray": {112, 128, 144},
	"darkgray": {169, 169, 169}, "darkgrey": {169, 169, 169}, "lightgray": {211, 211, 211},
	"lightgrey": {211, 211, 211}, "gainsboro": {220, 220, 220}, "whitesmoke": {245, 245, 245},
	"limegreen": {50, 205, 50}, "springgreen": {0, 255, 127}, "chartreuse": {127, 255, 0},
	"darkblue": {0, 0, 139}, "midnightblue": {25, 25, 112}, "darkslategray": {47, 79, 79},
	"beige": {245, 245, 220}, "ivory": {255, 255, 240}, "khaki": {240, 230, 140},
	"salmon": {250, 128, 114}, "tan": {210, 180, 140}, "brown": {165, 42, 42},
	"chocolate": {210, 105, 30}, "rebeccapurple": {102, 51, 153}, "darkviolet": {148, 0, 211},
	"blueviolet": {138, 43, 226}, "mediumpurple": {147, 112, 219}, "lavender": {230, 230, 250},
}

// normalizeColor converts a single CSS color value to its computed form:
// rgb(r, g, b) when opaque, rgba(r, g, b, a) otherwise. current is the value
// substituted for currentcolor. ok is false when v is not a recognised color.
func normalizeColor(v, current string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case s == "":
		return "", false
	case s == "transparent":
		return Transparent, true
	case s == "currentcolor":
		if current == "" {
			return "", false
		}
		return current, true
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseRGBFunc(s)
	case strings.HasPrefix(s, "hsl(") || strings.HasPrefix(s, "hsla("):
		return parseHSLFunc(s)
	}
	if rgb, ok := namedColors[s]; ok {
		return formatRGBA(float64(rgb[0]), float64(rgb[1]), float64(rgb[2]), 1), true
	}
	return "", false
}

// IsTransparent reports whether v is a color with zero alpha, whatever its
// channels.
func IsTransparent(v string) bool {
	c, ok := normalizeColor(v, "")
	if !ok || !strings.HasPrefix(c, "rgba(") {
		return false
	}
	alpha := c[strings.LastIndexByte(c, ',')+1 : len(c)-1]
	a, err := strconv.ParseFloat(strings.TrimSpace(alpha), 64)
	return err == nil && a == 0
}

func isColorFunc(name string) bool {
	switch name {
	case "rgb", "rgba", "hsl", "hsla":
		return true
	}
	return false
}

func parseHex(h string) (string, bool) {
	for _, r := range h {
		if !isHexDigit(byte(r)) {
			return "", false
		}
	}
	expand := func(s string) string {
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			b.WriteByte(s[i])
			b.WriteByte(s[i])
		}
		return b.String()
	}
	switch len(h) {
	case 3, 4:
		h = expand(h)
	case 6, 8:
	default:
		return "", false
	}
	comp := func(i int) float64 {
		n, _ := strconv.ParseUint(h[i:i+2], 16, 8)
		return float64(n)
	}
	alpha := 1.0
	if len(h) == 8 {
		alpha = comp(6) / 255
	}
	return formatRGBA(comp(0), comp(2), comp(4), alpha), true
}

// colorArgs splits the arguments of rgb()/hsl() in either the legacy comma
// syntax or the space syntax with an optional "/ alpha".
func colorArgs(s string) ([]string, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, false
	}
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	inner = strings.ReplaceAll(inner, "/", " ")
	inner = strings.ReplaceAll(inner, ",", " ")
	args := strings.Fields(inner)
	if len(args) < 3 || len(args) > 4 {
		return nil, false
	}
	return args, true
}

func parseRGBFunc(s string) (string, bool) {
	args, ok := colorArgs(s)
	if !ok {
		return "", false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, ok := parseNumberOrPercent(args[i], 255)
		if !ok {
			return "", false
		}
		ch[i] = clamp(v, 0, 255)
	}
	alpha := 1.0
	if len(args) == 4 {
		a, ok := parseNumberOrPercent(args[3], 1)
		if !ok {
			return "", false
		}
		alpha = clamp(a, 0, 1)
	}
	return formatRGBA(ch[0], ch[1], ch[2], alpha), true
}

func parseHSLFunc(s string) (string, bool) {
	args, ok := colorArgs(s)
	if !ok {
		return "", false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return "", false
	}
	sat, ok1 := parseNumberOrPercent(args[1], 1)
	light, ok2 := parseNumberOrPercent(args[2], 1)
	if !ok1 || !ok2 {
		return "", false
	}
	if !strings.HasSuffix(args[1], "%") {
		sat /= 100
	}
	if !strings.HasSuffix(args[2], "%") {
		light /= 100
	}
	alpha := 1.0
	if len(args) == 4 {
		a, ok := parseNumberOrPercent(args[3], 1)
		if !ok {
			return "", false
		}
		alpha = clamp(a, 0, 1)
	}
	r, g, b := hslToRGB(math.Mod(math.Mod(h, 360)+360, 360), clamp(sat, 0, 1), clamp(light, 0, 1))
	return formatRGBA(r, g, b, alpha), true
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	f := func(n float64) float64 {
		k := math.Mod(n+h/30, 12)
		a := s * math.Min(l, 1-l)
		return 255 * (l - a*math.Max(-1, math.Min(math.Min(k-3, 9-k), 1)))
	}
	return f(0), f(8), f(4)
}

// parseNumberOrPercent parses "12", "12.5" or "50%"; percentages scale to max.
func parseNumberOrPercent(s string, max float64) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return v / 100 * max, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func formatRGBA(r, g, b, a float64) string {
	ri := strconv.Itoa(int(math.Round(r)))
	gi := strconv.Itoa(int(math.Round(g)))
	bi := strconv.Itoa(int(math.Round(b)))
	if a >= 1 {
		return "rgb(" + ri + ", " + gi + ", " + bi + ")"
	}
	return "rgba(" + ri + ", " + gi + ", " + bi + ", " + formatAlpha(a) + ")"
}

// formatAlpha uses two decimals when they round-trip to the same 8-bit
// alpha, three otherwise, matching browser serialisation.
func formatAlpha(a float64) string {
	byteVal := math.Round(a * 255)
	two := math.Round(a*100) / 100
	if math.Round(two*255) == byteVal {
		return strconv.FormatFloat(two, 'f', -1, 64)
	}
	return strconv.FormatFloat(math.Round(a*1000)/1000, 'f', -1, 64)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// normalizeColorsIn rewrites every color token inside a compound value such
// as a box-shadow list or a gradient, leaving everything else untouched.
// url() arguments are never rewritten.
func normalizeColorsIn(v, current string) string {
	var b strings.Builder
	i := 0
	for i < len(v) {
		c := v[i]
		switch {
		case c == '#':
			j := i + 1
			for j < len(v) && isHexDigit(v[j]) {
				j++
			}
			if col, ok := normalizeColor(v[i:j], current); ok {
				b.WriteString(col)
			} else {
				b.WriteString(v[i:j])
			}
			i = j
		case isIdentStart(c) && (i == 0 || !isIdentChar(v[i-1])):
			j := i
			for j < len(v) && isIdentChar(v[j]) {
				j++
			}
			word := v[i:j]
			if j < len(v) && v[j] == '(' {
				end, closed := matchParen(v, j)
				name := strings.ToLower(word)
				switch {
				case name == "url":
					b.WriteString(v[i:end])
				case isColorFunc(name) && closed:
					if col, ok := normalizeColor(v[i:end], current); ok {
						b.WriteString(col)
					} else {
						b.WriteString(v[i:end])
					}
				default:
					inner := v[j+1 : end]
					if closed {
						inner = v[j+1 : end-1]
					}
					b.WriteString(word)
					b.WriteByte('(')
					b.WriteString(normalizeColorsIn(inner, current))
					if closed {
						b.WriteByte(')')
					}
				}
				i = end
				continue
			}
			if col, ok := normalizeColor(word, current); ok {
				b.WriteString(col)
			} else {
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// matchParen returns the index just past the parenthesis matching the one at
// open, and whether it was found before the end of s.
func matchParen(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(s), false
}
