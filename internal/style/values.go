package style

import (
	"strconv"
	"strings"
)

const maxVarDepth = 16

// substituteVars replaces var(--name[, fallback]) references. ok is false
// when a reference cannot be resolved, which makes the declaration invalid
// at computed-value time.
func substituteVars(v string, vars map[string]string, depth int) (string, bool) {
	if !strings.Contains(v, "var(") {
		return v, true
	}
	if depth > maxVarDepth {
		return "", false
	}
	var b strings.Builder
	i := 0
	for i < len(v) {
		idx := strings.Index(v[i:], "var(")
		if idx < 0 {
			b.WriteString(v[i:])
			break
		}
		start := i + idx
		b.WriteString(v[i:start])
		end, closed := matchParen(v, start+3)
		if !closed {
			return "", false
		}
		inner := v[start+4 : end-1]
		name, fallback, hasFallback := strings.Cut(inner, ",")
		name = strings.TrimSpace(name)
		val, found := vars[name]
		switch {
		case found && strings.TrimSpace(val) != "":
		case hasFallback:
			val = strings.TrimSpace(fallback)
		default:
			return "", false
		}
		sub, ok := substituteVars(val, vars, depth+1)
		if !ok {
			return "", false
		}
		b.WriteString(sub)
		i = end
	}
	return b.String(), true
}

// normalizeLength serialises a length the way computed values do: unitless
// zero becomes 0px and font-relative units are converted with a 16px root.
func normalizeLength(tok string) string {
	t := strings.ToLower(strings.TrimSpace(tok))
	if t == "" {
		return t
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && f == 0 {
		return "0px"
	}
	for _, unit := range []string{"rem", "em"} {
		if strings.HasSuffix(t, unit) {
			if f, err := strconv.ParseFloat(strings.TrimSuffix(t, unit), 64); err == nil {
				return formatPx(f * 16)
			}
		}
	}
	if strings.HasSuffix(t, "px") {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(t, "px"), 64); err == nil {
			return formatPx(f)
		}
	}
	return t
}

// expandRadius turns a border-radius shorthand into the four corner values
// (top-left, top-right, bottom-right, bottom-left). A corner with distinct
// horizontal and vertical radii is stored as "h v".
func expandRadius(value string) [4]string {
	horiz, vert, _ := strings.Cut(value, "/")
	h := expandSides(strings.Fields(horiz))
	v := h
	if strings.TrimSpace(vert) != "" {
		v = expandSides(strings.Fields(vert))
	}
	var out [4]string
	for i := range out {
		if h[i] == v[i] {
			out[i] = h[i]
		} else {
			out[i] = h[i] + " " + v[i]
		}
	}
	return out
}

func expandSides(toks []string) [4]string {
	for i := range toks {
		toks[i] = normalizeLength(toks[i])
	}
	switch len(toks) {
	case 0:
		return [4]string{"0px", "0px", "0px", "0px"}
	case 1:
		return [4]string{toks[0], toks[0], toks[0], toks[0]}
	case 2:
		return [4]string{toks[0], toks[1], toks[0], toks[1]}
	case 3:
		return [4]string{toks[0], toks[1], toks[2], toks[1]}
	}
	return [4]string{toks[0], toks[1], toks[2], toks[3]}
}

// serializeRadius rebuilds the shortest border-radius shorthand for the
// four corners.
func serializeRadius(corners [4]string) string {
	var h, v [4]string
	elliptic := false
	for i, c := range corners {
		parts := strings.Fields(c)
		switch len(parts) {
		case 0:
			h[i], v[i] = "0px", "0px"
		case 1:
			h[i] = normalizeLength(parts[0])
			v[i] = h[i]
		default:
			h[i] = normalizeLength(parts[0])
			v[i] = normalizeLength(parts[1])
		}
		if h[i] != v[i] {
			elliptic = true
		}
	}
	out := collapseSides(h)
	if elliptic {
		out += " / " + collapseSides(v)
	}
	return out
}

func collapseSides(s [4]string) string {
	n := 4
	if s[3] == s[1] {
		n = 3
		if s[2] == s[0] {
			n = 2
			if s[1] == s[0] {
				n = 1
			}
		}
	}
	return strings.Join(s[:n], " ")
}

// canonicalShadow reorders each shadow layer into the computed form
// "<color> <x> <y> <blur> <spread> [inset]" with explicit zero lengths.
// current is used when a layer has no color.
func canonicalShadow(v, current string) string {
	layers := splitTopLevel(v, ',')
	out := make([]string, 0, len(layers))
	for _, layer := range layers {
		var color string
		var lengths []string
		inset := false
		for _, tok := range topLevelTokens(layer) {
			lower := strings.ToLower(tok)
			if lower == "inset" {
				inset = true
				continue
			}
			if c, ok := normalizeColor(tok, current); ok {
				color = c
				continue
			}
			lengths = append(lengths, normalizeLength(tok))
		}
		if len(lengths) == 0 {
			continue
		}
		for len(lengths) < 4 {
			lengths = append(lengths, "0px")
		}
		if color == "" {
			color = current
		}
		s := color + " " + strings.Join(lengths, " ")
		if inset {
			s += " inset"
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return "none"
	}
	return strings.Join(out, ", ")
}
