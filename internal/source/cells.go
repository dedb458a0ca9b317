package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

var nullTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
}

func isNull(s string) bool { return nullTokens[strings.TrimSpace(s)] }

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "t", "y":
		return true, true
	case "false", "no", "f", "n":
		return false, true
	}
	return false, false
}

// parseNumeric accepts locale formatted numbers such as "1.000,5" or "12%".
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// headerNames fills blank headers with "Unnamed: N" and suffixes repeated
// names with ".1", ".2" and so on.
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for taken[name] {
			seen[h]++
			name = fmt.Sprintf("%s.%d", h, seen[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

// textColumn infers the type of a column of raw strings: numeric when every
// non-null cell parses as a number, boolean when every one is a boolean
// token, otherwise text.
func textColumn(name string, cells []string, opt Options) *dataset.Column {
	valid := make([]bool, len(cells))
	nonNull := 0
	for i, c := range cells {
		if !isNull(c) {
			valid[i] = true
			nonNull++
		}
	}
	if nonNull > 0 {
		nums := make([]float64, len(cells))
		allNum := true
		for i, c := range cells {
			if !valid[i] {
				continue
			}
			v, ok := parseNumeric(c, opt)
			if !ok {
				allNum = false
				break
			}
			nums[i] = v
		}
		if allNum {
			return dataset.NewNumeric(name, nums, valid)
		}
		bools := make([]bool, len(cells))
		allBool := true
		for i, c := range cells {
			if !valid[i] {
				continue
			}
			b, ok := parseBool(c)
			if !ok {
				allBool = false
				break
			}
			bools[i] = b
		}
		if allBool {
			return dataset.NewBoolean(name, bools, valid)
		}
	}
	strs := make([]string, len(cells))
	for i, c := range cells {
		if valid[i] {
			strs[i] = strings.TrimSpace(c)
		}
	}
	return dataset.NewText(name, strs, valid)
}
