package document

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Implicit typing of plain YAML scalars follows the YAML 1.1 rules for
// booleans, integers, floats and nulls. Timestamps are not resolved and stay
// strings; sexagesimal numbers are not supported.
var (
	yamlBools = map[string]bool{
		"yes": true, "Yes": true, "YES": true,
		"no": false, "No": false, "NO": false,
		"true": true, "True": true, "TRUE": true,
		"false": false, "False": false, "FALSE": false,
		"on": true, "On": true, "ON": true,
		"off": false, "Off": false, "OFF": false,
	}
	yamlNulls = map[string]bool{"": true, "~": true, "null": true, "Null": true, "NULL": true}

	yamlInt   = regexp.MustCompile(`^(?:[-+]?0b[0-1_]+|[-+]?0[0-7_]+|[-+]?(?:0|[1-9][0-9_]*)|[-+]?0x[0-9a-fA-F_]+)$`)
	yamlFloat = regexp.MustCompile(`^(?:[-+]?(?:\.[0-9]+|[0-9][0-9_]*(?:\.[0-9_]*)?)(?:[eE][-+]?[0-9]+)?|[-+]?\.(?:inf|Inf|INF)|\.(?:nan|NaN|NAN))$`)
	jsonNum   = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?$`)
)

// resolvePlain types a plain scalar.
func resolvePlain(s string) any {
	if yamlNulls[s] {
		return nil
	}
	if b, ok := yamlBools[s]; ok {
		return b
	}
	if yamlInt.MatchString(s) {
		if n, ok := parseYAMLInt(s); ok {
			return n
		}
	}
	if yamlFloat.MatchString(s) {
		if n, ok := parseYAMLFloat(s); ok {
			return n
		}
	}
	return s
}

func parseYAMLInt(s string) (json.Number, bool) {
	s = strings.ReplaceAll(s, "_", "")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0b"):
		base, s = 2, s[2:]
	case strings.HasPrefix(s, "0x"):
		base, s = 16, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	if s == "" {
		return "", false
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return "", false
	}
	if neg {
		n.Neg(n)
	}
	return json.Number(n.String()), true
}

// parseYAMLFloat returns false for infinities and NaN, which have no JSON
// representation; those scalars stay strings.
func parseYAMLFloat(s string) (json.Number, bool) {
	s = strings.ReplaceAll(s, "_", "")
	if jsonNum.MatchString(s) {
		return json.Number(s), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	// Infinities never get here: ".inf" is not a valid ParseFloat input.
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), true
}

// isPlainString reports whether s reads back as the same string when
// written as a plain scalar.
func isPlainString(s string) bool {
	v, ok := resolvePlain(s).(string)
	return ok && v == s
}
