package mxml

import (
	"strconv"
	"strings"
)

const maxKeyLen = 256

const forbiddenChars = ".#%["

// keyFlags records which sentinel subscripts a user key used, and any
// side information the path expander had to compute while resolving
// them, so the calling operation (Get/Update/Append/Delete/...) can
// apply its own preconditions without re-parsing the key.
type keyFlags struct {
	hasHash bool
	hasStar bool

	hasPlus          bool
	plusTotalKey     string
	plusNewTotal     int
	plusTotalExisted bool

	terminalIsDollar bool
	dollarTotalKey   string
	dollarResolvedN  int
}

// expandKey rewrites a user key into its canonical dotted form, resolving
// [$] and [+] against the current logical view along the way.
func (d *Document) expandKey(userKey string) (string, keyFlags, error) {
	if userKey == "" {
		return "", keyFlags{}, ErrInvalidKey
	}
	rawSegs := strings.Split(userKey, ".")
	var out []string
	var flags keyFlags

	for i, raw := range rawSegs {
		if raw == "" {
			return "", keyFlags{}, ErrInvalidKey
		}
		terminal := i == len(rawSegs)-1

		tagPart := raw
		sub := ""
		hasBracket := false
		if idx := strings.IndexByte(raw, '['); idx != -1 {
			hasBracket = true
			if !strings.HasSuffix(raw, "]") {
				return "", keyFlags{}, ErrInvalidKey
			}
			tagPart = raw[:idx]
			sub = raw[idx+1 : len(raw)-1]
			if strings.ContainsAny(sub, "[]") {
				return "", keyFlags{}, ErrInvalidKey
			}
		}
		if tagPart == "" || strings.ContainsAny(tagPart, forbiddenChars) {
			return "", keyFlags{}, ErrInvalidKey
		}
		if !hasBracket {
			out = append(out, tagPart)
			continue
		}

		plural := tagPart + "s"
		switch {
		case sub == "#":
			if !terminal {
				return "", keyFlags{}, ErrInvalidKey
			}
			flags.hasHash = true
			out = append(out, plural, "total")

		case sub == "$":
			totalKey := joinKey(strings.Join(out, "."), plural, "total")
			n := 0
			if val, found := d.readThrough(totalKey); found {
				if parsed, err := strconv.Atoi(val); err == nil && parsed >= 1 {
					n = parsed
				}
			}
			out = append(out, plural, tagPart+strconv.Itoa(n))
			if terminal {
				flags.terminalIsDollar = true
				flags.dollarTotalKey = totalKey
				flags.dollarResolvedN = n
			}

		case sub == "*":
			if !terminal {
				return "", keyFlags{}, ErrInvalidKey
			}
			flags.hasStar = true
			out = append(out, plural)

		case sub == "+":
			if flags.hasPlus {
				return "", keyFlags{}, ErrInvalidKey
			}
			flags.hasPlus = true
			totalKey := joinKey(strings.Join(out, "."), plural, "total")
			curN := 0
			existed := false
			if val, found := d.readThrough(totalKey); found {
				existed = true
				if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
					curN = parsed
				}
			}
			newN := curN + 1
			flags.plusTotalKey = totalKey
			flags.plusNewTotal = newN
			flags.plusTotalExisted = existed
			out = append(out, plural, tagPart+strconv.Itoa(newN))

		default:
			n, err := strconv.Atoi(sub)
			if err != nil || n < 1 || strconv.Itoa(n) != sub {
				return "", keyFlags{}, ErrInvalidKey
			}
			out = append(out, plural, tagPart+strconv.Itoa(n))
		}
	}

	canonical := strings.Join(out, ".")
	if len(canonical) > maxKeyLen {
		return "", keyFlags{}, ErrKeyTooLong
	}
	return canonical, flags, nil
}

func joinKey(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}

func lastSegment(key string) string {
	if idx := strings.LastIndexByte(key, '.'); idx != -1 {
		return key[idx+1:]
	}
	return key
}
