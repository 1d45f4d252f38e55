package mxml

import "strings"

// locateSegments descends the source buffer from c, looking for the
// nested chain of tag names in segments. It is purely a function of the
// source bytes and never observes the edit journal.
func locateSegments(c *cursor, segments []string) (span, bool) {
	return locateSegmentsFrom(c, nil, "", segments)
}

// locateSegmentsFrom is locateSegments with an optional cache and the
// canonical prefix already matched to reach c's current position. Every
// container it descends through gets its own (prefix, span) entry, not
// just the terminal match, so a later lookup for a sibling under the
// same container can resume mid-document instead of re-scanning from
// the root.
func locateSegmentsFrom(c *cursor, cache *prefixCache, basePrefix string, segments []string) (span, bool) {
	for {
		skipNoise(c)
		if c.atEOF() || c.peekEquals("</") {
			return span{}, false
		}
		if !c.eatChar('<') {
			return span{}, false
		}
		name, ok := readTagName(c)
		if !ok {
			return span{}, false
		}
		contentStart := c.pos
		if name == segments[0] {
			key := joinKey(basePrefix, segments[0])
			if len(segments) == 1 {
				closeStart, _ := c.skipToClose()
				sp := span{start: contentStart, end: closeStart}
				if cache != nil {
					cache.insert(key, sp)
				}
				return sp, true
			}
			if cache == nil {
				return locateSegmentsFrom(c, nil, "", segments[1:])
			}
			savedPos := c.pos
			closeStart, _ := c.skipToClose()
			cache.insert(key, span{start: contentStart, end: closeStart})
			c.pos = savedPos
			return locateSegmentsFrom(c, cache, key, segments[1:])
		}
		c.skipToClose()
	}
}

// locateSource finds the source span for a canonical key, consulting and
// populating the prefix cache along the way.
func (d *Document) locateSource(canonicalKey string) (span, bool) {
	segs := strings.Split(canonicalKey, ".")
	if d.cache != nil {
		if sp, prefix, ok := d.cache.lookup(canonicalKey); ok {
			if prefix == canonicalKey {
				return sp, true
			}
			remaining := strings.Split(canonicalKey[len(prefix)+1:], ".")
			c := &cursor{src: d.src, pos: sp.start}
			return locateSegmentsFrom(c, d.cache, prefix, remaining)
		}
	}
	c := &cursor{src: d.src, pos: 0}
	return locateSegmentsFrom(c, d.cache, "", segs)
}
