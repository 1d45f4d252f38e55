package mxml

import (
	"bytes"
	"strings"
)

// decodeContent unescapes the three recognized entities (&lt; &gt; &amp;)
// in a content span, passing any CDATA block through byte-for-byte. A
// follow byte after '&' other than l/g/a is silently dropped, matching
// how the source document's own encoder behaves.
func decodeContent(src []byte) string {
	if bytes.HasPrefix(src, cdataOpen) && bytes.HasSuffix(src, cdataClose) &&
		bytes.Index(src[len(cdataOpen):], cdataClose) == len(src)-len(cdataOpen)-len(cdataClose) {
		return unsafeString(src[len(cdataOpen) : len(src)-len(cdataClose)])
	}
	if bytes.IndexByte(src, '&') == -1 && bytes.Index(src, cdataOpen) == -1 {
		return unsafeString(src)
	}
	var b strings.Builder
	b.Grow(len(src))
	i := 0
	for i < len(src) {
		switch {
		case src[i] == '&':
			if i+1 < len(src) {
				switch src[i+1] {
				case 'l':
					b.WriteByte('<')
				case 'g':
					b.WriteByte('>')
				case 'a':
					b.WriteByte('&')
				}
			}
			j := bytes.IndexByte(src[i:], ';')
			if j == -1 {
				i = len(src)
				continue
			}
			i += j + 1
		case bytes.HasPrefix(src[i:], cdataOpen):
			end := bytes.Index(src[i:], cdataClose)
			if end == -1 {
				b.Write(src[i:])
				i = len(src)
				continue
			}
			b.Write(src[i+len(cdataOpen) : i+end])
			i += end + len(cdataClose)
		default:
			b.WriteByte(src[i])
			i++
		}
	}
	return b.String()
}

// encodeText escapes '<', '>' and '&' for use as element text.
func encodeText(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
