package mxml

import (
	"bytes"
	"io"
	"strings"
)

// sink receives the output of a flatten walk: either raw source bytes or
// notice of an element boundary (its canonical key). Write and Keys share
// one walk by implementing this interface differently.
type sink interface {
	raw(b []byte) error
	element(key string) error
}

type writeSink struct {
	w io.Writer
	n int64
}

func (s *writeSink) raw(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	n, err := s.w.Write(b)
	s.n += int64(n)
	if err != nil {
		return err
	}
	if n < len(b) {
		return io.ErrShortWrite
	}
	return nil
}

func (s *writeSink) element(string) error { return nil }

type keysSink struct {
	keys []string
}

func (s *keysSink) raw([]byte) error { return nil }

func (s *keysSink) element(key string) error {
	s.keys = append(s.keys, key)
	return nil
}

// Write serializes the document, replaying the edit journal over the
// source, and returns the number of bytes written.
func (d *Document) Write(w io.Writer) (int64, error) {
	s := &writeSink{w: w}
	err := d.flatten(s)
	return s.n, err
}

// Keys returns every canonical key in the document, in the order Write
// would emit them. Container and empty elements are included.
func (d *Document) Keys() ([]string, error) {
	s := &keysSink{}
	if err := d.flatten(s); err != nil {
		return nil, err
	}
	return s.keys, nil
}

func (d *Document) flatten(s sink) error {
	c := &cursor{src: d.src, pos: 0}
	if err := d.copyNoise(s, c); err != nil {
		return err
	}
	if c.atEOF() {
		return nil
	}
	if err := d.flattenElement(s, c, ""); err != nil {
		return err
	}
	return s.raw(d.src[c.pos:])
}

// copyNoise passes prologue/comment/PI bytes straight to the sink.
func (d *Document) copyNoise(s sink, c *cursor) error {
	for {
		start := c.pos
		c.eatWhitespace()
		if err := s.raw(d.src[start:c.pos]); err != nil {
			return err
		}
		switch {
		case c.peekEquals("<!--"):
			start = c.pos
			c.eatLiteral("<!--")
			end := bytes.Index(d.src[c.pos:], []byte("-->"))
			if end == -1 {
				c.pos = len(d.src)
			} else {
				c.pos += end + 3
			}
			if err := s.raw(d.src[start:c.pos]); err != nil {
				return err
			}
		case c.peekEquals("<?"):
			start = c.pos
			c.eatLiteral("<?")
			end := bytes.Index(d.src[c.pos:], []byte("?>"))
			if end == -1 {
				c.pos = len(d.src)
			} else {
				c.pos += end + 2
			}
			if err := s.raw(d.src[start:c.pos]); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// flattenElement emits one element (cursor positioned at its opening '<')
// and everything nested inside it, consulting the journal for deletions,
// value replacement and appended tail children.
func (d *Document) flattenElement(s sink, c *cursor, parentKey string) error {
	tagStart := c.pos
	c.eatChar('<')
	name, ok := readTagName(c)
	if !ok {
		c.pos = len(d.src)
		return nil
	}
	tagEnd := c.pos
	key := joinKey(parentKey, name)

	rec, ancestorDeleted := d.journal.resolve(key)
	if ancestorDeleted || (rec != nil && rec.op == opDelete) {
		c.skipToClose()
		return nil
	}

	if err := s.element(key); err != nil {
		return err
	}

	if rec != nil && rec.value != nil {
		if err := s.raw(d.src[tagStart:tagEnd]); err != nil {
			return err
		}
		if err := s.raw([]byte(encodeText(*rec.value))); err != nil {
			return err
		}
		closeStart, closeEnd := c.skipToClose()
		return s.raw(d.src[closeStart:closeEnd])
	}

	if err := s.raw(d.src[tagStart:tagEnd]); err != nil {
		return err
	}
	if err := d.flattenContent(s, c, key); err != nil {
		return err
	}
	if err := d.emitAppendedChildren(s, key); err != nil {
		return err
	}
	closeTagStart := c.pos
	c.eatLiteral("</")
	c.skipToChar('>')
	c.eatChar('>')
	return s.raw(d.src[closeTagStart:c.pos])
}

// flattenContent emits the mixed text/child-element content of an
// element, stopping just before its closing tag.
func (d *Document) flattenContent(s sink, c *cursor, parentKey string) error {
	for {
		start := c.pos
		c.skipContent()
		if err := s.raw(d.src[start:c.pos]); err != nil {
			return err
		}
		if c.atEOF() || c.peekEquals("</") {
			return nil
		}
		switch {
		case c.peekEquals("<!--"):
			start = c.pos
			c.eatLiteral("<!--")
			end := bytes.Index(d.src[c.pos:], []byte("-->"))
			if end == -1 {
				c.pos = len(d.src)
			} else {
				c.pos += end + 3
			}
			if err := s.raw(d.src[start:c.pos]); err != nil {
				return err
			}
		case c.peekEquals("<?"):
			start = c.pos
			c.eatLiteral("<?")
			end := bytes.Index(d.src[c.pos:], []byte("?>"))
			if end == -1 {
				c.pos = len(d.src)
			} else {
				c.pos += end + 2
			}
			if err := s.raw(d.src[start:c.pos]); err != nil {
				return err
			}
		default:
			if err := d.flattenElement(s, c, parentKey); err != nil {
				return err
			}
		}
	}
}

type appendedChild struct {
	key   string
	value *string
}

// appendedChildren returns, in first-appearance order, the direct
// children of parentKey that exist only via the journal (were created by
// an Append, and have not since been overridden by a Delete).
func (d *Document) appendedChildren(parentKey string) []appendedChild {
	prefix := parentKey + "."
	var order []string
	seen := map[string]bool{}
	for _, e := range d.journal.entries {
		if e.op != opAppend || !strings.HasPrefix(e.key, prefix) {
			continue
		}
		rest := e.key[len(prefix):]
		if strings.ContainsRune(rest, '.') {
			continue
		}
		if !seen[e.key] {
			seen[e.key] = true
			order = append(order, e.key)
		}
	}

	var result []appendedChild
	for _, key := range order {
		rec, ancestorDeleted := d.journal.resolve(key)
		if ancestorDeleted || rec == nil || rec.op == opDelete {
			continue
		}
		result = append(result, appendedChild{key: key, value: rec.value})
	}
	return result
}

func (d *Document) emitAppendedChildren(s sink, parentKey string) error {
	for _, ch := range d.appendedChildren(parentKey) {
		if err := s.element(ch.key); err != nil {
			return err
		}
		name := lastSegment(ch.key)
		if err := s.raw([]byte("<" + name + ">")); err != nil {
			return err
		}
		if ch.value != nil {
			if err := s.raw([]byte(encodeText(*ch.value))); err != nil {
				return err
			}
		} else if err := d.emitAppendedChildren(s, ch.key); err != nil {
			return err
		}
		if err := s.raw([]byte("</" + name + ">")); err != nil {
			return err
		}
	}
	return nil
}
