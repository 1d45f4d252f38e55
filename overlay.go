package mxml

// readThrough answers a read for a canonical key under the logical view:
// the journal overlaid on the immutable source. It is the single place
// that implements the precedence rule in the overlay resolver design.
func (d *Document) readThrough(key string) (value string, found bool) {
	if rec, ancestorDeleted := d.journal.resolve(key); ancestorDeleted {
		return "", false
	} else if rec != nil {
		switch rec.op {
		case opDelete:
			return "", false
		case opSet, opAppend:
			if rec.value == nil {
				return "", true
			}
			return *rec.value, true
		}
	}
	sp, ok := d.locateSource(key)
	if !ok {
		return "", false
	}
	return decodeContent(d.src[sp.start:sp.end]), true
}

func (d *Document) exists(key string) bool {
	_, found := d.readThrough(key)
	return found
}
