// Package mxml is a lightweight, in-memory XML reader and editor addressed
// by dotted path keys.
//
// It assumes the XML source is well-formed and tag-balanced, does not use
// self-closing tags or attributes, is UTF-8 or ASCII, only uses the
// entities &lt; &amp; &gt;, and only has text in leaf elements. Behavior
// on input violating these assumptions is undefined.
//
// Reads and writes never build a DOM: the document handle keeps the
// original byte buffer untouched and layers an edit journal on top of
// it, replaying both during reads and during serialization.
package mxml

import (
	"strconv"
	"strings"
	"syscall"
)

// Error kinds, aliased to the syscall.Errno values the source library
// reports through errno. Callers should compare with errors.Is.
var (
	ErrNotFound   error = syscall.ENOENT
	ErrInvalidKey error = syscall.EINVAL
	ErrKeyTooLong error = syscall.ENOMEM
	ErrExists     error = syscall.EEXIST
	ErrForbidden  error = syscall.EPERM
)

// Document is a handle onto an immutable XML source buffer plus a journal
// of pending edits. It is not safe for concurrent use by multiple
// goroutines without external synchronization.
type Document struct {
	src     []byte
	journal journal
	cache   *prefixCache
}

// Option configures a Document at construction time.
type Option func(*Document)

// WithoutCache disables the prefix cache. Disabling it never changes any
// observable result, only lookup cost.
func WithoutCache() Option {
	return func(d *Document) { d.cache = nil }
}

// New creates a handle over src. src must outlive the Document and must
// not be mutated while the Document is in use.
func New(src []byte, opts ...Option) *Document {
	d := &Document{
		src:   src,
		cache: newPrefixCache(defaultCacheCapacity),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close releases the journal and cache. The Document must not be used
// afterward. Present for lifecycle symmetry with the source library;
// letting a Document fall out of scope is equally safe.
func (d *Document) Close() {
	d.journal.entries = nil
	d.invalidateCache()
}

func (d *Document) invalidateCache() {
	if d.cache != nil {
		d.cache.invalidate()
	}
}

// Get returns the decoded text of the element addressed by userKey,
// honoring prior edits.
func (d *Document) Get(userKey string) (string, error) {
	canonical, flags, err := d.expandKey(userKey)
	if err != nil {
		return "", err
	}
	if flags.hasStar || flags.hasPlus {
		return "", ErrInvalidKey
	}
	val, found := d.readThrough(canonical)
	if flags.hasHash {
		if !found {
			return "0", nil
		}
		return val, nil
	}
	if !found {
		return "", ErrNotFound
	}
	return val, nil
}

// Exists reports whether a read of userKey would succeed. Malformed keys
// return false without signaling an error.
func (d *Document) Exists(userKey string) bool {
	canonical, flags, err := d.expandKey(userKey)
	if err != nil {
		return false
	}
	if flags.hasStar || flags.hasPlus {
		return false
	}
	if flags.hasHash {
		return true
	}
	return d.exists(canonical)
}

// Update replaces the text of an existing element.
func (d *Document) Update(userKey, value string) error {
	canonical, flags, err := d.expandKey(userKey)
	if err != nil {
		return err
	}
	if flags.hasHash {
		return ErrForbidden
	}
	if flags.hasStar || flags.hasPlus {
		return ErrInvalidKey
	}
	if !d.exists(canonical) {
		return ErrNotFound
	}
	v := value
	d.journal.add(editRecord{op: opSet, key: canonical, value: &v})
	d.invalidateCache()
	return nil
}

// Delete removes the element (and its children) addressed by userKey.
// Deleting a key that does not exist succeeds without effect.
func (d *Document) Delete(userKey string) error {
	canonical, flags, err := d.expandKey(userKey)
	if err != nil {
		return err
	}
	if flags.hasHash {
		return ErrForbidden
	}
	if flags.hasPlus {
		return ErrInvalidKey
	}
	if flags.hasStar {
		d.journal.add(editRecord{op: opDelete, key: canonical})
		d.invalidateCache()
		return nil
	}
	if !d.exists(canonical) {
		return nil
	}
	d.journal.add(editRecord{op: opDelete, key: canonical})
	if flags.terminalIsDollar && flags.dollarResolvedN >= 1 {
		v := strconv.Itoa(flags.dollarResolvedN - 1)
		d.journal.add(editRecord{op: opSet, key: flags.dollarTotalKey, value: &v})
	}
	d.invalidateCache()
	return nil
}

// Append creates a new element at userKey, synthesizing any missing
// ancestor containers. value may be nil for a pure-container append.
func (d *Document) Append(userKey string, value *string) error {
	canonical, flags, err := d.expandKey(userKey)
	if err != nil {
		return err
	}
	if flags.hasHash || flags.hasStar {
		return ErrInvalidKey
	}
	if d.exists(canonical) {
		return ErrExists
	}

	segs := strings.Split(canonical, ".")
	for i := 1; i < len(segs); i++ {
		prefix := strings.Join(segs[:i], ".")
		if !d.exists(prefix) {
			d.journal.add(editRecord{op: opAppend, key: prefix})
		}
	}

	if flags.hasPlus {
		v := strconv.Itoa(flags.plusNewTotal)
		op := opSet
		if !flags.plusTotalExisted {
			op = opAppend
		}
		d.journal.add(editRecord{op: op, key: flags.plusTotalKey, value: &v})
	}

	d.journal.add(editRecord{op: opAppend, key: canonical, value: value})
	d.invalidateCache()
	return nil
}

// Set updates, creates or deletes an element depending on value and
// existence: a nil value deletes, an existing key updates, otherwise the
// key is appended.
func (d *Document) Set(userKey string, value *string) error {
	if value == nil {
		return d.Delete(userKey)
	}
	if d.Exists(userKey) {
		return d.Update(userKey, *value)
	}
	return d.Append(userKey, value)
}

// ExpandKey resolves [$] against the current view and returns the
// canonical dotted form of userKey.
func (d *Document) ExpandKey(userKey string) (string, error) {
	canonical, flags, err := d.expandKey(userKey)
	if err != nil {
		return "", err
	}
	if flags.hasStar || flags.hasPlus {
		return "", ErrInvalidKey
	}
	return canonical, nil
}
