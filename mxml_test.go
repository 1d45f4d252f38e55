package mxml

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGetBasic(t *testing.T) {
	doc := New([]byte("<a>b</a>"))

	v, err := doc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = doc.Get("aa")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, doc.Append("a.x", strPtr("foo")))

	v, err = doc.Get("a.x")
	require.NoError(t, err)
	assert.Equal(t, "foo", v)

	v, err = doc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	err = doc.Append("a", strPtr("z"))
	assert.True(t, errors.Is(err, ErrExists))
}

func TestEntityDecode(t *testing.T) {
	src := "<config><version>1</version><system><motd>Ben&amp;Jerry's &lt; Oak &gt;</motd></system></config>"
	doc := New([]byte(src))

	v, err := doc.Get("config.system.motd")
	require.NoError(t, err)
	assert.Equal(t, "Ben&Jerry's < Oak >", v)
}

const dogsSrc = `<top><dogs><dog1><name>Fido</name></dog1><dog2><name>Spot</name></dog2><total>2</total></dogs></top>`

func TestListAddressing(t *testing.T) {
	doc := New([]byte(dogsSrc))

	v, err := doc.Get("top.dog[1].name")
	require.NoError(t, err)
	assert.Equal(t, "Fido", v)

	v, err = doc.Get("top.dog[#]")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	v, err = doc.Get("top.dog[$].name")
	require.NoError(t, err)
	assert.Equal(t, "Spot", v)

	_, err = doc.Get("top.dog[0].name")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = doc.Get("top.dog[3].name")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = doc.Update("top.dog[#]", "9")
	assert.True(t, errors.Is(err, ErrForbidden))

	require.NoError(t, doc.Delete("top.dog[$]"))
	v, err = doc.Get("top.dog[#]")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestHashOnMissingList(t *testing.T) {
	doc := New([]byte("<top></top>"))
	v, err := doc.Get("top.dog[#]")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestRoundTripUnchanged(t *testing.T) {
	src := "<?xml?>\n<top>\n  <foo>123</foo>\n</top>\n"
	doc := New([]byte(src))

	var buf bytes.Buffer
	n, err := doc.Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)
	assert.Equal(t, src, buf.String())
}

func TestMutationSequenceBuildsCatList(t *testing.T) {
	src := "<top><foo>123</foo></top>"
	doc := New([]byte(src))

	require.NoError(t, doc.Append("top.bar", strPtr("BAR")))
	require.NoError(t, doc.Append("top.cat[+].name", strPtr("Meow")))
	require.NoError(t, doc.Append("top.cat[$].colour", strPtr("white")))
	require.NoError(t, doc.Append("top.cat[+].name", strPtr("Kitty")))
	require.NoError(t, doc.Append("top.cat[$].colour", strPtr("pink")))
	require.NoError(t, doc.Delete("top.foo"))

	v, err := doc.Get("top.cat[#]")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	var buf bytes.Buffer
	_, err = doc.Write(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "<bar>BAR</bar>")
	assert.Contains(t, out, "<cat1><name>Meow</name><colour>white</colour></cat1>")
	assert.Contains(t, out, "<cat2><name>Kitty</name><colour>pink</colour></cat2>")
	assert.Contains(t, out, "<total>2</total>")
	assert.NotContains(t, out, "<foo>")
}

func TestKeysOrderMatchesFirstAppearance(t *testing.T) {
	src := "<top></top>"
	doc := New([]byte(src))

	require.NoError(t, doc.Append("top.cat[+].name", strPtr("Meow")))
	require.NoError(t, doc.Append("top.cat[$].colour", strPtr("white")))
	require.NoError(t, doc.Append("top.cat[+].name", strPtr("Kitty")))
	require.NoError(t, doc.Append("top.cat[$].colour", strPtr("pink")))

	keys, err := doc.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"top",
		"top.cats",
		"top.cats.cat1",
		"top.cats.cat1.name",
		"top.cats.cat1.colour",
		"top.cats.total",
		"top.cats.cat2",
		"top.cats.cat2.name",
		"top.cats.cat2.colour",
	}, keys)
}

func TestCDATAPreservation(t *testing.T) {
	src := "<top><cats><cat1><tag><![CDATA[ <foo> ]]></tag></cat1></cats></top>"
	doc := New([]byte(src))

	v, err := doc.Get("top.cat[1].tag")
	require.NoError(t, err)
	assert.Equal(t, " <foo> ", v)

	var buf bytes.Buffer
	_, err = doc.Write(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<![CDATA[ <foo> ]]>")
}

func TestSetDispatch(t *testing.T) {
	doc := New([]byte("<top><name>old</name></top>"))

	require.NoError(t, doc.Set("top.name", strPtr("new")))
	v, err := doc.Get("top.name")
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	require.NoError(t, doc.Set("top.extra", strPtr("created")))
	v, err = doc.Get("top.extra")
	require.NoError(t, err)
	assert.Equal(t, "created", v)

	require.NoError(t, doc.Set("top.name", nil))
	assert.False(t, doc.Exists("top.name"))
}

func TestExpandKeyReturnsCanonicalForm(t *testing.T) {
	doc := New([]byte(dogsSrc))

	ck, err := doc.ExpandKey("top.dog[$].name")
	require.NoError(t, err)
	assert.Equal(t, "top.dogs.dog2.name", ck)

	ck, err = doc.ExpandKey("top.dog[1].name")
	require.NoError(t, err)
	assert.Equal(t, "top.dogs.dog1.name", ck)
}

func TestDeleteIdempotent(t *testing.T) {
	doc := New([]byte("<top><x>1</x></top>"))
	require.NoError(t, doc.Delete("top.x"))
	assert.False(t, doc.Exists("top.x"))
	require.NoError(t, doc.Delete("top.x"))
}

func TestAppendRootCollision(t *testing.T) {
	doc := New([]byte("<a>1</a>"))
	err := doc.Append("a", strPtr("2"))
	assert.True(t, errors.Is(err, ErrExists))
}

func TestDeleteStar(t *testing.T) {
	doc := New([]byte(dogsSrc))
	require.NoError(t, doc.Delete("top.dog[*]"))
	assert.False(t, doc.Exists("top.dog[1].name"))
	assert.False(t, doc.Exists("top.dog[2].name"))
}

func TestWithoutCacheMatchesDefault(t *testing.T) {
	withCache := New([]byte(dogsSrc))
	withoutCache := New([]byte(dogsSrc), WithoutCache())

	for _, key := range []string{"top.dog[1].name", "top.dog[$].name", "top.dog[#]"} {
		v1, err1 := withCache.Get(key)
		v2, err2 := withoutCache.Get(key)
		assert.Equal(t, err1, err2)
		assert.Equal(t, v1, v2)
	}
}
