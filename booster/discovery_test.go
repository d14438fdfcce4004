package booster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-boost/dom"
	"github.com/cwbudde/algo-boost/internal/testutil"
)

func elems(els ...*testutil.Element) []dom.Element {
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = el
	}

	return out
}

func TestDiscoverWalksLightAndShadowTrees(t *testing.T) {
	a1 := testutil.Media("audio", nil)
	v1 := testutil.Media("video", nil)
	deep := testutil.Media("audio", nil)
	nested := testutil.Media("video", nil)

	doc := testutil.NewDocument(
		testutil.El("div", a1, testutil.El("p")),
		testutil.El("section", testutil.El("article", v1)),
		testutil.Host("player-shell",
			testutil.ShadowRootOf(
				testutil.El("div", deep),
				testutil.Host("inner-shell", testutil.ShadowRootOf(nested)),
			)),
	)

	found, err := Discover(doc)
	require.NoError(t, err)
	assert.Equal(t, elems(a1, v1, deep, nested), found)
}

func TestDiscoverIgnoresOtherTags(t *testing.T) {
	found, err := Discover(testutil.NewDocument(testutil.El("div", testutil.El("img"), testutil.El("canvas"), testutil.El("source"))))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDiscoverIncludesMediaRoot(t *testing.T) {
	v := testutil.Media("video", nil)

	found, err := Discover(v)
	require.NoError(t, err)
	assert.Equal(t, elems(v), found)
}

func TestDiscoverDeduplicatesAcrossPaths(t *testing.T) {
	shared := testutil.Media("audio", nil)

	// The same element is reachable both directly and through a shadow root.
	doc := testutil.NewDocument(shared, testutil.Host("x-player", testutil.ShadowRootOf(shared)))

	found, err := Discover(doc)
	require.NoError(t, err)
	assert.Equal(t, elems(shared), found)

	found, err = DiscoverAll([]dom.Node{doc, shared, nil})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDiscoverIsolatesShadowFailures(t *testing.T) {
	denied := errors.New("access denied")

	before := testutil.Media("audio", nil)
	after := testutil.Media("video", nil)
	inside := testutil.Media("audio", nil)

	locked := testutil.Host("closed-widget", testutil.ShadowRootOf(testutil.Media("audio", nil)))
	locked.ShadowErr = denied
	locked.Kids = []*testutil.Element{inside}

	doc := testutil.NewDocument(before, locked, after)

	found, err := Discover(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, DiscoveryFailure, KindOf(err))
	assert.Contains(t, err.Error(), "<closed-widget>")

	// Light children of the failing host and its siblings are still found.
	assert.Equal(t, elems(before, inside, after), found)
}

func TestWatchReportsInsertions(t *testing.T) {
	doc := testutil.NewDocument()

	var got []dom.Node

	stop, err := Watch(doc, func(added []dom.Node) { got = append(got, added...) })
	require.NoError(t, err)

	v := testutil.Media("video", nil)
	doc.Insert(doc.Element, v)
	require.Len(t, got, 1)
	assert.Equal(t, dom.Node(v), got[0])

	stop()
	assert.Equal(t, 0, doc.Observers())
}

func TestWatchFailures(t *testing.T) {
	_, err := Watch(testutil.El("div"), func([]dom.Node) {})
	require.Error(t, err)
	assert.Equal(t, ObserverSetupFailure, KindOf(err))

	doc := testutil.NewDocument()
	doc.ObserveErr = errors.New("observer quota exceeded")

	_, err = Watch(doc, func([]dom.Node) {})
	require.ErrorIs(t, err, doc.ObserveErr)
	assert.Equal(t, ObserverSetupFailure, KindOf(err))
	assert.Equal(t, "Failed to monitor for new audio: observer quota exceeded", err.(*Error).Message())
}
