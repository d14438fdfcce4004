package booster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-boost/dom"
	"github.com/cwbudde/algo-boost/internal/testutil"
	"github.com/cwbudde/algo-boost/store"
)

type engineFixture struct {
	engine  *Engine
	graph   *recGraph
	doc     *testutil.Document
	backend *store.Memory
	notices *recNotifier
	panel   *recPanel
	logHook *logtest.Hook
}

func newEngineFixture(t *testing.T, doc *testutil.Document, opts ...Option) *engineFixture {
	t.Helper()

	f := &engineFixture{
		graph:   newRecGraph(),
		doc:     doc,
		backend: store.NewMemory(),
		notices: &recNotifier{},
		panel:   &recPanel{},
	}

	f.start(t, opts...)

	return f
}

func (f *engineFixture) start(t *testing.T, opts ...Option) {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f.logHook = hook

	base := []Option{
		WithLogger(logger),
		WithNotifier(f.notices),
		WithPanel(f.panel),
		WithInlineEvents(),
	}

	e, err := New(context.Background(), f.doc, f.graph, f.backend, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	f.engine = e
}

func (f *engineFixture) send(t *testing.T, cmd Command) Response {
	t.Helper()

	return f.engine.Update(context.Background(), CommandEvent(cmd))
}

func TestEngineStartsWithDefaults(t *testing.T) {
	a, v := testutil.Media("audio", nil), testutil.Media("video", nil)
	f := newEngineFixture(t, testutil.NewDocument(a, testutil.El("div", v)))

	assert.Equal(t, DefaultState(), f.engine.State())
	assert.Equal(t, 2, f.engine.Attached())
	assert.True(t, f.engine.Watching())
	assert.Equal(t, RouteBypass, f.engine.Chain().Route())
	assert.Equal(t, 1.0, f.engine.Chain().Gain())
	assert.False(t, f.panel.shown)
	assert.Empty(t, f.notices.all())
}

func TestEngineRestoresPersistedState(t *testing.T) {
	f := &engineFixture{
		graph:   newRecGraph(),
		doc:     testutil.NewDocument(),
		backend: store.NewMemory(),
		notices: &recNotifier{},
		panel:   &recPanel{},
	}

	want := DefaultState()
	want.Enabled = true
	want.FloatingUIVisible = true
	want.Gain = 6
	want.Limiter.Threshold = -1
	require.NoError(t, SaveState(context.Background(), f.backend, want))

	f.start(t)

	assert.Equal(t, want, f.engine.State())
	assert.True(t, f.panel.shown)
	assert.Equal(t, RouteProtected, f.engine.Chain().Route())
	assert.Equal(t, 6.0, f.engine.Chain().Gain())
	assert.Equal(t, -2.0, f.engine.Chain().LimiterParams().Threshold)
}

func TestEngineScenarios(t *testing.T) {
	tests := []struct {
		name      string
		enabled   bool
		gain      float64
		wantGain  float64
		wantRoute Route
		wantThr   float64
		wantRatio float64
	}{
		{name: "moderate gain", enabled: true, gain: 3, wantGain: 3, wantRoute: RouteProtected, wantThr: -0.5, wantRatio: 25},
		{name: "high gain", enabled: true, gain: 6, wantGain: 6, wantRoute: RouteProtected, wantThr: -2, wantRatio: 30},
		{name: "disabled", enabled: false, gain: 6, wantGain: 1, wantRoute: RouteBypass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, testutil.NewDocument(testutil.Media("audio", nil)))

			require.True(t, f.send(t, UpdateGain(tt.gain)).Success)
			require.True(t, f.send(t, ToggleBooster(tt.enabled)).Success)

			c := f.engine.Chain()
			assert.Equal(t, tt.wantRoute, c.Route())
			assert.Equal(t, tt.wantGain, c.Gain())

			if tt.wantRoute == RouteProtected {
				assert.Equal(t, []string{"compressor"}, f.graph.outputs("gain"))
				assert.Equal(t, []string{"limiter"}, f.graph.outputs("compressor"))
				assert.Equal(t, []string{"destination"}, f.graph.outputs("limiter"))
				assert.Equal(t, CompressorParams(DefaultCompressorSettings()), c.CompressorParams())
				assert.Equal(t, tt.wantThr, c.LimiterParams().Threshold)
				assert.Equal(t, tt.wantRatio, c.LimiterParams().Ratio)
			} else {
				assert.Equal(t, []string{"destination"}, f.graph.outputs("gain"))
				assert.Empty(t, f.graph.outputs("compressor"))
				assert.Empty(t, f.graph.outputs("limiter"))
			}
		})
	}
}

func TestEngineToggleRoundTripEndsAtUnity(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())

	require.True(t, f.send(t, UpdateGain(4)).Success)
	require.True(t, f.send(t, ToggleBooster(true)).Success)
	assert.Equal(t, 4.0, f.engine.Chain().Gain())
	require.True(t, f.send(t, ToggleBooster(false)).Success)

	assert.Equal(t, 1.0, f.engine.Chain().Gain())
	assert.Equal(t, 4.0, f.engine.State().Gain)
}

func TestEngineGainWhileDisabledIsDeferred(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())

	require.True(t, f.send(t, UpdateGain(6)).Success)
	assert.Equal(t, 1.0, f.engine.Chain().Gain())

	require.True(t, f.send(t, ToggleBooster(true)).Success)
	assert.Equal(t, 6.0, f.engine.Chain().Gain())
	assert.Equal(t, 30.0, f.engine.Chain().LimiterParams().Ratio)
}

func TestEngineSettingsWhileDisabledApplyOnEnable(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())

	require.True(t, f.send(t, UpdateCompressor(CompressorPatch{Threshold: Float(-30)})).Success)
	assert.Equal(t, -24.0, f.engine.Chain().CompressorParams().Threshold)

	require.True(t, f.send(t, ToggleBooster(true)).Success)
	assert.Equal(t, -30.0, f.engine.Chain().CompressorParams().Threshold)
}

func TestEngineUpdateCompressorMerges(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())
	require.True(t, f.send(t, ToggleBooster(true)).Success)

	resp := f.send(t, UpdateCompressor(CompressorPatch{Ratio: Float(8), Knee: Float(10)}))
	require.True(t, resp.Success)

	want := DefaultCompressorSettings()
	want.Ratio = 8
	want.Knee = 10

	assert.Equal(t, want, f.engine.State().Compressor)
	assert.Equal(t, CompressorParams(want), f.engine.Chain().CompressorParams())
}

func TestEngineUpdateLimiterIsGainAware(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())
	require.True(t, f.send(t, UpdateGain(6.5)).Success)
	require.True(t, f.send(t, ToggleBooster(true)).Success)

	require.True(t, f.send(t, UpdateLimiter(LimiterPatch{Threshold: Float(-1)})).Success)

	lp := f.engine.Chain().LimiterParams()
	assert.Equal(t, -2.0, lp.Threshold)
	assert.Equal(t, 30.0, lp.Ratio)
	assert.Equal(t, -1.0, f.engine.State().Limiter.Threshold)

	require.True(t, f.send(t, UpdateGain(3)).Success)

	lp = f.engine.Chain().LimiterParams()
	assert.Equal(t, -1.0, lp.Threshold)
	assert.Equal(t, 25.0, lp.Ratio)
}

func TestEngineApplyPreset(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())
	require.True(t, f.send(t, ToggleBooster(true)).Success)

	require.True(t, f.send(t, ApplyPreset("voice")).Success)

	s := f.engine.State()
	assert.Equal(t, -32.0, s.Compressor.Threshold)
	assert.Equal(t, 6.0, s.Compressor.Ratio)
	assert.Equal(t, -2.0, s.Limiter.Threshold)
	assert.Equal(t, -32.0, f.engine.Chain().CompressorParams().Threshold)
	assert.Equal(t, -2.0, f.engine.Chain().LimiterParams().Threshold)
}

func TestEnginePersistenceRoundTrip(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())

	for _, cmd := range []Command{
		ToggleBooster(true),
		UpdateGain(5.5),
		UpdateCompressor(CompressorPatch{Threshold: Float(-28), Attack: Float(0.01)}),
		UpdateLimiter(LimiterPatch{Release: Float(0.1)}),
		ToggleFloatingUI(),
	} {
		require.True(t, f.send(t, cmd).Success, cmd.Action)
	}

	loaded, err := LoadState(context.Background(), f.backend)
	require.NoError(t, err)
	assert.Equal(t, f.engine.State(), loaded)
}

func TestEngineToggleFloatingUI(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())

	require.True(t, f.send(t, ToggleFloatingUI()).Success)
	assert.True(t, f.panel.shown)
	assert.True(t, f.panel.last.FloatingUIVisible)

	require.True(t, f.send(t, UpdateGain(3)).Success)
	assert.Equal(t, 3.0, f.panel.last.Gain)

	require.True(t, f.send(t, ToggleFloatingUI()).Success)
	assert.False(t, f.panel.shown)
	assert.False(t, f.engine.State().FloatingUIVisible)
}

func TestEngineRejectsInvalidCommands(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())

	for _, cmd := range []Command{
		{Action: "explode"},
		{Action: ActionToggleBooster},
		{Action: ActionUpdateGain},
		{Action: ActionUpdateCompressor, Settings: []byte(`[1,2]`)},
		ApplyPreset("podcast"),
	} {
		resp := f.send(t, cmd)
		assert.False(t, resp.Success, cmd.Action)
		assert.NotEmpty(t, resp.Error)
	}

	assert.Equal(t, DefaultState(), f.engine.State())
}

func TestEngineAttachesInsertedElements(t *testing.T) {
	doc := testutil.NewDocument(testutil.Media("audio", nil))
	f := newEngineFixture(t, doc)
	require.Equal(t, 1, f.engine.Attached())

	shell := testutil.Host("x-player", testutil.ShadowRootOf(testutil.Media("video", nil)))
	doc.Insert(doc.Element, shell)

	assert.Equal(t, 2, f.engine.Attached())
}

func TestEnginePeriodicRescanCatchesUnobserved(t *testing.T) {
	doc := testutil.NewDocument()
	f := newEngineFixture(t, doc)

	doc.InsertUnobserved(doc.Element, testutil.Media("audio", nil))
	assert.Equal(t, 0, f.engine.Attached())

	require.True(t, f.engine.Update(context.Background(), Event{Kind: EventRescan}).Success)
	assert.Equal(t, 1, f.engine.Attached())
}

func TestEngineRebindsOnSourceChange(t *testing.T) {
	el := testutil.Media("audio", testutil.DC(0.1, 8))
	f := newEngineFixture(t, testutil.NewDocument(el))

	before := f.graph.connects
	el.SwapSource(testutil.DC(0.3, 8))

	assert.Equal(t, before+1, f.graph.connects)
	assert.Equal(t, 1, f.graph.sourceCount())
	assert.Equal(t, 1, f.engine.Attached())
}

func TestEngineSuppressesAlreadyConnected(t *testing.T) {
	el := testutil.Media("audio", nil)
	g := newRecGraph()

	_, err := g.CreateMediaElementSource(el)
	require.NoError(t, err)

	f := &engineFixture{
		graph:   g,
		doc:     testutil.NewDocument(el, testutil.Media("video", nil)),
		backend: store.NewMemory(),
		notices: &recNotifier{},
		panel:   &recPanel{},
	}
	f.start(t)

	assert.Empty(t, f.notices.all())
	assert.Equal(t, 1, f.engine.Attached())

	for _, entry := range f.logHook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, entry.Message)
	}
}

func TestEngineReportsAttachmentFailure(t *testing.T) {
	g := newRecGraph()
	g.sourceErr = func(dom.MediaElement) error { return errors.New("cross-origin media") }

	f := &engineFixture{
		graph:   g,
		doc:     testutil.NewDocument(testutil.Media("video", nil)),
		backend: store.NewMemory(),
		notices: &recNotifier{},
		panel:   &recPanel{},
	}
	f.start(t)

	notices := f.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, AttachmentFailure, notices[0].Kind)
	assert.Equal(t, "Volume Booster: Failed to boost audio: create source for <video>: cross-origin media", notices[0].Text())
	assert.Equal(t, DefaultNoticeTTL, notices[0].TTL)
}

func TestEngineRescanRetriesFailedConnect(t *testing.T) {
	doc := testutil.NewDocument()
	f := newEngineFixture(t, doc)

	f.graph.failConnects(errors.New("node is disposed"))
	doc.Insert(doc.Element, testutil.Media("audio", nil))

	require.Len(t, f.notices.all(), 1)
	assert.Equal(t, 0, f.engine.Attached())

	f.graph.failConnects(nil)
	require.True(t, f.engine.Update(context.Background(), Event{Kind: EventRescan}).Success)

	assert.Equal(t, 1, f.engine.Attached())
	assert.Equal(t, 1, f.graph.sourceCount())
	assert.Equal(t, []string{"gain"}, f.graph.outputs("source"))
	assert.Len(t, f.notices.all(), 1)
}

func TestEngineReportsToggleFailure(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument(), WithNoticeTTL(time.Second))
	f.graph.failConnects(errors.New("context closed"))

	resp := f.send(t, ToggleBooster(true))
	assert.False(t, resp.Success)

	notices := f.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, ToggleFailure, notices[0].Kind)
	assert.Equal(t, time.Second, notices[0].TTL)
	assert.Contains(t, notices[0].Message, "Failed to enable audio booster: ")
	assert.Contains(t, notices[0].Message, "context closed")

	// The state change itself is kept.
	assert.True(t, f.engine.State().Enabled)
}

func TestEngineReportsChainUpdateFailureInPanel(t *testing.T) {
	f := newEngineFixture(t, testutil.NewDocument())
	require.True(t, f.send(t, ToggleFloatingUI()).Success)
	require.True(t, f.send(t, ToggleBooster(true)).Success)

	f.graph.failConnects(errors.New("node is disposed"))
	require.False(t, f.send(t, UpdateGain(3)).Success)

	notices := f.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, ChainUpdateFailure, notices[0].Kind)
	assert.True(t, notices[0].InPanel)
	assert.Contains(t, notices[0].Text(), "Failed to update audio processing: ")
	assert.NotContains(t, notices[0].Text(), StandalonePrefix)
}

func TestEngineObserverFailureIsNotFatal(t *testing.T) {
	doc := testutil.NewDocument(testutil.Media("audio", nil))
	doc.ObserveErr = errors.New("observer unavailable")

	f := newEngineFixture(t, doc)

	assert.False(t, f.engine.Watching())
	assert.Equal(t, 1, f.engine.Attached())

	notices := f.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, ObserverSetupFailure, notices[0].Kind)
	assert.Equal(t, "Failed to monitor for new audio: observer unavailable", notices[0].Message)

	// Toggling retries the watch.
	doc.ObserveErr = nil
	require.True(t, f.send(t, ToggleBooster(true)).Success)
	assert.True(t, f.engine.Watching())
}

func TestEngineDiscoveryFailureAnnouncedOnce(t *testing.T) {
	locked := testutil.Host("closed-widget", nil)
	locked.ShadowErr = errors.New("access denied")

	f := newEngineFixture(t, testutil.NewDocument(locked))

	for range 3 {
		f.engine.Update(context.Background(), Event{Kind: EventRescan})
	}

	notices := f.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, DiscoveryFailure, notices[0].Kind)
	assert.Equal(t, "Error finding audio elements: open shadow tree of <closed-widget>: access denied", notices[0].Message)
}

func TestEngineInitializationFailure(t *testing.T) {
	g := newRecGraph()
	g.createErr = errors.New("audio context limit reached")
	notices := &recNotifier{}

	_, err := New(context.Background(), testutil.NewDocument(), g, store.NewMemory(),
		WithNotifier(notices), WithLogger(logrus.New()))
	require.Error(t, err)
	assert.Equal(t, InitializationFailure, KindOf(err))

	got := notices.all()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Failed to initialize audio booster: ")
}

func TestEngineRunProcessesQueuedEvents(t *testing.T) {
	doc := testutil.NewDocument()
	f := &engineFixture{
		graph:   newRecGraph(),
		doc:     doc,
		backend: store.NewMemory(),
		notices: &recNotifier{},
		panel:   &recPanel{},
	}

	logger, _ := logtest.NewNullLogger()

	e, err := New(context.Background(), doc, f.graph, f.backend,
		WithLogger(logger), WithRescanInterval(time.Hour), WithQueueSize(4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- e.Run(ctx) }()

	require.True(t, e.Submit(CommandEvent(UpdateGain(4))))
	require.True(t, e.Submit(CommandEvent(ToggleBooster(true))))

	require.Eventually(t, func() bool {
		s := e.State()
		return s.Enabled && s.Gain == 4
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	e.Close()
	assert.False(t, e.Submit(Event{Kind: EventRescan}))
	assert.False(t, e.Update(context.Background(), Event{Kind: EventRescan}).Success)
}

func TestEngineRunPeriodicRescan(t *testing.T) {
	doc := testutil.NewDocument()
	logger, _ := logtest.NewNullLogger()

	e, err := New(context.Background(), doc, newRecGraph(), store.NewMemory(),
		WithLogger(logger), WithRescanInterval(5*time.Millisecond))
	require.NoError(t, err)

	doc.InsertUnobserved(doc.Element, testutil.Media("audio", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = e.Run(ctx) }()

	require.Eventually(t, func() bool { return e.Attached() == 1 }, time.Second, 5*time.Millisecond)

	e.Close()
	assert.Equal(t, 0, doc.Observers())
}

func TestEngineSubmitDropsWhenFull(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	e, err := New(context.Background(), testutil.NewDocument(), newRecGraph(), store.NewMemory(),
		WithLogger(logger), WithQueueSize(1))
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.Submit(Event{Kind: EventRescan}))
	assert.False(t, e.Submit(Event{Kind: EventRescan}))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
