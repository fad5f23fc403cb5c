package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/autovote/internal/browser"
	"github.com/rpggio/autovote/internal/browser/browsertest"
	"github.com/rpggio/autovote/internal/dispatch"
	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/domain/settings"
	"github.com/rpggio/autovote/internal/metrics"
)

type staticSettings struct{ s settings.Settings }

func (s staticSettings) Get(context.Context) (settings.Settings, error) { return s.s, nil }

type recorder struct {
	mu    sync.Mutex
	votes []project.Project
	err   error
}

func (r *recorder) RecordVote(_ context.Context, p project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.votes = append(r.votes, p)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.votes)
}

// fast keeps the generic selectors but shrinks every delay.
func fast(s dispatch.Strategy) dispatch.Strategy {
	s.Timeout = 50 * time.Millisecond
	s.PreDelay = 0
	s.Settle = time.Millisecond
	return s
}

func newDispatcher(rec *recorder, s settings.Settings, opts ...dispatch.Option) *dispatch.Dispatcher {
	registry := dispatch.NewRegistry(fast(dispatch.Generic), fast(dispatch.Sites[0]))
	opts = append([]dispatch.Option{dispatch.WithPollInterval(5 * time.Millisecond)}, opts...)
	return dispatch.New(registry, staticSettings{s}, rec, clockwork.NewRealClock(), nil, opts...)
}

var proj = project.Project{ID: "1", Name: "Skyblock", URL: "https://minecraft-mp.com/server/332/vote/", Enabled: true}

func TestDispatch_CaptchaBlocksWithoutClicking(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	page.Add(`iframe[src*="recaptcha"]`, "recaptcha", true)
	rec := &recorder{}

	outcome, err := newDispatcher(rec, settings.Default()).Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.CaptchaBlocked, outcome)
	require.Empty(t, page.Clicks())
	require.Zero(t, rec.count())
	require.Equal(t, []browsertest.Toast{{Message: "⚠️ Captcha detected! Please solve it manually.", Level: browser.LevelWarning}}, page.Toasts())
}

func TestDispatch_CaptchaBlocksEvenWithButton(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	page.Add(`[class*="captcha"]`, "h-captcha box", true)
	button := page.Add(`button[type="submit"]`, "vote", true)

	outcome, err := newDispatcher(&recorder{}, settings.Default()).Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.CaptchaBlocked, outcome)
	require.Zero(t, button.Clicks())
}

func TestDispatch_CaptchaWarningsOff(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	page.Add(`#captcha`, "captcha", true)
	s := settings.Default()
	s.CaptchaWarnings = false

	outcome, err := newDispatcher(&recorder{}, s).Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.CaptchaBlocked, outcome)
	require.Empty(t, page.Toasts())
}

func TestDispatch_ClicksVisibleElement(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	hidden := page.Add(`button[type="submit"]`, "hidden", false)
	visible := page.Add(`button[type="submit"]`, "visible", true)
	rec := &recorder{}

	outcome, err := newDispatcher(rec, settings.Default()).Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.Voted, outcome)
	require.Zero(t, hidden.Clicks())
	require.Equal(t, 1, visible.Clicks())
	require.Equal(t, 1, visible.Scrolls())
	require.Len(t, page.Clicks(), 1)
	require.Equal(t, 1, rec.count())
	require.Equal(t, browser.LevelSuccess, page.Toasts()[0].Level)
}

func TestDispatch_SelectorPriority(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	link := page.Add(`a[href*="vote"]`, "link", true)
	submit := page.Add(`input[type="submit"]`, "submit", true)

	outcome, err := newDispatcher(&recorder{}, settings.Default()).Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.Voted, outcome)
	require.Equal(t, 1, submit.Clicks())
	require.Zero(t, link.Clicks())
}

func TestDispatch_NoButtonFound(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	page.Add(`button[type="submit"]`, "hidden", false)
	rec := &recorder{}

	outcome, err := newDispatcher(rec, settings.Default()).Dispatch(context.Background(), "example.org", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.NoButtonFound, outcome)
	require.Empty(t, page.Clicks())
	require.Zero(t, rec.count())
	require.Equal(t, []browsertest.Toast{{Message: "⚠️ Could not find vote button", Level: browser.LevelWarning}}, page.Toasts())
}

func TestDispatch_ButtonBecomesVisible(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	button := page.Add(`.vote-button`, "late", false)
	registry := dispatch.NewRegistry(dispatch.Generic, dispatch.Strategy{
		Name:      "minecraft-mp.com",
		Selectors: []string{`.vote-button`},
		Timeout:   2 * time.Second,
	})
	d := dispatch.New(registry, staticSettings{settings.Default()}, &recorder{}, nil, nil, dispatch.WithPollInterval(5*time.Millisecond))

	go func() {
		time.Sleep(30 * time.Millisecond)
		button.SetVisible(true)
	}()

	outcome, err := d.Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.NoError(t, err)
	require.Equal(t, dispatch.Voted, outcome)
	require.Equal(t, 1, button.Clicks())
}

func TestDispatch_RecordFailure(t *testing.T) {
	page := browsertest.NewPage(proj.URL)
	page.Add(`button[type="submit"]`, "vote", true)
	boom := errors.New("db locked")

	outcome, err := newDispatcher(&recorder{err: boom}, settings.Default()).Dispatch(context.Background(), "minecraft-mp.com", page, proj)
	require.ErrorIs(t, err, boom)
	require.Equal(t, dispatch.Voted, outcome)
	require.Empty(t, page.Toasts())
}

func TestDispatch_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d := newDispatcher(&recorder{}, settings.Default(), dispatch.WithMetrics(m))

	voting := browsertest.NewPage(proj.URL)
	voting.Add(`button[type="submit"]`, "vote", true)
	_, err := d.Dispatch(context.Background(), "www.minecraft-mp.com", voting, proj)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), "example.org", browsertest.NewPage("https://example.org"), proj)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues("minecraft-mp.com", "voted")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues("generic", "no_button")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.VotesRecorded))
}

func TestDispatch_UsesPreDelayAndSettle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	page := browsertest.NewPage(proj.URL)
	button := page.Add(`button[type="submit"]`, "vote", true)
	d := dispatch.New(nil, staticSettings{settings.Default()}, &recorder{}, clock, nil)

	done := make(chan dispatch.Outcome, 1)
	go func() {
		outcome, _ := d.Dispatch(context.Background(), "minecraft-mp.com", page, proj)
		done <- outcome
	}()

	ctx := context.Background()
	// Pre-delay timer.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	require.Zero(t, button.Scrolls())
	clock.Advance(time.Second)

	// Settle timer.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	require.Equal(t, 1, button.Scrolls())
	require.Zero(t, button.Clicks())
	clock.Advance(500 * time.Millisecond)

	require.Equal(t, dispatch.Voted, <-done)
	require.Equal(t, 1, button.Clicks())
}
