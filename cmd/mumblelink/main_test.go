package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/mumblelink/internal/config"
	"github.com/srediag/mumblelink/internal/logging"
	"github.com/srediag/mumblelink/internal/sampler"
	"github.com/srediag/mumblelink/pkg/mumble"
)

func testSnapshot() *mumble.Snapshot {
	snap := &mumble.Snapshot{UIVersion: 2, UITick: 5}
	copy(snap.Name[:], utf16.Encode([]rune("Guild Wars 2")))
	snap.Context.MapID = 15
	return snap
}

func newTestSampler(t *testing.T, events *sampler.EventQueue) (*sampler.Sampler, *prometheus.Registry) {
	return newSnapshotSampler(t, testSnapshot(), events)
}

func newSnapshotSampler(t *testing.T, snap *mumble.Snapshot, events *sampler.EventQueue) (*sampler.Sampler, *prometheus.Registry) {
	image, err := snap.MarshalBinary()
	require.NoError(t, err)
	link, err := mumble.NewLink(image)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := sampler.NewMetrics(reg)
	require.NoError(t, err)
	s, err := sampler.New(map[string]sampler.Source{"MumbleLink": link}, sampler.Options{
		Metrics: metrics,
		Events:  events,
		Logger:  logging.New("test", io.Discard),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.SampleOnce(context.Background()))
	return s, reg
}

func TestMux(t *testing.T) {
	s, reg := newTestSampler(t, nil)
	cfg := config.DefaultConfig()
	mux := newMux(cfg, reg, s)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mumblelink_ui_tick{link="MumbleLink"} 5`)

	assert.Equal(t, http.StatusOK, get("/live").Code)
	// The image carries no writer pid.
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)

	rec = get("/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []sampler.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Guild Wars 2", views[0].Name)
	assert.Equal(t, uint32(15), views[0].MapID)

	rec = get("/snapshot?link=MumbleLink")
	require.Equal(t, http.StatusOK, rec.Code)
	var view sampler.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, uint32(5), view.UITick)

	assert.Equal(t, http.StatusNotFound, get("/snapshot?link=other").Code)
}

func TestPrintEvents(t *testing.T) {
	events := sampler.NewEventQueue(0)
	newTestSampler(t, events)

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(events, &out)
	}()
	require.Eventually(t, func() bool { return events.Len() == 0 }, time.Second, 5*time.Millisecond)
	events.Close()
	<-done
	assert.True(t, strings.Contains(out.String(), "MumbleLink tick:0->5 map:15"), out.String())
}

func TestRunAllDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Names = []string{mumble.DisabledName}
	assert.NoError(t, run(context.Background(), cfg, io.Discard))
}

func TestSnapshotNonFiniteWriterValues(t *testing.T) {
	snap := testSnapshot()
	snap.Avatar.Position[0] = float32(math.NaN())
	snap.Context.MapScale = float32(math.Inf(1))
	s, reg := newSnapshotSampler(t, snap, nil)
	mux := newMux(config.DefaultConfig(), reg, s)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?link=MumbleLink", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view sampler.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, math.IsNaN(float64(view.Avatar.Position[0])))
	assert.True(t, math.IsInf(float64(view.MapScale), 1))
	assert.Equal(t, "Guild Wars 2", view.Name)
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, map[string]interface{}{"bad": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "encode snapshot")
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
}
