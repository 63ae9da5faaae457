package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/visionvoice/go-visionvoice/ani"
	"github.com/visionvoice/go-visionvoice/eventlog"
)

func trackSnapshot(t *testing.T) []*ani.Track {
	t.Helper()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	det, err := ani.NewDetection("person", 0.9,
		ani.NewRect(0.45, 0.4, 0.55, 0.6), ts)
	require.NoError(t, err)

	eng := ani.NewEngine(ani.DefaultConfig())
	return eng.ProcessFrame([]ani.Detection{det.WithBucket(ani.BucketVeryClose)}, ts)
}

func TestListTracks(t *testing.T) {

	s := New(nil)
	s.Publish([]byte("jpeg"), trackSnapshot(t), "Stop. Person ahead.")

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tracks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, "Stop. Person ahead.", gjson.Get(body, "guidance").String())
	assert.Equal(t, int64(1), gjson.Get(body, "tracks.0.id").Int())
	assert.Equal(t, "person", gjson.Get(body, "tracks.0.label").String())
	assert.Equal(t, "very_close", gjson.Get(body, "tracks.0.distance").String())
	assert.Equal(t, "imminent", gjson.Get(body, "tracks.0.risk").String())
}

func TestListTracksEmpty(t *testing.T) {

	s := New(nil)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tracks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "tracks").Exists())
}

func TestListTracksMethodNotAllowed(t *testing.T) {

	s := New(nil)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tracks", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListEvents(t *testing.T) {

	store, err := eventlog.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordTransition(eventlog.Transition{
		TrackID: 3, Label: "car",
		FromRisk: ani.RiskNone, ToRisk: ani.RiskMedium,
		Motion: ani.MotionCrossing, Bucket: ani.BucketModerate,
		Guidance: "Car on your left.",
	}))

	s := New(store)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(3), gjson.Get(body, "0.track_id").Int())
	assert.Equal(t, "none", gjson.Get(body, "0.from_risk").String())
	assert.Equal(t, "medium", gjson.Get(body, "0.to_risk").String())
	assert.Equal(t, "crossing", gjson.Get(body, "0.motion").String())
	assert.Equal(t, "Car on your left.", gjson.Get(body, "0.guidance").String())
}

func TestListEventsNoStore(t *testing.T) {

	s := New(nil)

	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
