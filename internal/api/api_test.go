package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/datastore"
	"github.com/sevnet/sevnet-go/internal/imaging"
)

func TestMain(m *testing.M) {
	// go-cache runs a janitor goroutine for the lifetime of each cache.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

// fakeAdapter returns canned scores for every invocation.
type fakeAdapter struct {
	scores []float32
	calls  atomic.Int32
}

func (f *fakeAdapter) Invoke(_ imaging.Tensor) ([]float32, error) {
	f.calls.Add(1)
	return f.scores, nil
}

func testSettings() *conf.Settings {
	return &conf.Settings{
		Main: conf.MainSettings{Name: "test-node"},
		SevNet: conf.SevNetSettings{
			InputSize: 256,
			CropSize:  224,
			Labels:    []string{"minor", "moderate", "severe"},
		},
		Serve: conf.ServeSettings{Port: "0"},
	}
}

func testJPEG(t *testing.T, shade uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.SetRGBA(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestController(t *testing.T, adapter *fakeAdapter, ds datastore.Interface) *Controller {
	t.Helper()
	return New(testSettings(), adapter, ds, nil, nil)
}

func postImage(c *Controller, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	c := newTestController(t, &fakeAdapter{scores: []float32{1, 0, 0}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestClassifyRawBody(t *testing.T) {
	adapter := &fakeAdapter{scores: []float32{2.0, 1.0, 0.1}}
	c := newTestController(t, adapter, nil)

	rec := postImage(c, testJPEG(t, 128))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "minor", resp.Label)
	assert.False(t, resp.Invalid)
	assert.NotEmpty(t, resp.ID)
	assert.Len(t, resp.Probabilities, 3)
	assert.InDelta(t, 1.0, float64(resp.Probabilities["minor"]+resp.Probabilities["moderate"]+resp.Probabilities["severe"]), 1e-5)
}

func TestClassifyMultipart(t *testing.T) {
	adapter := &fakeAdapter{scores: []float32{0.1, 3.0, 1.0}}
	c := newTestController(t, adapter, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write(testJPEG(t, 90))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp classificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "moderate", resp.Label)
}

func TestClassifyRejectsBadInput(t *testing.T) {
	adapter := &fakeAdapter{scores: []float32{1, 0, 0}}
	c := newTestController(t, adapter, nil)

	rec := postImage(c, []byte("definitely not a jpeg"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, adapter.calls.Load())

	rec = postImage(c, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyInvalidPrediction(t *testing.T) {
	adapter := &fakeAdapter{scores: []float32{float32(math.NaN()), 0.5, 0.5}}
	c := newTestController(t, adapter, nil)

	rec := postImage(c, testJPEG(t, 128))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Invalid)
	assert.Empty(t, resp.Label)
	assert.Empty(t, resp.Probabilities)
}

func TestClassifyCachesIdenticalPayload(t *testing.T) {
	adapter := &fakeAdapter{scores: []float32{2.0, 1.0, 0.1}}
	c := newTestController(t, adapter, nil)

	payload := testJPEG(t, 128)

	rec := postImage(c, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postImage(c, payload)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.EqualValues(t, 1, adapter.calls.Load(), "identical payload should be served from cache")

	// A different image misses the cache.
	rec = postImage(c, testJPEG(t, 40))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, adapter.calls.Load())
}

func TestLatest(t *testing.T) {
	adapter := &fakeAdapter{scores: []float32{0.1, 0.2, 5.0}}
	c := newTestController(t, adapter, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/classifications/latest", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postImage(c, testJPEG(t, 128))

	rec = httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "severe", resp.Label)
}

func TestRecentAndGetWithoutDatabase(t *testing.T) {
	c := newTestController(t, &fakeAdapter{scores: []float32{1, 0, 0}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/classifications/recent", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/classifications/stats", http.NoBody)
	rec = httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/classifications/some-id", http.NoBody)
	rec = httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	settings := testSettings()
	settings.Output.SQLite = conf.SQLiteSettings{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "stats-test.db"),
	}

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { assert.NoError(t, ds.Close()) })

	adapter := &fakeAdapter{scores: []float32{0.1, 1.0, 2.0}}
	c := New(settings, adapter, ds, nil, nil)

	// Distinct shades defeat the digest cache, so both uploads persist.
	require.Equal(t, http.StatusOK, postImage(c, testJPEG(t, 100)).Code)
	require.Equal(t, http.StatusOK, postImage(c, testJPEG(t, 200)).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/classifications/stats", http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var counts map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.EqualValues(t, 2, counts["severe"])
	assert.NotContains(t, counts, "minor")
}

func TestClassifyPersistsAndServesHistory(t *testing.T) {
	settings := testSettings()
	settings.Output.SQLite = conf.SQLiteSettings{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "api-test.db"),
	}

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { assert.NoError(t, ds.Close()) })

	adapter := &fakeAdapter{scores: []float32{2.0, 1.0, 0.1}}
	c := New(settings, adapter, ds, nil, nil)

	rec := postImage(c, testJPEG(t, 128))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp classificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The persisted record is retrievable by the returned ID.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/classifications/"+resp.ID, http.NoBody)
	getRec := httptest.NewRecorder()
	c.Echo.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var stored datastore.Classification
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &stored))
	assert.Equal(t, "minor", stored.Label)
	assert.Equal(t, "test-node", stored.SourceNode)
	assert.Len(t, stored.Scores, 3)

	// And shows up in the recent listing.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/classifications/recent?limit=5", http.NoBody)
	recentRec := httptest.NewRecorder()
	c.Echo.ServeHTTP(recentRec, req)
	require.Equal(t, http.StatusOK, recentRec.Code)

	var recent []datastore.Classification
	require.NoError(t, json.Unmarshal(recentRec.Body.Bytes(), &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, resp.ID, recent[0].UUID)
}

func TestRecentLimitValidation(t *testing.T) {
	settings := testSettings()
	settings.Output.SQLite = conf.SQLiteSettings{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "limit-test.db"),
	}
	ds := datastore.New(settings)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { assert.NoError(t, ds.Close()) })

	c := New(settings, &fakeAdapter{scores: []float32{1, 0, 0}}, ds, nil, nil)

	for _, limit := range []string{"0", "-3", "101", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/classifications/recent?limit="+limit, http.NoBody)
		rec := httptest.NewRecorder()
		c.Echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}
