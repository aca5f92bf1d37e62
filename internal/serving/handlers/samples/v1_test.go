package samples

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(key []byte) ([]byte, error) {
	if v, ok := f.data[string(key)]; ok {
		return v, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeCache) Set(key, value []byte) error {
	f.data[string(key)] = value
	return nil
}

func (f *fakeCache) SetEx(key, value []byte, expiryInSec int) error {
	return f.Set(key, value)
}

func (f *fakeCache) Delete(key []byte) bool {
	delete(f.data, string(key))
	return true
}

func writeTestScreen(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 50, B: 25, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a01.png"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a02.png"), buf.Bytes(), 0o644))

	csv := "index,url,info,x,y,gene,neighbors\n" +
		"A01,a01.png,well A01,0.1,0.2,myc,A02\n" +
		"A02,a02.png,well A02,0.3,0.4,tp53,A01\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "samples.csv"), []byte(csv), 0o644))
	return dir
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := writeTestScreen(t)

	manager := new(config.MockConfigManager)
	manager.On("GetScreenConfig", "bbbc021").Return(&config.Screen{
		StoreId:     "1",
		DatasetPath: filepath.Join(dir, "samples.csv"),
		State:       "READY",
	}, nil)
	manager.On("GetScreenConfig", "missing").Return(nil, errors.New("screen not found"))

	cache := newFakeCache()
	handler := SetMockSamplesHandler(manager, nil, cache)

	router := gin.New()
	router.GET("/api/v1/screens/:screen/samples", handler.GetSamples)
	router.POST("/api/v1/screens/:screen/selection", handler.PostSelection)
	router.GET("/api/v1/screens/:screen/samples/:id/image", handler.GetImage)
	router.GET("/api/v1/screens/:screen/table.csv", handler.GetTableCSV)
	return router, cache
}

func TestGetSamples(t *testing.T) {
	router, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/bbbc021/samples", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response ScatterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "bbbc021", response.Screen)
	assert.Equal(t, "READY", response.State)
	require.Len(t, response.Points, 2)
	assert.Equal(t, "A01", response.Points[0].Id)
	assert.Equal(t, 0.2, response.Points[0].Y)
}

func TestGetSamplesUnknownScreen(t *testing.T) {
	router, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/missing/samples", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostSelection(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{"sample_ids":["A02","A01"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screens/bbbc021/selection", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response SelectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotContains(t, response.Columns, dataset.ColNeighbors)
	require.Len(t, response.Rows, 2)
	assert.Equal(t, "A02", response.Rows[0][0])
	require.Len(t, response.Tiles, 2)
	assert.Equal(t, 0.5, response.Tiles[0].Size)
	assert.Equal(t, 0.5, response.Tiles[1].X)
	assert.False(t, response.Truncated)
}

func TestPostSelectionEmpty(t *testing.T) {
	router, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screens/bbbc021/selection", strings.NewReader(`{"sample_ids":[]}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetImageSingle(t *testing.T) {
	router, cache := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/bbbc021/samples/A01/image", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	decoded, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Contains(t, cache.data, "img:bbbc021:A01:single")
}

func TestGetImageMontage(t *testing.T) {
	router, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/bbbc021/samples/A01/image?view=montage", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	decoded, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	// two 4px tiles on a 2x2 grid
	assert.Equal(t, 8, decoded.Bounds().Dx())
}

func TestGetImageUnknownSample(t *testing.T) {
	router, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/bbbc021/samples/Z99/image", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTableCSVSelection(t *testing.T) {
	router, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screens/bbbc021/table.csv?ids=A02", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "A02,"))
}

func TestBuildMontageTilesTruncation(t *testing.T) {
	selected := make([]dataset.Sample, 30)
	for i := range selected {
		selected[i] = dataset.Sample{Index: "s"}
	}
	tiles, truncated := buildMontageTiles(selected)
	assert.Len(t, tiles, montageMaxTiles-1)
	assert.True(t, truncated)
}
