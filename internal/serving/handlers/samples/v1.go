package samples

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/dataset"
	"github.com/microscopium/microscopium/internal/imaging"
	"github.com/microscopium/microscopium/pkg/ds"
	"github.com/microscopium/microscopium/pkg/httpclient"
	"github.com/microscopium/microscopium/pkg/inmemorycache"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

const (
	ViewSingle     = "single"
	ViewMontage    = "montage"
	ViewProjection = "projection"

	imageCacheTTLSeconds = 300
)

type HandlerV1 struct {
	configManager config.Manager
	httpClient    *httpclient.Client
	tables        *ds.SyncMap[string, *dataset.Table]
	imageCache    inmemorycache.InMemoryCache
}

func InitV1() *HandlerV1 {
	if handlerV1 == nil {
		once.Do(func() {
			inmemorycache.Init(1)
			handlerV1 = &HandlerV1{
				configManager: config.NewManager(config.DefaultVersion),
				httpClient:    httpclient.NewClient(httpclient.Config{Name: "image-source"}),
				tables:        ds.NewSyncMap[string, *dataset.Table](),
				imageCache:    inmemorycache.Instance(),
			}
		})
	}
	return handlerV1
}

// getTable loads a screen's sample table on first use and keeps it resident.
func (h *HandlerV1) getTable(screen string) (*dataset.Table, error) {
	if table, ok := h.tables.Get(screen); ok {
		return table, nil
	}
	screenConfig, err := h.configManager.GetScreenConfig(screen)
	if err != nil {
		return nil, err
	}
	table, err := dataset.Load(screenConfig.DatasetPath)
	if err != nil {
		return nil, err
	}
	h.tables.Set(screen, table)
	return table, nil
}

// GetSamples handles GET /api/v1/screens/:screen/samples.
func (h *HandlerV1) GetSamples(c *gin.Context) {
	startTime := time.Now()
	screen := c.Param("screen")
	tags := []string{"screen_name", screen, "request_type", "samples"}
	metric.Incr("samples_request", tags)

	screenConfig, err := h.configManager.GetScreenConfig(screen)
	if err != nil {
		metric.Incr("samples_request_4xx", tags)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
		return
	}
	table, err := h.getTable(screen)
	if err != nil {
		metric.Incr("samples_request_5xx", tags)
		log.Error().Err(err).Msgf("Failed to load dataset for screen %s", screen)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dataset"})
		return
	}

	c.JSON(http.StatusOK, ScatterResponse{
		Screen: screen,
		State:  string(screenConfig.State),
		Points: buildScatterPoints(table),
	})
	metric.Timing("samples_latency", time.Since(startTime), tags)
}

// PostSelection handles POST /api/v1/screens/:screen/selection.
func (h *HandlerV1) PostSelection(c *gin.Context) {
	startTime := time.Now()
	screen := c.Param("screen")
	tags := []string{"screen_name", screen, "request_type", "selection"}
	metric.Incr("selection_request", tags)

	var request SelectionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		metric.Incr("selection_request_4xx", tags)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if isValid, msg := validateSelectionRequest(&request); !isValid {
		metric.Incr("selection_request_4xx", tags)
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	table, err := h.getTable(screen)
	if err != nil {
		metric.Incr("selection_request_4xx", tags)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
		return
	}

	selected := table.Select(request.SampleIds)
	columns, rows := buildTableRows(table, selected)
	tiles, truncated := buildMontageTiles(selected)
	c.JSON(http.StatusOK, SelectionResponse{
		Columns:   columns,
		Rows:      rows,
		Tiles:     tiles,
		Truncated: truncated,
	})
	metric.Timing("selection_latency", time.Since(startTime), tags)
}

// GetImage handles GET /api/v1/screens/:screen/samples/:id/image. The view
// query selects a single image, a neighbor montage or a max-intensity
// projection over the sample and its neighbors.
func (h *HandlerV1) GetImage(c *gin.Context) {
	startTime := time.Now()
	screen := c.Param("screen")
	id := c.Param("id")
	view := c.DefaultQuery("view", ViewSingle)
	tags := []string{"screen_name", screen, "request_type", "image", "view", view}
	metric.Incr("image_request", tags)

	table, err := h.getTable(screen)
	if err != nil {
		metric.Incr("image_request_4xx", tags)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
		return
	}
	sample, ok := table.Get(id)
	if !ok {
		metric.Incr("image_request_4xx", tags)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown sample"})
		return
	}

	cacheKey := "img:" + screen + ":" + id + ":" + view
	if cached, cacheErr := h.imageCache.Get([]byte(cacheKey)); cacheErr == nil {
		metric.Incr("image_cache_hit", tags)
		c.Data(http.StatusOK, "image/png", cached)
		return
	}

	rendered, err := h.renderImage(c, table, sample, view)
	if err != nil {
		metric.Incr("image_request_5xx", tags)
		log.Error().Err(err).Msgf("Failed to render image for sample %s", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render image"})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rendered); err != nil {
		metric.Incr("image_request_5xx", tags)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode image"})
		return
	}
	h.imageCache.SetEx([]byte(cacheKey), buf.Bytes(), imageCacheTTLSeconds)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
	metric.Timing("image_latency", time.Since(startTime), tags)
}

func (h *HandlerV1) renderImage(c *gin.Context, table *dataset.Table, sample *dataset.Sample, view string) (image.Image, error) {
	base, err := h.fetchRGBA(c, sample.Path)
	if err != nil {
		return nil, err
	}
	if view == ViewSingle || len(sample.Neighbors) == 0 {
		return base, nil
	}

	images := []*image.RGBA{base}
	for _, neighborId := range sample.Neighbors {
		neighbor, ok := table.Get(neighborId)
		if !ok {
			continue
		}
		img, err := h.fetchRGBA(c, neighbor.Path)
		if err != nil {
			log.Error().Err(err).Msgf("Skipping unreadable neighbor image %s", neighborId)
			continue
		}
		images = append(images, img)
	}

	switch view {
	case ViewProjection:
		return imaging.MaxIntensityProjection(images)
	default:
		return imaging.Montage(images, montageMaxTiles)
	}
}

// fetchRGBA reads an image from disk or over HTTP and normalizes it.
func (h *HandlerV1) fetchRGBA(c *gin.Context, path string) (*image.RGBA, error) {
	var raw []byte
	var err error
	if isRemote(path) {
		raw, err = h.httpClient.Get(c.Request.Context(), path)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return imaging.EnsureRGBA(decoded), nil
}

func isRemote(path string) bool {
	u, err := url.Parse(path)
	return err == nil && (strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https"))
}

// GetTableCSV handles GET /api/v1/screens/:screen/table.csv. An optional
// ids query limits the export to a selection.
func (h *HandlerV1) GetTableCSV(c *gin.Context) {
	screen := c.Param("screen")
	tags := []string{"screen_name", screen, "request_type", "table_csv"}
	metric.Incr("table_csv_request", tags)

	table, err := h.getTable(screen)
	if err != nil {
		metric.Incr("table_csv_request_4xx", tags)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
		return
	}

	var indices []string
	if ids := c.Query("ids"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				indices = append(indices, id)
			}
		}
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, indices); err != nil {
		metric.Incr("table_csv_request_5xx", tags)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export table"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+screen+`.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
