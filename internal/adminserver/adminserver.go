// Package adminserver implements a read-only console for operating a
// running nvol process: a manifest browser and a per-scale block-count
// summary, plus its own health check and Swagger docs. It runs on its
// own port, separate from internal/api's data-plane router, so a slow
// or misbehaving console client can never hold up a cutout request.
package adminserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/neurovol/neurovol/internal/engine"
	"github.com/neurovol/neurovol/internal/logger"
	"github.com/neurovol/neurovol/internal/manifest"
	"github.com/neurovol/neurovol/internal/metrics"
)

// @title nvol admin console
// @version 1.0
// @description Read-only manifest browser and block-count summary for a running nvol process.
// @BasePath /

// Server is the bound (engine) admin console.
type Server struct {
	eng     *engine.Engine
	router  *gin.Engine
	metrics *metrics.Metrics
}

// New builds a Server with all routes registered. met is optional: when
// set, each scale summary refreshes the IndexedBlocks gauge so the
// /metrics series matches what this console reports.
func New(eng *engine.Engine, met *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	s := &Server{eng: eng, router: router, metrics: met}

	router.GET("/healthz", s.handleHealth)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	scales := router.Group("/scales")
	{
		scales.GET("", s.handleListScales)
		scales.GET("/:scaleKey", s.handleGetScale)
	}

	return s
}

// ServeHTTP lets a Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("admin %s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

// handleHealth godoc
//
//	@Summary	Health check
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/healthz [get]
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// scaleSummary is the admin-facing view of one manifest scale: its
// declared shape plus how many blocks this process has touched so far.
type scaleSummary struct {
	Key           string   `json:"key"`
	Size          [3]int64 `json:"size"`
	VoxelOffset   [3]int64 `json:"voxel_offset"`
	ChunkSize     [3]int64 `json:"chunk_size"`
	Encoding      string   `json:"encoding"`
	IndexedBlocks int      `json:"indexed_blocks"`
}

// handleListScales godoc
//
//	@Summary	List scales
//	@Produce	json
//	@Success	200	{array}	scaleSummary
//	@Router		/scales [get]
func (s *Server) handleListScales(c *gin.Context) {
	m := s.eng.Manifest()
	out := make([]scaleSummary, 0, len(m.Scales))
	for _, scale := range m.Scales {
		out = append(out, s.summarize(scale))
	}
	c.JSON(http.StatusOK, gin.H{
		"type":         m.Type,
		"data_type":    m.DataType,
		"num_channels": m.NumChannels,
		"scales":       out,
	})
}

// handleGetScale godoc
//
//	@Summary	Get scale detail
//	@Produce	json
//	@Param		scaleKey	path		string	true	"Scale key"
//	@Success	200			{object}	scaleSummary
//	@Failure	404			{object}	map[string]string
//	@Router		/scales/{scaleKey} [get]
func (s *Server) handleGetScale(c *gin.Context) {
	scaleKey := c.Param("scaleKey")
	scale, ok := s.eng.Manifest().ScaleByKey(scaleKey)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown scale: " + scaleKey})
		return
	}
	c.JSON(http.StatusOK, s.summarize(scale))
}

func (s *Server) summarize(scale manifest.Scale) scaleSummary {
	indexed := s.eng.IndexLen(scale.Key)
	if s.metrics != nil {
		s.metrics.IndexedBlocks.WithLabelValues(scale.Key).Set(float64(indexed))
	}
	return scaleSummary{
		Key:           scale.Key,
		Size:          scale.Size,
		VoxelOffset:   scale.VoxelOffset,
		ChunkSize:     scale.ChunkSize(),
		Encoding:      scale.Encoding,
		IndexedBlocks: indexed,
	}
}
