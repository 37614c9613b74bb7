// Package api exposes the volume engine's Put/Get contract over HTTP: a
// cutout in, a typed byte buffer out (or in, for writes). Routing is
// chi; request decoding, error envelopes, and structured logging follow
// the conventions the rest of this codebase uses (pkg/errors,
// internal/logger).
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neurovol/neurovol/internal/array"
	"github.com/neurovol/neurovol/internal/engine"
	"github.com/neurovol/neurovol/internal/logger"
	"github.com/neurovol/neurovol/internal/metrics"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Server mounts the data-plane routes for a single Engine.
type Server struct {
	engine  *engine.Engine
	router  chi.Router
	metrics *metrics.Metrics
}

// New builds a Server backed by eng, with request logging and panic
// recovery middleware installed. met and gatherer are both optional: a
// nil met skips per-request instrumentation, and a nil gatherer skips
// mounting /metrics.
func New(eng *engine.Engine, met *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	s := &Server{engine: eng, router: r, metrics: met}
	r.Get("/healthz", s.handleHealth)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/scales/{scaleKey}/cutout", func(r chi.Router) {
		r.Get("/", s.handleGetCutout)
		r.Put("/", s.handlePutCutout)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// cutoutParams is the common query-string shape for both Get and Put:
// three ranges, a datatype selector, and the subtract_voxel_offset flag.
type cutoutParams struct {
	xStart, xEnd int64
	yStart, yEnd int64
	zStart, zEnd int64
	dtype        string
	subtractOff  bool
}

func parseCutoutParams(r *http.Request) (cutoutParams, error) {
	q := r.URL.Query()
	var p cutoutParams
	var err error
	for _, f := range []struct {
		name string
		dst  *int64
	}{
		{"x0", &p.xStart}, {"x1", &p.xEnd},
		{"y0", &p.yStart}, {"y1", &p.yEnd},
		{"z0", &p.zStart}, {"z1", &p.zEnd},
	} {
		*f.dst, err = strconv.ParseInt(q.Get(f.name), 10, 64)
		if err != nil {
			return p, apperrors.New(apperrors.CodeInvalidInput, "missing or invalid query parameter "+f.name)
		}
	}
	p.dtype = q.Get("dtype")
	p.subtractOff = q.Get("subtract_voxel_offset") == "true"
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.ErrorCode("INTERNAL")
	if appErr, ok := err.(*apperrors.AppError); ok {
		code = appErr.Code
		switch code {
		case apperrors.CodeNotFound, apperrors.CodeUnknownScale:
			status = http.StatusNotFound
		case apperrors.CodeInvalidInput, apperrors.CodeUnknownEncoding, apperrors.CodeUnknownDataType, apperrors.CodeTypeMismatch:
			status = http.StatusBadRequest
		case apperrors.CodeUnsupported:
			status = http.StatusNotImplemented
		}
	}
	logger.Error("api: request failed: %v", err)
	writeJSON(w, status, map[string]string{"code": string(code), "message": err.Error()})
}

func (s *Server) handleGetCutout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.ActiveCutouts.Inc()
		defer s.metrics.ActiveCutouts.Dec()
		defer s.metrics.ObserveBlockIO("get", start)
	}

	scaleKey := chi.URLParam(r, "scaleKey")
	p, err := parseCutoutParams(r)
	if err != nil {
		s.countError(err)
		writeError(w, err)
		return
	}

	xrng := engine.Range{p.xStart, p.xEnd}
	yrng := engine.Range{p.yStart, p.yEnd}
	zrng := engine.Range{p.zStart, p.zEnd}
	xdim, ydim, zdim := int(p.xEnd-p.xStart), int(p.yEnd-p.yStart), int(p.zEnd-p.zStart)

	data, err := getCutoutBytes(r.Context(), s.engine, p.dtype, xrng, yrng, zrng, xdim, ydim, zdim, scaleKey, p.subtractOff)
	if err != nil {
		s.countError(err)
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.BlockReads.WithLabelValues(scaleKey).Inc()
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// countError increments BlockErrors by the failing request's error code,
// if metrics are enabled.
func (s *Server) countError(err error) {
	if s.metrics == nil {
		return
	}
	code := "INTERNAL"
	if appErr, ok := err.(*apperrors.AppError); ok {
		code = string(appErr.Code)
	}
	s.metrics.BlockErrors.WithLabelValues(code).Inc()
}

func getCutoutBytes(ctx context.Context, eng *engine.Engine, dtype string, xrng, yrng, zrng engine.Range, xdim, ydim, zdim int, scaleKey string, subtractOff bool) ([]byte, error) {
	switch dtype {
	case "uint8":
		a := array.New[uint8](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "uint16":
		a := array.New[uint16](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "uint32":
		a := array.New[uint32](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "uint64":
		a := array.New[uint64](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "float32":
		a := array.New[float32](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	default:
		return nil, apperrors.New(apperrors.CodeUnknownDataType, "unknown dtype query parameter: "+dtype)
	}
}

func (s *Server) handlePutCutout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.ActiveCutouts.Inc()
		defer s.metrics.ActiveCutouts.Dec()
		defer s.metrics.ObserveBlockIO("put", start)
	}

	scaleKey := chi.URLParam(r, "scaleKey")
	p, err := parseCutoutParams(r)
	if err != nil {
		s.countError(err)
		writeError(w, err)
		return
	}
	xrng := engine.Range{p.xStart, p.xEnd}
	yrng := engine.Range{p.yStart, p.yEnd}
	zrng := engine.Range{p.zStart, p.zEnd}
	xdim, ydim, zdim := int(p.xEnd-p.xStart), int(p.yEnd-p.yStart), int(p.zEnd-p.zStart)

	body := make([]byte, r.ContentLength)
	if _, err := readFull(r.Body, body); err != nil {
		err = apperrors.Wrap(apperrors.CodeInvalidInput, "failed to read request body", err)
		s.countError(err)
		writeError(w, err)
		return
	}

	if err := putCutoutBytes(r.Context(), s.engine, p.dtype, body, xrng, yrng, zrng, xdim, ydim, zdim, scaleKey, p.subtractOff); err != nil {
		s.countError(err)
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.BlockWrites.WithLabelValues(scaleKey).Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func readFull(r io.Reader, buf []byte) (int, error) {
	return io.ReadFull(r, buf)
}

func putCutoutBytes(ctx context.Context, eng *engine.Engine, dtype string, body []byte, xrng, yrng, zrng engine.Range, xdim, ydim, zdim int, scaleKey string, subtractOff bool) error {
	switch dtype {
	case "uint8":
		return engine.Put(ctx, eng, array.FromBytes[uint8](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "uint16":
		return engine.Put(ctx, eng, array.FromBytes[uint16](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "uint32":
		return engine.Put(ctx, eng, array.FromBytes[uint32](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "uint64":
		return engine.Put(ctx, eng, array.FromBytes[uint64](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "float32":
		return engine.Put(ctx, eng, array.FromBytes[float32](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	default:
		return apperrors.New(apperrors.CodeUnknownDataType, "unknown dtype query parameter: "+dtype)
	}
}
