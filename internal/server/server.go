// Package server exposes the ranking engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/happyhackingspace/boqa"
	"github.com/happyhackingspace/boqa/internal/config"
	"github.com/happyhackingspace/boqa/internal/metrics"
	"github.com/happyhackingspace/boqa/ontology"
)

// Server wires the engine into a gin router.
type Server struct {
	engine  *boqa.Engine
	cfg     config.ServerConfig
	metrics *metrics.Metrics
	router  *gin.Engine
	logger  *slog.Logger
}

// New builds the server. A nil metrics value disables instrumentation
// updates but keeps the /metrics endpoint.
func New(engine *boqa.Engine, cfg config.ServerConfig, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "server"),
	}
	if m != nil {
		m.ItemsRanked.Set(float64(engine.NumItems()))
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	api.GET("/terms", s.handleTerms)
	api.GET("/items/:id", s.handleItem)
	api.POST("/rank", s.handleRank)

	s.router = r
	return s
}

// Router returns the underlying router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"terms":  s.engine.NumberOfTerms(""),
		"items":  s.engine.NumItems(),
	})
}

type termEntry struct {
	SortedID int    `json:"sorted_id"`
	TermID   string `json:"term_id"`
	Name     string `json:"name"`
}

func (s *Server) handleTerms(c *gin.Context) {
	pattern := c.Query("pattern")
	terms := s.engine.Terms(pattern)
	out := make([]termEntry, len(terms))
	for i, t := range terms {
		out[i] = termEntry{
			SortedID: s.engine.IDOfTerm(t),
			TermID:   string(t.ID),
			Name:     t.Name,
		}
	}
	c.JSON(http.StatusOK, gin.H{"terms": out, "count": len(out)})
}

func (s *Server) handleItem(c *gin.Context) {
	var id int
	if _, err := fmt.Sscanf(c.Param("id"), "%d", &id); err != nil || id < 0 || id >= s.engine.NumItems() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown item"})
		return
	}
	direct := s.engine.TermsDirectlyAnnotatedTo(id)
	terms := make([]termEntry, len(direct))
	for i, sid := range direct {
		t := s.engine.TermAt(sid)
		terms[i] = termEntry{SortedID: sid, TermID: string(t.ID), Name: t.Name}
	}
	c.JSON(http.StatusOK, gin.H{
		"item_id":     id,
		"name":        s.engine.ItemName(id),
		"terms":       terms,
		"frequencies": s.engine.FrequenciesDirectlyAnnotatedTo(id),
	})
}

type rankRequest struct {
	// Terms are external term identifiers, e.g. "HP:0000118".
	Terms []string `json:"terms"`
	TopK  int      `json:"top_k"`
}

func (s *Server) handleRank(c *gin.Context) {
	start := time.Now()

	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.countQuery("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids := make([]ontology.TermID, len(req.Terms))
	for i, t := range req.Terms {
		ids[i] = ontology.TermID(t)
	}

	results, err := s.engine.ScoreNames(c.Request.Context(), ids)
	switch {
	case errors.Is(err, boqa.ErrEmptyQuery), errors.Is(err, boqa.ErrUnknownTerm):
		s.countQuery("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.countQuery("error")
		s.logger.Error("ranking failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	topK := req.TopK
	if topK <= 0 || topK > len(results) {
		topK = min(s.cfg.TopK, len(results))
	}

	if s.metrics != nil {
		s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
		s.metrics.QueryTermsCount.Observe(float64(len(req.Terms)))
	}
	s.countQuery("ok")
	s.logger.Info("query ranked", "terms", len(req.Terms), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{"results": results[:topK]})
}

func (s *Server) countQuery(outcome string) {
	if s.metrics != nil {
		s.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	}
}
