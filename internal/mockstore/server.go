package mockstore

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/joeandaverde/airtable/internal/metrics"
)

var ErrServerClosed = errors.New("mockstore: Server closed")

// Config describes the behavior of the mock HTTP API.
type Config struct {
	// APIKey is required as a bearer token when set.
	APIKey string
	// RequestsPerSecond answers 429 above this rate when positive.
	RequestsPerSecond float64
	// PageSize is the default and maximum page size.
	PageSize int
}

// Server serves the records REST API on top of a Store.
type Server struct {
	config  Config
	store   *Store
	log     logrus.FieldLogger
	limiter *rate.Limiter
	router  *gin.Engine
	srv     *http.Server
}

func NewServer(log logrus.FieldLogger, store *Store, config Config) *Server {
	if config.PageSize < 1 || config.PageSize > 100 {
		config.PageSize = 100
	}

	s := &Server{
		config: config,
		store:  store,
		log:    log,
	}
	if config.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.observe)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v0 := router.Group("/v0", s.authenticate, s.throttle)
	v0.GET("/:base/:table", s.listRecords)
	v0.POST("/:base/:table", s.createRecord)
	v0.GET("/:base/:table/:id", s.getRecord)
	v0.PATCH("/:base/:table/:id", s.updateRecord)
	v0.DELETE("/:base/:table/:id", s.deleteRecord)

	s.router = router
	return s
}

// Handler exposes the API for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("mock store listening on %s", ln.Addr())

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ErrServerClosed
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) observe(c *gin.Context) {
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	metrics.MockRequestTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
}

func (s *Server) authenticate(c *gin.Context) {
	if s.config.APIKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+s.config.APIKey {
		abortWithError(c, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Authentication required")
		return
	}
	c.Next()
}

func (s *Server) throttle(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"errors": []gin.H{{
				"error":   "RATE_LIMIT_REACHED",
				"message": "Rate limit exceeded. Please try again later",
			}},
		})
		return
	}
	c.Next()
}

type recordJSON struct {
	ID          string                     `json:"id"`
	CreatedTime string                     `json:"createdTime"`
	Fields      map[string]json.RawMessage `json:"fields"`
}

func toJSON(r *Record) recordJSON {
	return recordJSON{
		ID:          r.ID,
		CreatedTime: r.CreatedTime.UTC().Format("2006-01-02T15:04:05.000Z"),
		Fields:      r.Fields,
	}
}

type listResponse struct {
	Records []recordJSON `json:"records"`
	Offset  string       `json:"offset,omitempty"`
}

type writeRequest struct {
	Fields   map[string]json.RawMessage `json:"fields"`
	Typecast bool                       `json:"typecast"`
}

func (s *Server) listRecords(c *gin.Context) {
	q, err := parseListQuery(c.Request.URL.Query(), s.config.PageSize)
	if err != nil {
		s.replyError(c, err)
		return
	}

	records, err := s.store.List(c.Request.Context(), c.Param("base"), c.Param("table"))
	if err != nil {
		s.replyError(c, err)
		return
	}

	page, next := q.apply(records)
	resp := listResponse{Records: make([]recordJSON, 0, len(page)), Offset: next}
	for _, r := range page {
		resp.Records = append(resp.Records, toJSON(r))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) getRecord(c *gin.Context) {
	rec, err := s.store.Get(c.Request.Context(), c.Param("base"), c.Param("table"), c.Param("id"))
	if err != nil {
		s.replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(rec))
}

func (s *Server) createRecord(c *gin.Context) {
	req, ok := s.bindWrite(c)
	if !ok {
		return
	}

	rec, err := s.store.Insert(c.Request.Context(), c.Param("base"), c.Param("table"), req.Fields)
	if err != nil {
		s.replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(rec))
}

func (s *Server) updateRecord(c *gin.Context) {
	req, ok := s.bindWrite(c)
	if !ok {
		return
	}

	rec, err := s.store.Patch(c.Request.Context(), c.Param("base"), c.Param("table"), c.Param("id"), req.Fields)
	if err != nil {
		s.replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(rec))
}

func (s *Server) deleteRecord(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Delete(c.Request.Context(), c.Param("base"), c.Param("table"), id); err != nil {
		s.replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

func (s *Server) bindWrite(c *gin.Context) (*writeRequest, bool) {
	var req writeRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		abortWithError(c, http.StatusUnprocessableEntity, "INVALID_REQUEST_BODY", "Could not parse request body")
		return nil, false
	}
	if req.Fields == nil {
		abortWithError(c, http.StatusUnprocessableEntity, "INVALID_REQUEST_MISSING_FIELDS", "Could not find field \"fields\" in the request body")
		return nil, false
	}
	return &req, true
}

func (s *Server) replyError(c *gin.Context, err error) {
	var lerr *listError
	switch {
	case errors.As(err, &lerr):
		abortWithError(c, http.StatusUnprocessableEntity, lerr.Type, lerr.Message)
	case errors.Is(err, ErrNoRecord):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
	default:
		s.log.WithError(err).Error("mock store request failed")
		abortWithError(c, http.StatusInternalServerError, "SERVER_ERROR", "Internal Server Error")
	}
}

func abortWithError(c *gin.Context, status int, typ, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"type":    typ,
			"message": message,
		},
	})
}
