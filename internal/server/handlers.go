package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plazalytics/plazacache/internal/errors"
)

// writeError maps the engine's error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err) || errors.IsSchema(err):
		status = http.StatusBadRequest
	case errors.IsNotLoaded(err):
		status = http.StatusNotFound
	case errors.IsDecode(err):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseKey(c *gin.Context, name string) (uint32, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		writeError(c, errors.NewValidation(name, "must be an unsigned period key"))
		return 0, false
	}
	return uint32(v), true
}

func queryKey(c *gin.Context, name string) (uint32, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		writeError(c, errors.NewValidation(name, "must be an unsigned period key"))
		return 0, false
	}
	return uint32(v), true
}

// queryFilter parses the status filter; absent means unfiltered.
func queryFilter(c *gin.Context) (int64, bool) {
	raw := c.DefaultQuery("filter", "-1")
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(c, errors.NewValidation("filter", "must be an integer"))
		return 0, false
	}
	return v, true
}

// loadPeriodHandler ingests one compressed period payload.
func (s *Server) loadPeriodHandler(c *gin.Context) {
	key, ok := parseKey(c, "key")
	if !ok {
		return
	}

	limited := io.LimitReader(c.Request.Body, s.maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		writeError(c, errors.Wrap(err, "read body"))
		return
	}
	if int64(len(body)) > s.maxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload exceeds size limit"})
		return
	}

	rows, err := s.core.Load(key, body)
	if err != nil {
		s.log.Error("load failed", "key", key, "error", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) periodCachedHandler(c *gin.Context) {
	key, ok := parseKey(c, "key")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cached": s.core.IsPeriodCached(key)})
}

func (s *Server) evictPeriodHandler(c *gin.Context) {
	key, ok := parseKey(c, "key")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"evicted": s.core.EvictPeriod(key)})
}

func (s *Server) compareHandler(c *gin.Context) {
	key1, ok := queryKey(c, "key1")
	if !ok {
		return
	}
	key2, ok := queryKey(c, "key2")
	if !ok {
		return
	}
	filter, ok := queryFilter(c)
	if !ok {
		return
	}

	cmp, err := s.core.Compare(key1, key2, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (s *Server) resultCachedHandler(c *gin.Context) {
	key1, ok := queryKey(c, "key1")
	if !ok {
		return
	}
	key2, ok := queryKey(c, "key2")
	if !ok {
		return
	}
	filter, ok := queryFilter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cached": s.core.IsResultCached(key1, key2, filter)})
}

func (s *Server) evictResultHandler(c *gin.Context) {
	key1, ok := queryKey(c, "key1")
	if !ok {
		return
	}
	key2, ok := queryKey(c, "key2")
	if !ok {
		return
	}
	filter, ok := queryFilter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"evicted": s.core.EvictResult(key1, key2, filter)})
}

type expireRequest struct {
	TTLSeconds uint64 `json:"ttl_seconds" binding:"required"`
}

func (s *Server) expireHandler(c *gin.Context) {
	var req expireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.NewValidation("body", err.Error()))
		return
	}
	removed := s.core.ExpireResults(time.Duration(req.TTLSeconds) * time.Second)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

type sweepRequest struct {
	Keep        int    `json:"keep"`
	CurrentYear uint32 `json:"current_year" binding:"required"`
}

func (s *Server) sweepHandler(c *gin.Context) {
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.NewValidation("body", err.Error()))
		return
	}
	removed := s.core.SweepPeriods(req.Keep, req.CurrentYear)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.core.ResourceStats())
}

func (s *Server) cacheInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": s.core.CacheInfo()})
}

type geoInitRequest struct {
	Lats       []float64 `json:"lats" binding:"required"`
	Lngs       []float64 `json:"lngs" binding:"required"`
	GroupIDs   []int64   `json:"group_ids" binding:"required"`
	Statuses   []int64   `json:"statuses" binding:"required"`
	IncTotals  []int64   `json:"inc_totals" binding:"required"`
	AtenTotals []int64   `json:"aten_totals" binding:"required"`
	CNTotals   []int64   `json:"cn_totals" binding:"required"`
}

func (s *Server) geoInitHandler(c *gin.Context) {
	var req geoInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.NewValidation("body", err.Error()))
		return
	}

	rows, err := s.legacy.Init(req.Lats, req.Lngs, req.GroupIDs, req.Statuses,
		req.IncTotals, req.AtenTotals, req.CNTotals)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) nearbyHandler(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		writeError(c, errors.NewValidation("lat", "must be a number"))
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		writeError(c, errors.NewValidation("lng", "must be a number"))
		return
	}
	maxKm, err := strconv.ParseFloat(c.DefaultQuery("max_km", "10"), 64)
	if err != nil {
		writeError(c, errors.NewValidation("max_km", "must be a number"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		writeError(c, errors.NewValidation("limit", "must be an integer"))
		return
	}

	matches, err := s.legacy.FindWithin(lat, lng, maxKm, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
