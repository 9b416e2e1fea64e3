package main

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/rs/zerolog/log"
)

// Sink keeps the most recent unlock notifications in memory.
type Sink struct {
	mu       sync.RWMutex
	capacity int
	unlocks  []model.AchievementUnlocked
	received int64
}

func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = 100
	}
	return &Sink{capacity: capacity}
}

func (s *Sink) Add(u model.AchievementUnlocked) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received++
	s.unlocks = append(s.unlocks, u)
	if len(s.unlocks) > s.capacity {
		s.unlocks = s.unlocks[len(s.unlocks)-s.capacity:]
	}
}

// Recent returns up to limit unlocks, newest first, optionally only those of userID.
func (s *Sink) Recent(userID string, limit int) []model.AchievementUnlocked {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AchievementUnlocked, 0, len(s.unlocks))
	for i := len(s.unlocks) - 1; i >= 0; i-- {
		if userID != "" && s.unlocks[i].UserID != userID {
			continue
		}
		out = append(out, s.unlocks[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Sink) Received() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.received
}

type Handler struct {
	sink    *Sink
	started time.Time
}

func NewHandler(sink *Sink) *Handler {
	return &Handler{sink: sink, started: time.Now()}
}

func (h *Handler) Receive(c *gin.Context) {
	var u model.AchievementUnlocked
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}
	if u.UserID == "" || u.Achievement.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and achievement.id are required"})
		return
	}
	h.sink.Add(u)

	log.Info().
		Str("user_id", u.UserID).
		Str("achievement_id", u.Achievement.ID).
		Str("trigger", string(u.Trigger)).
		Time("unlocked_at", u.UnlockedAt).
		Msg("achievement unlocked")

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocks": h.sink.Recent(c.Query("user_id"), limit)})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"received": h.sink.Received(),
		"uptime":   time.Since(h.started).String(),
	})
}

func SetupRouter(handler *Handler, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsCfg))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/unlocks", handler.Receive)
		v1.GET("/unlocks", handler.List)
		v1.GET("/health", handler.HealthCheck)
	}
	router.GET("/health", handler.HealthCheck)

	return router
}
