package api

import (
	"context"
	"net/http"
	"time"

	"github.com/LJTian/DigestHub/internal/collector"
	"github.com/LJTian/DigestHub/internal/processor"
	"github.com/gin-gonic/gin"
)

// Runner 为 API 依赖的采集能力，由 scheduler.Scheduler 实现
type Runner interface {
	Collect(ctx context.Context, since time.Time) processor.Digest
	RunOnce(ctx context.Context) processor.Digest
	Latest() (processor.Digest, bool)
	Sources() []collector.Source
}

type Server struct {
	runner Runner
}

func NewServer(runner Runner) *Server {
	return &Server{runner: runner}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/sources", s.listSources)
		v1.GET("/digest", s.getDigest)
		v1.POST("/refresh", s.refresh)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listSources(c *gin.Context) {
	ok(c, s.runner.Sources())
}

// getDigest 默认返回最近一次定时采集结果；带 since 参数时按该日期现采一轮
func (s *Server) getDigest(c *gin.Context) {
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "invalid_since",
				"message": "since must be YYYY-MM-DD",
			})
			return
		}
		ok(c, s.runner.Collect(c.Request.Context(), since))
		return
	}

	d, ready := s.runner.Latest()
	if !ready {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_ready",
			"message": "no digest collected yet",
		})
		return
	}
	ok(c, d)
}

func (s *Server) refresh(c *gin.Context) {
	ok(c, s.runner.RunOnce(c.Request.Context()))
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}
