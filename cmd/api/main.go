package main

import (
	"log"

	"github.com/LJTian/DigestHub/internal/api"
	"github.com/LJTian/DigestHub/internal/collector"
	"github.com/LJTian/DigestHub/internal/config"
	"github.com/LJTian/DigestHub/internal/filters"
	"github.com/LJTian/DigestHub/internal/processor"
	"github.com/LJTian/DigestHub/internal/scheduler"
	"github.com/LJTian/DigestHub/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("load sources failed: %v", err)
	}

	// 未配置 REDIS_ADDR 时不启用响应缓存
	var cache collector.ResponseCache
	if cfg.RedisAddr != "" {
		c := storage.NewCache(cfg.RedisAddr, cfg.CacheTTL)
		defer c.Close()
		cache = c
	}

	factory := &collector.Factory{
		Client: collector.NewHTTPClient(cfg.FetchTimeout, cfg.MaxBodyBytes, cache),
	}
	// 相关性配置只加载一次，所有预印本抓取共享
	if config.HasPreprintSource(sources) {
		rc, err := filters.LoadRelevanceConfig(cfg.RelevanceFile)
		if err != nil {
			log.Fatalf("load relevance config failed: %v", err)
		}
		factory.Relevance = filters.NewRelevanceFilter(rc)
	}

	s, err := scheduler.New(cfg.CronSpec, sources, factory, processor.NewDigestProcessor(), scheduler.Options{
		Concurrency:  cfg.MaxConcurrency,
		Timeout:      cfg.FetchTimeout,
		LookbackDays: cfg.LookbackDays,
	})
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	r := gin.Default()
	api.NewServer(s).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Printf("server exit: %v", err)
	}
}
