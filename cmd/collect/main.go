package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/LJTian/DigestHub/internal/collector"
	"github.com/LJTian/DigestHub/internal/config"
	"github.com/LJTian/DigestHub/internal/filters"
	"github.com/LJTian/DigestHub/internal/processor"
	"github.com/LJTian/DigestHub/internal/scheduler"
	"github.com/LJTian/DigestHub/internal/storage"
)

// 一个仅执行一次采集任务的命令行入口：collect [sources.json] [YYYY-MM-DD]
func main() {
	cfg := config.Load()

	sourcesFile := cfg.SourcesFile
	if len(os.Args) > 1 {
		sourcesFile = os.Args[1]
	}

	since := collector.Day(config.Now()).AddDate(0, 0, -cfg.LookbackDays)
	if len(os.Args) > 2 {
		t, err := time.Parse(time.DateOnly, os.Args[2])
		if err != nil {
			log.Fatalf("invalid since date %q: %v", os.Args[2], err)
		}
		since = t
	}

	sources, err := config.LoadSources(sourcesFile)
	if err != nil {
		log.Fatalf("load sources failed: %v", err)
	}

	cache, closeCache := openCache(cfg)
	defer closeCache()

	factory := &collector.Factory{
		Client: collector.NewHTTPClient(cfg.FetchTimeout, cfg.MaxBodyBytes, cache),
	}
	if config.HasPreprintSource(sources) {
		rc, err := filters.LoadRelevanceConfig(cfg.RelevanceFile)
		if err != nil {
			log.Fatalf("load relevance config failed: %v", err)
		}
		factory.Relevance = filters.NewRelevanceFilter(rc)
	}

	s, err := scheduler.New("", sources, factory, processor.NewDigestProcessor(), scheduler.Options{
		Concurrency:  cfg.MaxConcurrency,
		Timeout:      cfg.FetchTimeout,
		LookbackDays: cfg.LookbackDays,
	})
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}

	render(os.Stdout, s.Collect(context.Background(), since))
}

// openCache 未配置 REDIS_ADDR 时返回 nil，关闭函数总是可调用
func openCache(cfg *config.Config) (collector.ResponseCache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	c := storage.NewCache(cfg.RedisAddr, cfg.CacheTTL)
	return c, func() {
		if err := c.Close(); err != nil {
			log.Printf("warn: close cache: %v", err)
		}
	}
}

// render 输出 markdown：先预印本，再其他条目，最后是失败的数据源
func render(w io.Writer, d processor.Digest) {
	for _, e := range d.Preprints {
		line := fmt.Sprintf("[%s](%s) | %s (%s)", e.Title, e.URL, e.Source, e.Date.Format(time.DateOnly))
		if e.Authors != "" {
			line += " | " + e.Authors
		}
		fmt.Fprintln(w, line)
	}
	for _, e := range d.Others {
		fmt.Fprintf(w, "[%s](%s) | %s (%s)\n", e.Title, e.URL, e.Source, e.Date.Format(time.DateOnly))
	}
	if len(d.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, e := range d.Errors {
			fmt.Fprintf(w, "- %s: %s\n", e.Source, e.Message)
		}
	}
}
