package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/LJTian/DigestHub/internal/collector"
)

type Config struct {
	AppPort string

	// RedisAddr 为空时不启用响应缓存
	RedisAddr string
	CacheTTL  time.Duration

	CronSpec string

	SourcesFile   string
	RelevanceFile string

	LookbackDays   int
	FetchTimeout   time.Duration
	MaxConcurrency int
	MaxBodyBytes   int64
}

func Load() *Config {
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "9000"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		CacheTTL:       getDuration("CACHE_TTL", 10*time.Minute),
		CronSpec:       getEnv("CRON_SPEC", "0 7 * * *"),
		SourcesFile:    getEnv("SOURCES_FILE", "blogs.json"),
		RelevanceFile:  getEnv("RELEVANCE_FILE", "eprint_config.json"),
		LookbackDays:   getInt("LOOKBACK_DAYS", 7),
		FetchTimeout:   getDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxConcurrency: getInt("MAX_CONCURRENCY", 8),
		MaxBodyBytes:   int64(getInt("MAX_BODY_BYTES", 10<<20)),
	}

	log.Printf("config loaded: port=%s cron=%s sources=%s lookback=%dd timeout=%s concurrency=%d",
		cfg.AppPort, cfg.CronSpec, cfg.SourcesFile, cfg.LookbackDays, cfg.FetchTimeout, cfg.MaxConcurrency)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warn: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("warn: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// sourceEntry 兼容旧版配置中的 "domain" 字段
type sourceEntry struct {
	collector.Source
	Domain string `json:"domain,omitempty"`
}

// LoadSources 读取数据源列表（JSON 数组）
func LoadSources(path string) ([]collector.Source, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read sources: %v", collector.ErrConfig, err)
	}

	var entries []sourceEntry
	if err := json.Unmarshal(bs, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", collector.ErrConfig, path, err)
	}

	sources := make([]collector.Source, 0, len(entries))
	for i, e := range entries {
		src := e.Source
		if src.URL == "" {
			src.URL = e.Domain
		}
		if src.Name == "" || src.URL == "" {
			return nil, fmt.Errorf("%w: source #%d needs name and url", collector.ErrConfig, i)
		}
		sources = append(sources, src)
	}

	log.Printf("sources loaded: %d from %s", len(sources), path)
	return sources, nil
}

// HasPreprintSource 判断是否需要加载相关性配置
func HasPreprintSource(sources []collector.Source) bool {
	for _, s := range sources {
		if s.Type == collector.FeedOAIPMH {
			return true
		}
	}
	return false
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
