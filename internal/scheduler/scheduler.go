package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/LJTian/DigestHub/internal/collector"
	"github.com/LJTian/DigestHub/internal/processor"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// FetcherFactory 为数据源选择 fetcher，配置错误在分发前返回
type FetcherFactory interface {
	For(src collector.Source) (collector.Fetcher, error)
}

type Options struct {
	// Concurrency 为同时进行的抓取数上限，<=0 表示不限制
	Concurrency int
	// Timeout 为单个数据源的抓取超时，0 表示不设超时
	Timeout      time.Duration
	LookbackDays int
}

type Scheduler struct {
	cron      *cron.Cron
	sources   []collector.Source
	factory   FetcherFactory
	processor *processor.DigestProcessor
	opts      Options

	mu     sync.RWMutex
	latest *processor.Digest
}

// New 创建调度器；spec 为空时不注册定时任务，仅供 Collect/RunOnce 手动调用
func New(spec string, sources []collector.Source, factory FetcherFactory, p *processor.DigestProcessor, opts Options) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:      c,
		sources:   sources,
		factory:   factory,
		processor: p,
		opts:      opts,
	}

	if spec != "" {
		_, err := c.AddFunc(spec, func() { s.RunOnce(context.Background()) })
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免与服务启动争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.RunOnce(context.Background())
	})
}

// Stop 停止定时任务，并等待正在运行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Since 返回当天往前 LookbackDays 天的日期
func (s *Scheduler) Since(now time.Time) time.Time {
	return collector.Day(now).AddDate(0, 0, -s.opts.LookbackDays)
}

// RunOnce 以默认回看窗口采集一轮，并保存为最新摘要
func (s *Scheduler) RunOnce(ctx context.Context) processor.Digest {
	d := s.Collect(ctx, s.Since(time.Now()))

	s.mu.Lock()
	s.latest = &d
	s.mu.Unlock()
	return d
}

// Latest 返回最近一次 RunOnce 的结果
func (s *Scheduler) Latest() (processor.Digest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return processor.Digest{}, false
	}
	return *s.latest, true
}

func (s *Scheduler) Sources() []collector.Source {
	return s.sources
}

// Collect 并发抓取全部数据源。单个源失败只记入 Errors，不影响其他源。
func (s *Scheduler) Collect(ctx context.Context, since time.Time) processor.Digest {
	start := time.Now()
	log.Printf("start collect job: sources=%d since=%s", len(s.sources), since.Format(time.DateOnly))

	outcomes := make([]collector.Outcome, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}

	for i, src := range s.sources {
		outcomes[i].Source = src.Name

		fetcher, err := s.factory.For(src)
		if err != nil {
			log.Printf("skip %s: %v", src.Name, err)
			outcomes[i].Err = err
			continue
		}

		req := src.Request()
		req.Since = since
		i := i
		// 始终返回 nil，避免一个源失败取消其他源
		g.Go(func() error {
			outcomes[i] = s.fetch(gctx, fetcher, req)
			return nil
		})
	}
	_ = g.Wait()

	d := s.processor.Process(since, outcomes)
	log.Printf("collect job done (all sources): preprints=%d others=%d errors=%d took=%s",
		len(d.Preprints), len(d.Others), len(d.Errors), time.Since(start).Round(time.Millisecond))
	return d
}

func (s *Scheduler) fetch(ctx context.Context, f collector.Fetcher, req collector.Request) collector.Outcome {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	log.Printf("fetch from %s...", req.Source)
	items, err := f.Fetch(ctx, req)
	if err != nil {
		log.Printf("fetch %s error: %v", req.Source, err)
		return collector.Outcome{Source: req.Source, Err: err}
	}
	log.Printf("%s done, fetched=%d items in %s", req.Source, len(items), time.Since(start).Round(time.Millisecond))
	return collector.Outcome{Source: req.Source, Items: items}
}
