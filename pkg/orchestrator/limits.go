package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ServiceLimits は外部サービスごとの同時実行数と流量の上限を束ねます。
// 生成サービスと解析サービスはレート制限もコスト特性も独立なので、上限も別々に持ちます。
type ServiceLimits struct {
	generationSem *semaphore.Weighted
	analysisSem   *semaphore.Weighted
	generationLim *rate.Limiter
	analysisLim   *rate.Limiter
}

// LimitsConfig は ServiceLimits の設定値です。
type LimitsConfig struct {
	MaxConcurrentGenerations int64         // 生成サービスへの同時接続上限
	MaxConcurrentAnalyses    int64         // 解析サービスへの同時接続上限
	GenerationInterval       time.Duration // 生成リクエストの最小間隔
	AnalysisInterval         time.Duration // 解析リクエストの最小間隔
	Burst                    int           // 開始直後に連続で投げてよいリクエスト数
}

// NewServiceLimits は LimitsConfig から ServiceLimits を生成します。
func NewServiceLimits(cfg LimitsConfig) *ServiceLimits {
	if cfg.MaxConcurrentGenerations < 1 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.MaxConcurrentAnalyses < 1 {
		cfg.MaxConcurrentAnalyses = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	newLimiter := func(interval time.Duration) *rate.Limiter {
		if interval <= 0 {
			return rate.NewLimiter(rate.Inf, cfg.Burst)
		}
		return rate.NewLimiter(rate.Every(interval), cfg.Burst)
	}

	return &ServiceLimits{
		generationSem: semaphore.NewWeighted(cfg.MaxConcurrentGenerations),
		analysisSem:   semaphore.NewWeighted(cfg.MaxConcurrentAnalyses),
		generationLim: newLimiter(cfg.GenerationInterval),
		analysisLim:   newLimiter(cfg.AnalysisInterval),
	}
}

// AcquireGeneration は生成サービスの呼び出し枠を確保し、解放用の関数を返します。
func (l *ServiceLimits) AcquireGeneration(ctx context.Context) (func(), error) {
	return acquire(ctx, l.generationLim, l.generationSem)
}

// AcquireAnalysis は解析サービスの呼び出し枠を確保し、解放用の関数を返します。
func (l *ServiceLimits) AcquireAnalysis(ctx context.Context) (func(), error) {
	return acquire(ctx, l.analysisLim, l.analysisSem)
}

func acquire(ctx context.Context, lim *rate.Limiter, sem *semaphore.Weighted) (func(), error) {
	if err := lim.Wait(ctx); err != nil {
		return nil, err
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
