package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
	"github.com/shouni/go-chara-asset-kit/pkg/orchestrator"
)

// GenerateRunner は生成オーケストレーションの実行インターフェースです。
type GenerateRunner interface {
	Run(ctx context.Context, req domain.GenerationRequest, pool domain.ReferencePool) (*domain.GenerationResult, error)
}

// DefaultGenerateRunner は pkg/orchestrator を利用した標準実装です。
type DefaultGenerateRunner struct {
	orch *orchestrator.RetryOrchestrator
}

func NewDefaultGenerateRunner(orch *orchestrator.RetryOrchestrator) *DefaultGenerateRunner {
	return &DefaultGenerateRunner{orch: orch}
}

// Run は試行ループを終端状態まで駆動し、試行履歴込みの結果を返すのだ。
func (gr *DefaultGenerateRunner) Run(ctx context.Context, req domain.GenerationRequest, pool domain.ReferencePool) (*domain.GenerationResult, error) {
	slog.Info("試行ループを開始するのだ", "character_id", req.CharacterID, "pool_size", len(pool))
	return gr.orch.Run(ctx, req, pool)
}
