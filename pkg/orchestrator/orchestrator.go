// Package orchestrator は「参照選択 → 生成 → 解析 → 合否判定」の試行ループを駆動する
// ステートマシンを提供します。試行は1リクエスト内では厳密に逐次ですが、
// オーケストレーター自体は複数リクエストの並行実行を前提に設計されています。
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-chara-asset-kit/pkg/adapters"
	"github.com/shouni/go-chara-asset-kit/pkg/domain"
	"github.com/shouni/go-chara-asset-kit/pkg/gate"
)

// PromptAnalyzer はプロンプトから属性プロファイルを抽出します。
type PromptAnalyzer interface {
	Analyze(prompt string) domain.PromptProfile
}

// Ranker は参照プールをプロファイルに対して順位付けします。
type Ranker interface {
	Rank(pool domain.ReferencePool, profile domain.PromptProfile, excluded map[string]struct{}) []domain.ReferenceAsset
}

// Gate は生成候補の合否を判定します。
type Gate interface {
	Evaluate(qualityScore, consistencyScore int, th domain.Thresholds) gate.Decision
}

// AssetStore は採用画像の永続化と試行監査の追記を担う外部コラボレーターです。
type AssetStore interface {
	// CreateReferenceAsset は画像本体とメタデータを1操作として永続化し、採番されたIDを返します。
	CreateReferenceAsset(ctx context.Context, characterID string, asset domain.ReferenceAsset, data []byte) (string, error)
	// AppendAttemptAudit はリクエスト単位の監査レコードを追記します。
	AppendAttemptAudit(ctx context.Context, requestID string, attempt domain.Attempt) error
}

// Config は RetryOrchestrator の動作設定です。グローバル状態は持たず、
// しきい値の異なるリクエストが並行しても互いに干渉しません。
type Config struct {
	GenerationTimeout time.Duration // 生成1回あたりの待機上限
	AnalysisTimeout   time.Duration // 解析フェーズ（アップロード〜スコアリング）全体の待機上限
	PerAttemptBudget  time.Duration // 1試行分の時間予算。リクエスト全体の期限は maxAttempts 倍
	Width             int           // 生成画像の要求サイズ
	Height            int
}

// デフォルト値なのだ
const (
	DefaultGenerationTimeout = 60 * time.Second
	DefaultAnalysisTimeout   = 45 * time.Second
	DefaultPerAttemptBudget  = 2 * time.Minute
	DefaultImageSize         = 1024
)

func (c *Config) applyDefaults() {
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = DefaultGenerationTimeout
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if c.PerAttemptBudget <= 0 {
		c.PerAttemptBudget = DefaultPerAttemptBudget
	}
	if c.Width <= 0 {
		c.Width = DefaultImageSize
	}
	if c.Height <= 0 {
		c.Height = DefaultImageSize
	}
}

// RetryOrchestrator は試行ループの実体です。
type RetryOrchestrator struct {
	analyzer  PromptAnalyzer
	ranker    Ranker
	gate      Gate
	generator adapters.GenerationClient
	analysis  adapters.AnalysisClient
	store     AssetStore
	limits    *ServiceLimits
	cfg       Config
}

// New は依存関係を注入して RetryOrchestrator を生成します。
func New(
	analyzer PromptAnalyzer,
	ranker Ranker,
	g Gate,
	generator adapters.GenerationClient,
	analysis adapters.AnalysisClient,
	store AssetStore,
	limits *ServiceLimits,
	cfg Config,
) (*RetryOrchestrator, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if ranker == nil {
		return nil, fmt.Errorf("ranker is required")
	}
	if g == nil {
		return nil, fmt.Errorf("gate is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator (GenerationClient) is required")
	}
	if analysis == nil {
		return nil, fmt.Errorf("analysis (AnalysisClient) is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store (AssetStore) is required")
	}
	if limits == nil {
		limits = NewServiceLimits(LimitsConfig{})
	}
	cfg.applyDefaults()

	return &RetryOrchestrator{
		analyzer:  analyzer,
		ranker:    ranker,
		gate:      g,
		generator: generator,
		analysis:  analysis,
		store:     store,
		limits:    limits,
		cfg:       cfg,
	}, nil
}

// attemptOutcome は1試行の内部遷移結果です。
type attemptOutcome int

const (
	outcomeContinue attemptOutcome = iota // 不合格。次の参照で続行
	outcomeAccept                         // 合格。終了
	outcomeCanceled                       // キャンセル。予算を消費せず終了
)

// Run は1件の生成リクエストを終端状態まで駆動し、必ず構造化された結果を返します。
// 返り値の error は検証エラー・キャンセル・永続化失敗のみで、
// 不合格やサービス障害は結果の試行履歴として表現されます。
func (o *RetryOrchestrator) Run(ctx context.Context, req domain.GenerationRequest, pool domain.ReferencePool) (*domain.GenerationResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("リクエストの検証に失敗しました: %w", err)
	}

	// プールは実行中読み取り専用。呼び出し元との共有を断つためコピーして保持します。
	pool = pool.Clone()

	overallBudget := time.Duration(req.MaxAttempts) * o.cfg.PerAttemptBudget
	ctx, cancel := context.WithTimeout(ctx, overallBudget)
	defer cancel()

	start := time.Now()
	requestID := newRequestID(req.CharacterID, start)
	logger := slog.With("request_id", requestID, "character_id", req.CharacterID)

	profile := o.analyzer.Analyze(req.Prompt)
	logger.Info("生成オーケストレーションを開始します",
		"max_attempts", req.MaxAttempts,
		"quality_threshold", req.QualityThreshold,
		"consistency_threshold", req.ConsistencyThreshold,
		"shot_type", string(profile.ShotType),
		"pool_size", len(pool))

	selector := newReferenceSelector(o.ranker, pool, profile)
	result := &domain.GenerationResult{}

	finish := func() {
		result.TotalElapsedMs = time.Since(start).Milliseconds()
	}

	for attemptNumber := 1; attemptNumber <= req.MaxAttempts; attemptNumber++ {
		ref, err := selector.next(attemptNumber)
		if errors.Is(err, domain.ErrNoReferenceAvailable) {
			// 参照が1枚も無いのは致命的。残り予算に関わらず即時中断します。
			logger.Warn("選択可能な参照アセットがありません。中断します", "attempt", attemptNumber)
			result.Outcome = domain.OutcomeAborted
			result.FailureReasons = append(result.FailureReasons, "no reference available")
			finish()
			return result, nil
		}

		attempt, storedID, state := o.runAttempt(ctx, logger, requestID, req, profile, ref, attemptNumber)
		result.Attempts = append(result.Attempts, attempt)
		o.appendAudit(ctx, logger, requestID, attempt)

		switch state {
		case outcomeAccept:
			result.Success = true
			result.Outcome = domain.OutcomeAccepted
			result.AcceptedAssetID = storedID
			result.SelectedReferenceID = ref.ID
			finish()
			logger.Info("候補画像が採用されました",
				"attempt", attemptNumber, "accepted_asset_id", storedID, "reference_id", ref.ID)
			return result, nil

		case outcomeCanceled:
			result.Outcome = domain.OutcomeCanceled
			result.FailureReasons = append(result.FailureReasons, "canceled")
			finish()
			return result, ctx.Err()

		case outcomeContinue:
			result.FailureReasons = append(result.FailureReasons,
				fmt.Sprintf("attempt %d: %s", attemptNumber, attempt.RejectReason))
		}
	}

	result.Outcome = domain.OutcomeExhausted
	finish()
	logger.Warn("試行予算を使い切りました", "attempts", len(result.Attempts))
	return result, nil
}

// RunBatch は複数のリクエストを並行実行します。リクエスト同士は独立ですが、
// 外部サービスの同時実行上限と流量制限は ServiceLimits を通じて全体で共有されます。
// いずれかのリクエストが検証エラー等で失敗した場合は残りをキャンセルします。
func (o *RetryOrchestrator) RunBatch(ctx context.Context, reqs []domain.GenerationRequest, pool domain.ReferencePool) ([]*domain.GenerationResult, error) {
	results := make([]*domain.GenerationResult, len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, req := range reqs {
		i, req := i, req

		eg.Go(func() error {
			result, err := o.Run(egCtx, req, pool)
			results[i] = result
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runAttempt は GENERATE → ANALYZE → GATE の1サイクルを実行します。
// 戻り値は監査レコード・採用時の保存済みアセットID・遷移結果です。
func (o *RetryOrchestrator) runAttempt(
	ctx context.Context,
	logger *slog.Logger,
	requestID string,
	req domain.GenerationRequest,
	profile domain.PromptProfile,
	ref domain.ReferenceAsset,
	attemptNumber int,
) (domain.Attempt, string, attemptOutcome) {
	attemptStart := time.Now()
	attempt := domain.Attempt{
		AttemptNumber: attemptNumber,
		ReferenceID:   ref.ID,
		ReferenceKind: ref.Kind,
	}
	finish := func() {
		attempt.ElapsedMs = time.Since(attemptStart).Milliseconds()
	}
	logger = logger.With("attempt", attemptNumber, "reference_id", ref.ID, "reference_kind", string(ref.Kind))

	// --- GENERATE ---
	img, err := o.generateStep(ctx, req, ref)
	if err != nil {
		finish()
		if ctx.Err() != nil {
			// キャンセルは失敗ではなく中断。試行予算には計上しません。
			attempt.RejectReason = "canceled"
			return attempt, "", outcomeCanceled
		}
		logger.Warn("画像生成に失敗しました", "error", err)
		attempt.RejectReason = fmt.Sprintf("generation failed: %v", err)
		return attempt, "", outcomeContinue
	}
	logger.Info("画像生成が完了しました", "generation_time_ms", img.GenerationTimeMs, "bytes", len(img.Data))

	// --- ANALYZE ---
	quality, consistency, candidateID, err := o.analyzeStep(ctx, ref, img)
	if err != nil {
		finish()
		if ctx.Err() != nil {
			attempt.RejectReason = "canceled"
			return attempt, "", outcomeCanceled
		}
		logger.Warn("候補画像の解析に失敗しました", "error", err)
		attempt.RejectReason = fmt.Sprintf("analysis failed: %v", err)
		return attempt, "", outcomeContinue
	}
	attempt.QualityScore = quality
	attempt.ConsistencyScore = consistency.ConsistencyScore

	// --- GATE ---
	if !consistency.SameSubject {
		// 被写体が別人ならスコアの値に意味はないため、しきい値評価より先に弾きます。
		finish()
		attempt.RejectReason = fmt.Sprintf("subject mismatch with reference %s", ref.ID)
		logger.Info("候補画像を不合格にしました", "reason", attempt.RejectReason)
		return attempt, "", outcomeContinue
	}

	decision := o.gate.Evaluate(quality, consistency.ConsistencyScore, req.Thresholds())
	if !decision.Accepted {
		finish()
		attempt.RejectReason = decision.Reason
		logger.Info("候補画像を不合格にしました", "reason", decision.Reason)
		return attempt, "", outcomeContinue
	}

	// --- ACCEPT: 採用画像をプールへ永続化 ---
	newAsset := domain.ReferenceAsset{
		ID:               candidateID,
		Kind:             domain.KindGenerated,
		QualityScore:     quality,
		ConsistencyScore: consistency.ConsistencyScore,
		ShotType:         profile.ShotType,
		Angle:            profile.Angle,
		Keywords:         mergeKeywords(profile.Keywords, req.Tags),
		CreatedAt:        time.Now().UTC(),
	}
	storedID, err := o.store.CreateReferenceAsset(ctx, req.CharacterID, newAsset, img.Data)
	if err != nil {
		finish()
		if ctx.Err() != nil {
			attempt.RejectReason = "canceled"
			return attempt, "", outcomeCanceled
		}
		// 合格したのに保存できないのはポリシーの結末ではなく基盤障害。失敗として記録して続行します。
		logger.Error("採用画像の永続化に失敗しました", "error", err)
		attempt.RejectReason = fmt.Sprintf("persistence failed: %v", err)
		return attempt, "", outcomeContinue
	}

	finish()
	attempt.Accepted = true
	return attempt, storedID, outcomeAccept
}

// generateStep は流量制限・同時実行制限・タイムアウトの下で生成サービスを呼び出します。
func (o *RetryOrchestrator) generateStep(ctx context.Context, req domain.GenerationRequest, ref domain.ReferenceAsset) (*adapters.GeneratedImage, error) {
	release, err := o.limits.AcquireGeneration(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	defer cancel()

	seed := domain.SeedFromCharacterID(req.CharacterID)
	return o.generator.Generate(callCtx, adapters.GenerateParams{
		Prompt:           req.Prompt,
		Style:            req.Style,
		ReferenceAssetID: ref.ID,
		ReferenceURL:     ref.SourceURL,
		Width:            o.cfg.Width,
		Height:           o.cfg.Height,
		Seed:             &seed,
	})
}

// analyzeStep は候補画像のアップロード・特徴抽出・品質/一貫性スコアリングを実行します。
func (o *RetryOrchestrator) analyzeStep(ctx context.Context, ref domain.ReferenceAsset, img *adapters.GeneratedImage) (int, *adapters.ConsistencyResult, string, error) {
	release, err := o.limits.AcquireAnalysis(ctx)
	if err != nil {
		return 0, nil, "", err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.AnalysisTimeout)
	defer cancel()

	uploaded, err := o.analysis.UploadAndExtract(callCtx, img.Data)
	if err != nil {
		return 0, nil, "", err
	}

	quality, err := o.analysis.ScoreQuality(callCtx, uploaded.AssetID)
	if err != nil {
		return 0, nil, "", err
	}

	consistency, err := o.analysis.ScoreConsistency(callCtx, ref.ID, uploaded.AssetID)
	if err != nil {
		return 0, nil, "", err
	}

	return quality, consistency, uploaded.AssetID, nil
}

// appendAudit は監査レコードを追記します。監査の失敗は結果を変えないため警告ログに留めます。
func (o *RetryOrchestrator) appendAudit(ctx context.Context, logger *slog.Logger, requestID string, attempt domain.Attempt) {
	if err := o.store.AppendAttemptAudit(ctx, requestID, attempt); err != nil {
		logger.Warn("試行監査の追記に失敗しました", "attempt", attempt.AttemptNumber, "error", err)
	}
}

// newRequestID はログと監査に使うリクエスト識別子を生成します。
func newRequestID(characterID string, t time.Time) string {
	sum := sha256.Sum256([]byte(characterID + t.Format(time.RFC3339Nano)))
	return "req_" + hex.EncodeToString(sum[:6])
}

// mergeKeywords はプロファイル由来のキーワードとリクエストのタグを重複なしで結合します。
func mergeKeywords(keywords, tags []string) []string {
	merged := make([]string, 0, len(keywords)+len(tags))
	seen := make(map[string]struct{}, len(keywords)+len(tags))
	for _, lists := range [][]string{keywords, tags} {
		for _, kw := range lists {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			merged = append(merged, kw)
		}
	}
	return merged
}
