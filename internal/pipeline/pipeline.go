package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-chara-asset-kit/internal/builder"
	"github.com/shouni/go-chara-asset-kit/internal/config"
	"github.com/shouni/go-chara-asset-kit/internal/runner"
	"github.com/shouni/go-chara-asset-kit/pkg/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// Execute は参照プールを読み込み、生成オーケストレーションを終端状態まで実行して
// 結果JSONを保存するのだ。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	pool, err := loadReferencePool(ctx, appCtx)
	if err != nil {
		return err
	}

	generateRunner, err := builder.BuildGenerateRunner(ctx, appCtx)
	if err != nil {
		return fmt.Errorf("GenerateRunnerの構築に失敗したのだ: %w", err)
	}

	req := buildRequest(cfg.Options, cfg.StyleSuffix)

	slog.Info("生成オーケストレーションを実行するのだ...",
		"character_id", req.CharacterID, "pool_size", len(pool), "backend", cfg.Backend)

	result, err := generateRunner.Run(ctx, req, pool)
	if err != nil {
		// キャンセルでも途中結果があれば保存してから抜けるのだ
		if result != nil {
			if werr := writeResult(ctx, appCtx, result); werr != nil {
				slog.Warn("途中結果の保存に失敗しました", "error", werr)
			}
		}
		return fmt.Errorf("生成オーケストレーションに失敗したのだ: %w", err)
	}

	if err := writeResult(ctx, appCtx, result); err != nil {
		return err
	}

	if result.Success {
		slog.Info("候補画像が採用されたのだ！",
			"accepted_asset_id", result.AcceptedAssetID,
			"reference_id", result.SelectedReferenceID,
			"attempts", len(result.Attempts),
			"total_elapsed_ms", result.TotalElapsedMs)
	} else {
		slog.Warn("採用に至りませんでした",
			"outcome", string(result.Outcome),
			"attempts", len(result.Attempts),
			"reasons", result.FailureReasons)
	}
	return nil
}

// ExecuteRank は生成を行わず、プロンプト解析と参照ランキングの結果だけを表示する
// ドライラン用のステージなのだ。
func ExecuteRank(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	pool, err := loadReferencePool(ctx, appCtx)
	if err != nil {
		return err
	}

	rankRunner := runner.NewDefaultRankRunner()
	profile, rows, err := rankRunner.Run(ctx, cfg.Options.Prompt, pool)
	if err != nil {
		return fmt.Errorf("参照ランキングに失敗したのだ: %w", err)
	}

	slog.Info("プロンプトを解析したのだ",
		"shot_type", string(profile.ShotType),
		"angle", string(profile.Angle),
		"mood", string(profile.Mood),
		"setting", string(profile.Setting),
		"keywords", profile.Keywords)

	for i, row := range rows {
		fmt.Printf("%2d. %-24s kind=%-9s score=%3d quality=%3d consistency=%3d\n",
			i+1, row.Asset.ID, string(row.Asset.Kind), row.Score,
			row.Asset.QualityScore, row.Asset.ConsistencyScore)
	}
	return nil
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	httpClient := httpkit.New(config.DefaultHTTPTimeout)

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	appCtx := builder.NewAppContext(cfg, httpClient, reader, writer)
	return &appCtx, nil
}

// loadReferencePool は参照プールJSONを読み込み、検証済みのプールを返すのだ。
func loadReferencePool(ctx context.Context, appCtx *builder.AppContext) (domain.ReferencePool, error) {
	poolFile := appCtx.Options.PoolFile
	rc, err := appCtx.Reader.Open(ctx, poolFile)
	if err != nil {
		return nil, fmt.Errorf("参照プール '%s' の読み込みに失敗しました: %w", poolFile, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("参照プール '%s' の読み取りに失敗しました: %w", poolFile, err)
	}

	pool, err := domain.ParseReferencePool(data)
	if err != nil {
		return nil, fmt.Errorf("参照プール '%s' の検証に失敗しました: %w", poolFile, err)
	}
	return pool, nil
}

// buildRequest は CLI オプションを生成リクエストへ変換するのだ。
// しきい値の -1 は「未指定」を意味し、0 は「ゲート無効化」として区別されるのだ。
func buildRequest(opts config.GenerateOptions, styleSuffix string) domain.GenerationRequest {
	style := opts.Style
	if style == "" {
		style = styleSuffix
	}

	req := domain.GenerationRequest{
		CharacterID: opts.CharacterID,
		Prompt:      opts.Prompt,
		Style:       style,
		MaxAttempts: opts.MaxAttempts,
		Tags:        opts.Tags,
	}
	if opts.QualityThreshold >= 0 {
		req.QualityThreshold = opts.QualityThreshold
		req.QualityThresholdSet = true
	}
	if opts.ConsistencyThreshold >= 0 {
		req.ConsistencyThreshold = opts.ConsistencyThreshold
		req.ConsistencyThresholdSet = true
	}
	return req
}

// writeResult は実行結果（試行履歴込み）をJSONとして保存するのだ。
func writeResult(ctx context.Context, appCtx *builder.AppContext, result *domain.GenerationResult) error {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("実行結果のエンコードに失敗しました: %w", err)
	}

	outputPath := appCtx.Options.ResultFile
	if err := appCtx.Writer.Write(ctx, outputPath, bytes.NewReader(resultJSON), "application/json"); err != nil {
		return fmt.Errorf("実行結果の保存に失敗したのだ: %w", err)
	}
	slog.Info("実行結果を保存したのだ", "path", outputPath)
	return nil
}
