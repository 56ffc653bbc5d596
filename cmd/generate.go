package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-chara-asset-kit/internal/config"
	"github.com/shouni/go-chara-asset-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、一貫性検証付きの画像生成ループを実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "参照を選びながら画像を生成し、合格した1枚を採用するのだ。",
	Long: `参照プールから最適な参照アセットを選び、生成 → 解析 → 合否判定のループを回すのだ。
品質と一貫性の両方がしきい値を超えた候補だけが採用され、プールへ還元されるのだよ。`,
	RunE: generateCommand,
}

func init() {
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.CharacterID == "" {
		return fmt.Errorf("対象キャラクター（--character）を指定してほしいのだ")
	}
	if opts.Prompt == "" {
		return fmt.Errorf("プロンプト（--prompt）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("生成オーケストレーションを起動するのだ！",
		"character", opts.CharacterID,
		"backend", cfg.Backend,
		"pool_file", opts.PoolFile,
		"output_dir", opts.OutputDir)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	err := pipeline.Execute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての工程が完了したのだ！")
	return nil
}
