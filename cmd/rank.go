package cmd

import (
	"fmt"

	"github.com/shouni/go-chara-asset-kit/internal/config"
	"github.com/shouni/go-chara-asset-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// rankCmd は、生成を行わずに参照ランキングの結果だけを確認するためのサブコマンドなのだ。
// プールの中身やプロンプト解析の挙動をデバッグしたい場合に便利なのだ。
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "プロンプトに対する参照アセットの順位を表示するのだ。",
	Long: `参照プールJSONを読み込み、プロンプト解析の結果と各参照アセットのスコアを
順位順に表示するのだ。生成APIは呼び出さないため、コストゼロで試せるのだよ。`,
	RunE: rankCommand,
}

func init() {
}

func rankCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.Prompt == "" {
		return fmt.Errorf("プロンプト（--prompt）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.Options = opts

	return pipeline.ExecuteRank(ctx, cfg)
}
