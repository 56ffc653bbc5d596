package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-chara-asset-kit/internal/config"

	"github.com/spf13/cobra"
)

// opts は addAppFlags で各フラグに紐付けられる実行時パラメータなのだ。
var opts config.GenerateOptions

// rootCmd は、アプリケーションのトップレベルコマンドなのだ。
var rootCmd = &cobra.Command{
	Use:   "chara-asset",
	Short: "キャラクターの一貫性を検証しながら画像アセットを生成するのだ。",
	Long: `参照アセットプールから最適な参照を選び、生成 → 解析 → 合否判定の試行ループを
回してキャラクターの見た目が一致する画像だけを採用するツールなのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 対象と指示 ---
	rootCmd.PersistentFlags().StringVarP(&opts.CharacterID, "character", "c", "", "対象キャラクターのIDなのだ（必須）。")
	rootCmd.PersistentFlags().StringVarP(&opts.Prompt, "prompt", "p", "", "生成指示のプロンプトなのだ（必須）。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", "", "画風の指定なのだ。省略時は IMAGE_STYLE_SUFFIX を使うのだ。")
	rootCmd.PersistentFlags().StringSliceVar(&opts.Tags, "tags", nil, "採用アセットに付与するタグなのだ。")

	// --- 試行ポリシー ---
	rootCmd.PersistentFlags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "最大試行回数（1..5）なのだ。0 はデフォルト(3)を使うのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.QualityThreshold, "quality-threshold", -1, "品質しきい値（0..100）なのだ。0 でゲート無効、-1 でデフォルト(70)なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.ConsistencyThreshold, "consistency-threshold", -1, "一貫性しきい値（0..100）なのだ。0 でゲート無効、-1 でデフォルト(80)なのだ。")

	// --- 入出力 ---
	rootCmd.PersistentFlags().StringVarP(&opts.PoolFile, "pool-file", "f", config.DefaultPoolFile, "参照プールJSONのパス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "採用画像と監査ログの保存先なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ResultFile, "result-file", config.DefaultResultFile, "実行結果JSONの保存先なのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "外部サービスへのリクエストタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// gemini バックエンドを使う場合に限り、APIキーの存在チェックが欠かせないのだ！
	backend := os.Getenv("GENERATION_BACKEND")
	if backend == "gemini" && os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Geminiバックエンドの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, rankCmd)

	// Ctrl-C やコンテナ停止のシグナルで実行中の試行を安全に中断するのだ
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
