package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shouni/go-chara-asset-kit/pkg/domain"
)

func TestPromptAnalyzer_Analyze(t *testing.T) {
	a := New()

	t.Run("画角・アングル・雰囲気・舞台が抽出されること", func(t *testing.T) {
		profile := a.Analyze("close-up of zundamon, front view, peaceful, indoor cafe")

		assert.Equal(t, domain.ShotCloseUp, profile.ShotType)
		assert.Equal(t, domain.AngleFront, profile.Angle)
		assert.Equal(t, domain.MoodCalm, profile.Mood)
		assert.Equal(t, domain.SettingIndoor, profile.Setting)
	})

	t.Run("大文字小文字を区別せずにマッチすること", func(t *testing.T) {
		profile := a.Analyze("FULL BODY shot, DRAMATIC lighting")

		assert.Equal(t, domain.ShotFullBody, profile.ShotType)
		assert.Equal(t, domain.MoodDramatic, profile.Mood)
	})

	t.Run("該当なしの軸はニュートラルにフォールバックすること", func(t *testing.T) {
		profile := a.Analyze("zundamon eating zunda mochi")

		assert.Equal(t, domain.ShotUnspecified, profile.ShotType)
		assert.Equal(t, domain.AngleUnspecified, profile.Angle)
		assert.Equal(t, domain.MoodNeutral, profile.Mood)
		assert.Equal(t, domain.SettingNeutral, profile.Setting)
	})

	t.Run("空のプロンプトでも落ちずにニュートラルを返すこと", func(t *testing.T) {
		profile := a.Analyze("")

		assert.Equal(t, domain.MoodNeutral, profile.Mood)
		assert.Empty(t, profile.Keywords)
	})

	t.Run("同じプロンプトから常に同じプロファイルが得られること", func(t *testing.T) {
		prompt := "zundamon running on the beach, wide shot, dynamic"
		assert.Equal(t, a.Analyze(prompt), a.Analyze(prompt))
	})
}

func TestPromptAnalyzer_Keywords(t *testing.T) {
	a := New()

	t.Run("ストップワードと短い語が除外されること", func(t *testing.T) {
		profile := a.Analyze("the zundamon is running in a park with her friends")

		assert.Contains(t, profile.Keywords, "zundamon")
		assert.Contains(t, profile.Keywords, "running")
		assert.Contains(t, profile.Keywords, "park")
		assert.NotContains(t, profile.Keywords, "the")
		assert.NotContains(t, profile.Keywords, "her")
		assert.NotContains(t, profile.Keywords, "is", "2文字以下は除外される")
	})

	t.Run("重複する語は出現順を保って1つにまとめられること", func(t *testing.T) {
		profile := a.Analyze("green hair, green dress, green shoes")

		count := 0
		for _, kw := range profile.Keywords {
			if kw == "green" {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Equal(t, "green", profile.Keywords[0], "first occurrence order should be preserved")
	})
}
