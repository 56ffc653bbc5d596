package analyzer

import "github.com/shouni/go-chara-asset-kit/pkg/domain"

// 各軸の辞書なのだ。並び順がそのまま判定の優先順になるため、
// より限定的な表現（"extreme close-up" 等）を汎用的な表現より先に置くこと。

func defaultShotRules() []rule[domain.ShotType] {
	return []rule[domain.ShotType]{
		{"extreme close-up", domain.ShotCloseUp},
		{"close-up", domain.ShotCloseUp},
		{"closeup", domain.ShotCloseUp},
		{"portrait", domain.ShotCloseUp},
		{"face shot", domain.ShotCloseUp},
		{"full body", domain.ShotFullBody},
		{"full-body", domain.ShotFullBody},
		{"head to toe", domain.ShotFullBody},
		{"standing pose", domain.ShotFullBody},
		{"wide shot", domain.ShotWide},
		{"wide angle", domain.ShotWide},
		{"landscape", domain.ShotWide},
		{"panorama", domain.ShotWide},
		{"medium shot", domain.ShotMedium},
		{"upper body", domain.ShotMedium},
		{"waist up", domain.ShotMedium},
		{"bust shot", domain.ShotMedium},
	}
}

func defaultAngleRules() []rule[domain.Angle] {
	return []rule[domain.Angle]{
		{"three-quarter", domain.AngleThreeQuarter},
		{"three quarter", domain.AngleThreeQuarter},
		{"3/4 view", domain.AngleThreeQuarter},
		{"from behind", domain.AngleBack},
		{"back view", domain.AngleBack},
		{"rear view", domain.AngleBack},
		{"side view", domain.AngleSide},
		{"profile view", domain.AngleSide},
		{"in profile", domain.AngleSide},
		{"front view", domain.AngleFront},
		{"facing forward", domain.AngleFront},
		{"facing the camera", domain.AngleFront},
		{"looking at viewer", domain.AngleFront},
	}
}

func defaultMoodRules() []rule[domain.Mood] {
	return []rule[domain.Mood]{
		{"battle", domain.MoodAction},
		{"fighting", domain.MoodAction},
		{"running", domain.MoodAction},
		{"jumping", domain.MoodAction},
		{"action", domain.MoodAction},
		{"dynamic", domain.MoodAction},
		{"dramatic", domain.MoodDramatic},
		{"intense", domain.MoodDramatic},
		{"moody lighting", domain.MoodDramatic},
		{"cinematic", domain.MoodDramatic},
		{"peaceful", domain.MoodCalm},
		{"relaxed", domain.MoodCalm},
		{"serene", domain.MoodCalm},
		{"calm", domain.MoodCalm},
		{"gentle", domain.MoodCalm},
	}
}

func defaultSettingRules() []rule[domain.Setting] {
	return []rule[domain.Setting]{
		{"studio background", domain.SettingStudio},
		{"plain background", domain.SettingStudio},
		{"white background", domain.SettingStudio},
		{"studio", domain.SettingStudio},
		{"indoor", domain.SettingIndoor},
		{"inside", domain.SettingIndoor},
		{"room", domain.SettingIndoor},
		{"classroom", domain.SettingIndoor},
		{"cafe", domain.SettingIndoor},
		{"outdoor", domain.SettingOutdoor},
		{"outside", domain.SettingOutdoor},
		{"forest", domain.SettingOutdoor},
		{"beach", domain.SettingOutdoor},
		{"street", domain.SettingOutdoor},
		{"mountain", domain.SettingOutdoor},
		{"city", domain.SettingOutdoor},
		{"sky", domain.SettingOutdoor},
	}
}

// defaultStopWords は英語の機能語を中心とした除外リストです。
func defaultStopWords() map[string]struct{} {
	words := []string{
		"the", "and", "with", "for", "her", "his", "she", "him",
		"this", "that", "are", "was", "has", "have", "its", "into",
		"from", "very", "where", "while", "being", "over", "under",
		"some", "any", "all", "but", "not", "out", "about", "them",
		"they", "their", "there", "who", "what", "when", "how",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
