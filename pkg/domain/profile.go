package domain

// ShotType はプロンプトや参照アセットが示す画角（被写体の写り方）の分類です。
type ShotType string

const (
	ShotUnspecified ShotType = ""
	ShotCloseUp     ShotType = "close-up"
	ShotMedium      ShotType = "medium"
	ShotFullBody    ShotType = "full-body"
	ShotWide        ShotType = "wide"
)

// Angle は被写体に対するカメラの向きの分類です。
type Angle string

const (
	AngleUnspecified  Angle = ""
	AngleFront        Angle = "front"
	AngleSide         Angle = "side"
	AngleBack         Angle = "back"
	AngleThreeQuarter Angle = "three-quarter"
)

// Mood はプロンプト全体の雰囲気の分類です。該当なしは neutral になります。
type Mood string

const (
	MoodAction   Mood = "action"
	MoodCalm     Mood = "calm"
	MoodDramatic Mood = "dramatic"
	MoodNeutral  Mood = "neutral"
)

// Setting は舞台・ロケーションの分類です。該当なしは neutral になります。
type Setting string

const (
	SettingOutdoor Setting = "outdoor"
	SettingIndoor  Setting = "indoor"
	SettingStudio  Setting = "studio"
	SettingNeutral Setting = "neutral"
)

// PromptProfile は自由文プロンプトから抽出した粗い属性の集合です。
// リクエストごとに再計算される一時データであり、永続化はしません。
type PromptProfile struct {
	ShotType ShotType
	Angle    Angle
	Mood     Mood
	Setting  Setting
	Keywords []string
}
