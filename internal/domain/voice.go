package domain

// Voice selects a speech-synthesis rendition.
type Voice struct {
	Name         string
	LanguageCode string
	SpeakingRate float64
}

var (
	MaleVoice   = Voice{Name: "ko-KR-Chirp3-HD-Charon", LanguageCode: "ko-KR", SpeakingRate: 1.1}
	FemaleVoice = Voice{Name: "ko-KR-Chirp3-HD-Kore", LanguageCode: "ko-KR", SpeakingRate: 1.1}
)

// Voice types a user can choose for article audio.
const (
	VoiceTypeMale    = "male"
	VoiceTypeFemale  = "female"
	DefaultVoiceType = VoiceTypeMale
)

// ValidVoiceType reports whether v names a known voice type.
func ValidVoiceType(v string) bool {
	return v == VoiceTypeMale || v == VoiceTypeFemale
}
