package voice

// Identity is a named voice the assistant can speak with, bound to an
// ElevenLabs voice and the synthesis settings tuned for it.
type Identity struct {
	Name            string  `json:"name"`
	VoiceID         string  `json:"voiceId"`
	Gender          string  `json:"gender"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"speakerBoost"`
}

// The two stock assistant voices. Settings favour expressiveness over
// consistency, which suits short conversational sentences.
var (
	VoiceZosia = Identity{
		Name:            "Zosia",
		VoiceID:         "21m00Tcm4TlvDq8ikWAM",
		Gender:          "female",
		Stability:       0.38,
		SimilarityBoost: 0.75,
		Style:           0.48,
		SpeakerBoost:    true,
	}
	VoiceAdam = Identity{
		Name:            "Adam",
		VoiceID:         "pNInz6obpgDQGcFmaJgB",
		Gender:          "male",
		Stability:       0.38,
		SimilarityBoost: 0.75,
		Style:           0.48,
		SpeakerBoost:    true,
	}
)

// DefaultVoice is used when a session does not pick a voice explicitly.
var DefaultVoice = VoiceAdam

// Identities lists the stock voices in presentation order.
func Identities() []Identity {
	return []Identity{VoiceZosia, VoiceAdam}
}

// IdentityForVoice maps the profile's voice pick ("male" or "female")
// to a stock voice. Anything unrecognized gets the male voice, matching
// the app's historical default.
func IdentityForVoice(pick string) Identity {
	if pick == "female" {
		return VoiceZosia
	}
	return VoiceAdam
}

// IdentityByName finds a stock voice by its display name.
func IdentityByName(name string) (Identity, bool) {
	for _, id := range Identities() {
		if id.Name == name {
			return id, true
		}
	}
	return Identity{}, false
}
