package types

// Profile describes the founder the assistant is paired with. It feeds
// the system prompt and recap prompts; the gateway receives it from the
// client, which owns persistence.
type Profile struct {
	Name               string   `json:"name"`
	CompanyName        string   `json:"companyName"`
	Age                string   `json:"age"` // bracket: "18-24", "25-30", "31-40", "41+"
	Stage              string   `json:"stage"`
	Industry           string   `json:"industry"`
	Challenges         []string `json:"challenges"`
	Goals              string   `json:"goals"`
	CommunicationStyle string   `json:"communicationStyle"` // "casual" or "structured"
	Gender             string   `json:"gender"`
	TargetMarket       string   `json:"targetMarket"`
	FounVoice          string   `json:"founVoice"` // "male" or "female"
}

// AgeNumber maps the age bracket to a representative number of years.
func (p Profile) AgeNumber() int {
	switch p.Age {
	case "18-24":
		return 21
	case "25-30":
		return 27
	case "31-40":
		return 35
	case "41+":
		return 45
	default:
		return 28
	}
}
