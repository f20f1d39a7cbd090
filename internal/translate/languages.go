package translate

// Text is one language variant of a piece of prompt text.
type Text struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Language pairs a translation-service code with its display name.
type Language struct {
	Code string
	Name string
}

// Supported is the fixed, ordered set of languages every stored prompt must
// cover. The first entry doubles as the default source when detection fails.
var Supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "cy", Name: "Welsh"},
	{Code: "es", Name: "Spanish"},
	{Code: "ta", Name: "Tamil"},
	{Code: "zh-Hans", Name: "Chinese Simplified"},
	{Code: "ar", Name: "Arabic"},
}

// SupportedCodes returns the configured language codes in order.
func SupportedCodes() []string {
	codes := make([]string, len(Supported))
	for i, l := range Supported {
		codes[i] = l.Code
	}
	return codes
}
