package prompt

import "github.com/quiplash-live/quiplash-service/internal/translate"

// Prompt is the stored document: one text entry per supported language, the
// source-language entry carrying the author's original bytes. Prompts are
// partitioned by author username; the id is a generated uuid.
type Prompt struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Texts    []translate.Text `json:"texts"`
	Tags     []string         `json:"tags"`

	// Moderation outcome, written back by Moderate. Absent until a prompt
	// has been moderated at least once.
	Approved        *bool    `json:"approved,omitempty"`
	AverageSeverity *float64 `json:"average_severity,omitempty"`
}

// Status reports an operation outcome in the API's result/msg shape.
type Status struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
}

type CreateRequest struct {
	Username string   `json:"username"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags"`
}

type ModerateRequest struct {
	PromptIDs []string `json:"prompt-ids"`
}

// ModerationEntry is one row of the moderation report.
type ModerationEntry struct {
	PromptID        string  `json:"prompt-id"`
	Outcome         bool    `json:"outcome"`
	AverageSeverity float64 `json:"average_severity"`
}

type DeleteRequest struct {
	Player string `json:"player"`
}

type FetchRequest struct {
	Players []string `json:"players"`
	TagList []string `json:"tag_list"`
}
