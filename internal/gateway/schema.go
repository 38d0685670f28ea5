package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/abhisek/studybuddy/internal/llm"
)

func stringList(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

func textObject(key, desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			key: map[string]any{"type": "string", "description": desc},
		},
		"required": []any{key},
	}
}

// TopicsSchema is the payload of parse-syllabus.
var TopicsSchema = &llm.Schema{
	Name:        "syllabus-topics",
	Description: "The main, distinct topics of a syllabus",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": stringList("Short topic names in syllabus order"),
		},
		"required": []any{"topics"},
	},
}

// QuizSchema is the payload of generate-quiz. The id is left untyped because
// backends send either numbers or strings.
var QuizSchema = &llm.Schema{
	Name:        "quiz",
	Description: "A multiple-choice quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quiz": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{
							"description": "Question number, unique within the quiz",
						},
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"minItems":    2,
							"description": "Exactly 4 answer options",
						},
						"correctAnswer": map[string]any{
							"type":        "string",
							"description": "The correct option, copied verbatim from options",
						},
					},
					"required": []any{"question", "options", "correctAnswer"},
				},
			},
		},
		"required": []any{"quiz"},
	},
}

// SummarySchema is the payload of generate-report-summary.
var SummarySchema = &llm.Schema{
	Name:        "report-summary",
	Description: "A short, encouraging quiz performance summary",
	Definition:  textObject("summary", "3-4 lines naming strengths and areas to improve"),
}

// VideoSchema is the payload of get-video-suggestions.
var VideoSchema = &llm.Schema{
	Name:        "video-suggestions",
	Description: "YouTube search queries for a struggling student",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": stringList("Exactly 3 search queries"),
		},
		"required": []any{"suggestions"},
	},
}

// NotesSchema is the payload of process-notes.
var NotesSchema = &llm.Schema{
	Name:        "processed-notes",
	Description: "Notes rewritten according to the requested action",
	Definition:  textObject("processed_text", "The processed notes as plain text"),
}

// PlanSchema is the payload of generate-study-plan.
var PlanSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "A day-by-day study plan",
	Definition:  textObject("plan_text", "The full study plan as plain text"),
}

// MaterialsSchema is the payload of get-material-suggestions.
var MaterialsSchema = &llm.Schema{
	Name:        "study-materials",
	Description: "Recommended study materials for a syllabus",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"materials": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"link":        map[string]any{"type": "string", "description": "A full https URL"},
					},
					"required": []any{"title", "description", "link"},
				},
			},
		},
		"required": []any{"materials"},
	},
}

// ChatSchema is the payload of chat. Coach replies are generated as free
// text, so this is only applied to backend responses.
var ChatSchema = &llm.Schema{
	Name:        "chat-reply",
	Description: "The coach's reply",
	Definition:  textObject("response", "The reply text"),
}

type (
	topicsPayload struct {
		Topics []string `json:"topics"`
	}
	quizPayload struct {
		Quiz []quizItemWire `json:"quiz"`
	}
	summaryPayload struct {
		Summary string `json:"summary"`
	}
	videoPayload struct {
		Suggestions []string `json:"suggestions"`
	}
	notesPayload struct {
		ProcessedText string `json:"processed_text"`
	}
	planPayload struct {
		PlanText string `json:"plan_text"`
	}
	materialsPayload struct {
		Materials []Material `json:"materials"`
	}
	chatPayload struct {
		Response string `json:"response"`
	}
)

// decodePayload validates raw against schema and decodes it into out.
// Anything that does not match becomes a malformed-payload *Error.
func decodePayload(op string, status int, schema *llm.Schema, raw []byte, out any) error {
	if err := llm.Validate(schema, raw); err != nil {
		return &Error{Op: op, Status: status, Message: "The study backend returned an unexpected response.", Err: err}
	}
	if err := json.Unmarshal(llm.ExtractJSON(raw), out); err != nil {
		return &Error{Op: op, Status: status, Message: "The study backend returned an unexpected response.", Err: err}
	}
	return nil
}

// decodeLLM decodes a validated provider response.
func decodeLLM(op string, resp *llm.Response, out any) error {
	return decodePayload(op, http.StatusInternalServerError, nil, resp.Content, out)
}
