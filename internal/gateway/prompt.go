package gateway

import (
	"fmt"
	"strings"
)

const syllabusSystem = `You analyze course syllabi for students.

Rules:
- Extract the main, distinct topics of the syllabus.
- Use short topic names (2-6 words). No numbering, no unit labels.
- Keep the syllabus order. Merge duplicates.`

const quizSystem = `You write multiple-choice quizzes for students.

Rules:
- Every question has exactly 4 options with no duplicates.
- correctAnswer must be copied verbatim from options.
- Number questions from 1 in the id field.
- Match the requested difficulty. Avoid trick questions.
- Do not include any text or explanations outside of the JSON object.`

const summarySystem = `You are an encouraging study coach reviewing a finished quiz.
Write a concise 3-4 line summary. Identify strengths and areas for improvement.`

const videoSystem = `You help students find good explainer videos.
Suggest exactly 3 effective YouTube search queries for the topic.`

const planSystem = `Act as an expert academic planner. Create a detailed, day-by-day study plan.

Instructions:
1. Analyze the days available until the exam.
2. Distribute the syllabus topics logically.
3. Allocate revision days before the exam.
4. Include buffer and rest days.
5. Output a well-structured plan as plain text, one day per line.`

const materialsSystem = `You recommend study materials.
Suggest 3 to 5 relevant, high-quality materials such as textbooks, online
courses or authoritative websites. Give each a title, a short description and
a direct https link.`

const coachSystem = `You are a friendly, encouraging and knowledgeable AI Study Coach. Your goal is to help a student succeed.
Keep your responses concise and conversational (2-4 sentences). Do not use markdown formatting.`

var noteInstructions = map[NoteAction]string{
	ActionSummarize: "Summarize the following text into clear, concise key points. Focus on the main ideas and important details.",
	ActionExpand: "Expand on the following text. Elaborate on the key points, explain any abbreviations or jargon, " +
		"and provide more detailed explanations to make the content easier to understand. " +
		"The goal is to make the notes comprehensive for someone new to the topic.",
}

// maxSourceRunes caps document text pasted into a prompt.
const maxSourceRunes = 40000

func clip(text string) string {
	r := []rune(text)
	if len(r) <= maxSourceRunes {
		return text
	}
	return string(r[:maxSourceRunes])
}

func quizPrompt(req QuizRequest) string {
	var b strings.Builder
	if len(req.FullSyllabusTopics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(req.FullSyllabusTopics, ", "))
		b.WriteString("Spread the questions across all topics.\n")
	} else {
		fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	}
	fmt.Fprintf(&b, "Number of questions: %d\n", req.NumQuestions)
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	return b.String()
}

func summaryPrompt(req SummaryRequest) string {
	correct := 0
	for _, r := range req.Results {
		if r.IsCorrect {
			correct++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Score: %d/%d\n\nResults:\n", correct, len(req.Results))
	for _, r := range req.Results {
		answer := r.UserAnswer
		if answer == "" {
			answer = "Not answered"
		}
		fmt.Fprintf(&b, "- Question: %s\n  Your answer: %s\n  Correct: %t\n", r.Question, answer, r.IsCorrect)
	}
	return b.String()
}

func chatPrompt(req ChatRequest) string {
	var b strings.Builder

	b.WriteString("Student context:\n")
	perf := lastN(req.Performance, chatPerformanceWindow)
	if len(perf) == 0 {
		b.WriteString("No quiz data available yet.\n")
	} else {
		b.WriteString("Here is the student's recent quiz performance:\n")
		for _, p := range perf {
			fmt.Fprintf(&b, "- On the topic '%s', they scored %s.\n", p.Topic, p.Score)
		}
	}

	b.WriteString("\nConversation history:\n")
	for _, t := range lastN(req.History, chatHistoryWindow) {
		who := "Coach"
		if t.Role == ChatRoleUser {
			who = "Student"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, t.Text)
	}

	b.WriteString("\nNow, respond to the student's latest message.\n")
	fmt.Fprintf(&b, "Student: %s\nCoach:", req.Message)
	return b.String()
}
