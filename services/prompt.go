package services

import (
	"fmt"
	"strings"

	"github.com/physical-ai/textbook-rag/models"
)

// NoContextDisclaimer prefixes answers produced without textbook context.
const NoContextDisclaimer = "No relevant textbook content was found for this question, so the following answer is based on general knowledge.\n\n"

// GenerationErrorNote is appended when the model stream fails mid-response,
// so a partial answer is never mistaken for a complete one.
const GenerationErrorNote = "\n\n**Note:** the response was interrupted by an error. Please try again."

const professorPersona = `You are a professor teaching the Physical AI & Humanoid Robotics textbook.
Answer questions based on the provided textbook context. Reference specific sources when relevant.
Use markdown formatting for readability. Keep answers concise unless the student explicitly asks
for an in-depth explanation. You are an expert in ROS 2, Gazebo, NVIDIA Isaac, and robotics in general.`

const noContextInstruction = `You are a professor teaching the Physical AI & Humanoid Robotics textbook.
No textbook content is available for this question. The student has already been told the answer
is not sourced from the textbook, so answer from general knowledge without repeating that
disclaimer. Keep the answer concise.`

// PromptMessage is one conversational turn of a prompt.
type PromptMessage struct {
	Role string // "user" or "assistant"
	Text string
}

// PromptSpec is the fully assembled input for one chat-completion call.
// It is a plain value so prompt construction can be tested without a network.
type PromptSpec struct {
	System   string
	Messages []PromptMessage
}

// BuildPrompt maps retrieved chunks, the optional user profile, and the
// optional selected page text to the prompt for this turn. With zero chunks it
// produces the no-context prompt; the caller prepends the disclaimer itself.
func BuildPrompt(message string, history []models.HistoryTurn, chunks []models.SearchResult,
	profile *models.UserProfile, selectedText, currentPage string) PromptSpec {

	var system strings.Builder
	if len(chunks) == 0 {
		system.WriteString(noContextInstruction)
	} else {
		system.WriteString(professorPersona)
	}
	if currentPage != "" {
		fmt.Fprintf(&system, "\n\nThe student is currently viewing: %s", currentPage)
	}
	if profile != nil {
		system.WriteString("\n\nSTUDENT BACKGROUND:")
		fmt.Fprintf(&system, "\n- Programming experience: %s", orUnknown(profile.ProgrammingExperience))
		fmt.Fprintf(&system, "\n- Robotics experience: %s", orUnknown(profile.RoboticsExperience))
		if len(profile.PreferredLanguages) > 0 {
			fmt.Fprintf(&system, "\n- Preferred languages: %s", strings.Join(profile.PreferredLanguages, ", "))
		}
		system.WriteString("\nTailor the depth and examples of your explanation to this background.")
	}

	messages := make([]PromptMessage, 0, len(history)+1)
	for _, turn := range history {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, PromptMessage{Role: role, Text: turn.Text})
	}

	var user strings.Builder
	if len(chunks) > 0 {
		user.WriteString("Relevant context from the textbook:\n\n")
		for i, chunk := range chunks {
			fmt.Fprintf(&user, "--- Source %d: %s (Relevance: %.2f) ---\n%s\n\n",
				i+1, chunk.SourceFile, chunk.Score, chunk.Text)
		}
	}
	if selectedText != "" {
		fmt.Fprintf(&user, "The student selected this text on the page (prioritize it):\n%s\n\n", selectedText)
	}
	fmt.Fprintf(&user, "Student question: %s", message)

	messages = append(messages, PromptMessage{Role: "user", Text: user.String()})
	return PromptSpec{System: system.String(), Messages: messages}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
