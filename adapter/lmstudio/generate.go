package lmstudio

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pandaqa/pandaqa"
)

func (a *Adapter) Generate(ctx context.Context, query pandaqa.Query, chunks []pandaqa.Chunk) (string, error) {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, chunk := range chunks {
		if chunk.Metadata.Source != "" {
			fmt.Fprintf(&sb, "\n--- %s ---\n", chunk.Metadata.Source)
		}
		sb.WriteString(chunk.Text)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nQuestion: %s", query.Framed())

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: query.Role.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", wrapUnavailable(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	answer := CleanResponse(resp.Choices[0].Message.Content)

	a.logger.Debug("generated answer",
		zap.String("model", resp.Model),
		zap.Int("context_chunks", len(chunks)),
		zap.Int("answer_length", len(answer)),
	)

	return answer, nil
}

const (
	summarizeMaxChunks     = 10
	summarizeMaxChunkChars = 1000
	summarizeMaxChars      = 24000
)

const summarizePrompt = `Please generate a concise summary note based on the following document content, including:
1. Overall overview (1-2 sentences)
2. Main content (classified by theme)
3. Key points (list 3)

Document content:
`

func (a *Adapter) Summarize(ctx context.Context, chunks []pandaqa.Chunk) (string, error) {
	if len(chunks) > summarizeMaxChunks {
		chunks = chunks[:summarizeMaxChunks]
	}

	var sb strings.Builder
	sb.WriteString(summarizePrompt)
	for i, chunk := range chunks {
		text := chunk.Text
		if text == "" {
			continue
		}
		if len(text) > summarizeMaxChunkChars {
			text = text[:summarizeMaxChunkChars] + "...[content truncated]"
		}

		source := chunk.Metadata.Source
		if source == "" {
			source = fmt.Sprintf("Document %d", i+1)
		}

		if sb.Len()+len(text) > summarizeMaxChars {
			sb.WriteString("\n[some documents are not included due to length limit]")
			break
		}

		fmt.Fprintf(&sb, "\n\n--- %s ---\n%s\n", source, text)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0.7,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", wrapUnavailable(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return CleanResponse(resp.Choices[0].Message.Content), nil
}

var reasoningTags = []string{
	"</think>", "<think>", "</thinking>", "<thinking>",
	"</response>", "<response>", "</answer>", "<answer>",
	"<assistant>", "</assistant>",
}

var thinkingPatterns = []string{
	"I'm trying to figure out", "First, looking at", "let me think",
	"Okay, so for", "I need to", "I should", "Let me", "I'll",
	"The user wants", "Alright, so", "Now I'll", "Let's",
}

var formatMarkers = []string{"**Summary", "# Summary", "Summary:", "Here's the summary"}

// CleanResponse strips reasoning-model chatter from a completion. Local
// models often leak their thinking process before the actual answer.
func CleanResponse(text string) string {
	// A recognizable formatted answer wins over everything before it.
	for _, marker := range formatMarkers {
		if idx := strings.Index(text, marker); idx >= 0 {
			return strings.TrimSpace(text[idx:])
		}
	}

	// Visible thinking with no format marker: keep the trailing paragraphs,
	// which usually hold the conclusion.
	for _, pattern := range thinkingPatterns {
		if strings.Contains(text, pattern) {
			paragraphs := strings.Split(text, "\n\n")
			if len(paragraphs) > 1 {
				return strings.TrimSpace(strings.Join(paragraphs[len(paragraphs)-2:], "\n\n"))
			}
			break
		}
	}

	cleaned := text
	for _, tag := range reasoningTags {
		cleaned = strings.ReplaceAll(cleaned, tag, "")
	}

	lines := strings.Split(cleaned, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "thinking:") ||
			strings.Contains(lower, "thought:") ||
			strings.Contains(lower, "i'm thinking") ||
			strings.Contains(lower, "let me think") {
			continue
		}
		filtered = append(filtered, line)
	}

	return strings.TrimSpace(strings.Join(filtered, "\n"))
}
