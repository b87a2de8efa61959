package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
)

const wordSystemPrompt = `Ти допомагаєш дітям вчитися читати українською.
Відповідай лише одним JSON об'єктом з полями cleanWord, syllables та imagePrompt, без пояснень і без markdown.`

// WordGenerator proposes practice phrases with an eino chat chain.
type WordGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewWordGenerator compiles the prompt and chat model into a chain.
func NewWordGenerator(ctx context.Context, chatModel model.BaseChatModel) (*WordGenerator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(wordSystemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile word chain: %w", err)
	}

	return &WordGenerator{chain: runnable}, nil
}

// GenerateWord asks the model for a phrase not in excluded.
func (g *WordGenerator) GenerateWord(ctx context.Context, excluded []string) (word.Wire, error) {
	msg, err := g.chain.Invoke(ctx, map[string]any{
		"query": content.WordPrompt(excluded),
	})
	if err != nil {
		return word.Wire{}, fmt.Errorf("failed to run word chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return word.Wire{}, fmt.Errorf("word chain returned no content")
	}

	w, err := parseWordOutput(msg.Content)
	if err != nil {
		return word.Wire{}, err
	}
	log.Printf("[ai] generated word %q", w.CleanWord)
	return w, nil
}

// parseWordOutput extracts the JSON object from the model answer.
func parseWordOutput(content string) (word.Wire, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return word.Wire{}, fmt.Errorf("missing json object")
	}

	var w word.Wire
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &w); err != nil {
		return word.Wire{}, fmt.Errorf("decode word json: %w", err)
	}

	w.CleanWord = strings.TrimSpace(w.CleanWord)
	w.Syllables = strings.TrimSpace(w.Syllables)
	w.ImagePrompt = strings.TrimSpace(w.ImagePrompt)
	return w, w.Validate()
}
