package ai

import "context"

// ChatGenerator turns a system instruction and a user prompt into one
// completion using a fixed chat configuration.
type ChatGenerator struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewChatGenerator(client *OpenAICompatibleClient, cfg ChatConfig) *ChatGenerator {
	return &ChatGenerator{client: client, cfg: cfg}
}

func (g *ChatGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	return g.client.Complete(ctx, g.cfg, []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
}
