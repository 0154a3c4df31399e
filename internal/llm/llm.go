package llm

import (
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/guruchat/internal/config"
)

// ProviderAzure selects an Azure OpenAI deployment; the model name is the
// deployment name.
const ProviderAzure = "azure"

// NewClient creates an OpenAI-compatible client. For Azure, BaseURL is the
// resource endpoint; otherwise an empty BaseURL keeps the OpenAI default.
func NewClient(cfg config.LLMConfig) *openai.Client {
	if strings.EqualFold(cfg.Provider, ProviderAzure) {
		return openai.NewClientWithConfig(openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL))
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}
