package gemini

import (
	"context"
	"fmt"
	"net/http"

	"fusionserver/internal/domain"
	"fusionserver/internal/infrastructure/config"

	"google.golang.org/genai"
)

// FusionClient は、Gemini APIで画像合成を行うクライアントです
// APIキーはリクエストごとに受け取り、genai.Clientもその都度作成します
type FusionClient struct {
	config     *config.GeminiConfig
	baseURL    string
	httpClient *http.Client
}

// Option は、FusionClientの設定を変更します
type Option func(*FusionClient)

// WithBaseURL は、APIのベースURLを差し替えます
func WithBaseURL(baseURL string) Option {
	return func(c *FusionClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient は、通信に使用するHTTPクライアントを差し替えます
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *FusionClient) {
		c.httpClient = httpClient
	}
}

// NewFusionClient は新しいFusionClientインスタンスを作成します
func NewFusionClient(geminiConfig *config.GeminiConfig, opts ...Option) *FusionClient {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}
	c := &FusionClient{config: geminiConfig}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate は、2枚の画像と指示を1回のGenerateContent呼び出しで送信します
func (c *FusionClient) Generate(ctx context.Context, apiKey string, req *domain.FusionRequest) (*domain.GenerationReply, error) {
	client, err := c.newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(BuildParts(req), genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, c.config.ModelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Gemini APIからの応答取得に失敗: %w", err)
	}

	return ToReply(resp), nil
}

func (c *FusionClient) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}
	return client, nil
}

// BuildParts は、ベース画像、商品画像、指示の順に送信用のパーツを作成します
func BuildParts(req *domain.FusionRequest) []*genai.Part {
	return []*genai.Part{
		toInlinePart(req.BaseImage),
		toInlinePart(req.ProductImage),
		genai.NewPartFromText(req.Prompt()),
	}
}

// toInlinePart は、画像をインラインデータのパーツに変換します
// バイト列はSDKが送信時にbase64へエンコードします
func toInlinePart(asset *domain.ImageAsset) *genai.Part {
	return genai.NewPartFromBytes(asset.Data, asset.EffectiveMIMEType())
}

// ToReply は、最初の候補のパーツをドメインの応答に変換します
func ToReply(resp *genai.GenerateContentResponse) *domain.GenerationReply {
	reply := domain.NewGenerationReply()
	if resp == nil || len(resp.Candidates) == 0 {
		return reply
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return reply
	}

	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		switch {
		case part.InlineData != nil && len(part.InlineData.Data) > 0:
			reply.Parts = append(reply.Parts, domain.InlineDataPart{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			})
		case part.Text != "":
			reply.Parts = append(reply.Parts, domain.TextPart{Text: part.Text})
		}
	}
	return reply
}
