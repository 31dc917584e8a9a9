package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/username/insightfactory/backend/src/config"
	"github.com/username/insightfactory/backend/src/logger"
	"github.com/username/insightfactory/backend/src/models"
	"golang.org/x/oauth2"
)

const (
	summaryMaxTokens   = 250
	summaryTemperature = 0.7
	summarySystemRole  = "You are a senior sales analyst at the Oreo company. You write clear, professional and actionable executive summaries."
)

// Request/response shapes for the GitHub Models chat completions API.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type summaryServiceImpl struct {
	httpClient *http.Client
	modelsURL  string
	apiToken   string
	modelID    string
	timeout    time.Duration
}

// NewSummaryService builds the summary generator. The token is injected via an
// oauth2 static token source so every request carries the bearer header, and
// the timeout bounds each external call explicitly rather than relying on
// client defaults.
func NewSummaryService(modelsURL, apiToken, modelID string, timeout time.Duration) SummaryService {
	var client *http.Client
	if tokenConfigured(apiToken) {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken})
		client = oauth2.NewClient(context.Background(), ts)
	} else {
		client = &http.Client{}
	}
	client.Timeout = timeout

	return &summaryServiceImpl{
		httpClient: client,
		modelsURL:  modelsURL,
		apiToken:   apiToken,
		modelID:    modelID,
		timeout:    timeout,
	}
}

func tokenConfigured(token string) bool {
	return token != "" && token != config.DefaultGitHubToken
}

// GenerateSummary returns a narrative for the aggregates. It never fails:
// transport and parse problems are logged and replaced by the templated
// fallback, and the fallback is also the fast path when no token is configured.
func (s *summaryServiceImpl) GenerateSummary(ctx context.Context, agg models.SalesAggregates) models.GeneratedSummary {
	if !tokenConfigured(s.apiToken) {
		logger.L.Debug("AI token not configured, using templated summary")
		return models.GeneratedSummary{Text: templatedSummary(agg), Source: models.SummarySourceTemplate}
	}

	text, err := s.requestSummary(ctx, agg)
	if err != nil {
		logger.L.Warn("AI summary generation failed, using templated fallback", "error", err)
		return models.GeneratedSummary{Text: templatedSummary(agg), Source: models.SummarySourceTemplate}
	}

	logger.L.Info("AI summary generated successfully")
	return models.GeneratedSummary{Text: text, Source: models.SummarySourceAI}
}

func (s *summaryServiceImpl) requestSummary(ctx context.Context, agg models.SalesAggregates) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"As an Oreo sales analyst, write an executive summary of at most 120 words "+
			"based on this data: we sold %d units, generated $%.2f in revenue, "+
			"the best selling product was %s and the leading branch was %s. "+
			"Be professional and concise for an executive email.",
		agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
	)

	reqBody := chatCompletionRequest{
		Model: s.modelID,
		Messages: []chatMessage{
			{Role: "system", Content: summarySystemRole},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.modelsURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.L.Info("Requesting AI summary", "model", s.modelID)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("completion response content is empty")
	}
	return content, nil
}

// templatedSummary builds the deterministic fallback narrative by direct
// interpolation of the four statistics fields.
func templatedSummary(agg models.SalesAggregates) string {
	return fmt.Sprintf(
		"EXECUTIVE SALES SUMMARY\n\n"+
			"This period we reached solid results with %d units sold and a total revenue of $%.2f. "+
			"The star product was %s, confirming its popularity with our customers. "+
			"The %s branch stood out as the top performer, leading overall sales. "+
			"These numbers reflect strong commercial performance and good market acceptance of our products.",
		agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
	)
}
