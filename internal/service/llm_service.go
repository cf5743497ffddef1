package service

import (
	"context"
	"fmt"
	"strings"

	"expense-ingest/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// GigaChatClassifier asks a GigaChat model to pick one of a fixed set of
// category names for a transaction description.
type GigaChatClassifier struct {
	client     *gigago.Client
	model      *gigago.GenerativeModel
	categories []string
	policy     callPolicy
	logger     *zap.Logger
}

func buildSystemInstruction(categories []string) string {
	return fmt.Sprintf(`You categorize bank statement transactions of a Brazilian household.
Answer with exactly one category name from this list and nothing else:
%s

If none fits, answer "Outros".`, "- "+strings.Join(categories, "\n- "))
}

func NewGigaChatClassifier(ctx context.Context, cfg *config.GigaChatConfig, ml *config.MLConfig, categories []string, logger *zap.Logger) (*GigaChatClassifier, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "GigaChat"
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = buildSystemInstruction(categories)
	model.Temperature = 0.1

	logger.Info("Using GigaChat classifier",
		zap.String("model", modelName),
		zap.Int("categories", len(categories)),
	)

	return &GigaChatClassifier{
		client:     client,
		model:      model,
		categories: categories,
		policy:     newCallPolicy(ml.Timeout, ml.RetryBackoff),
		logger:     logger,
	}, nil
}

func (g *GigaChatClassifier) Classify(ctx context.Context, text string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: "Transaction: " + text},
	}

	var content string
	err := g.policy.do(ctx, func(ctx context.Context) error {
		resp, err := g.model.Generate(ctx, messages)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no response from model")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: gigachat: %w", ErrExternalService, err)
	}

	label := g.pick(content)
	if label == "" {
		return "", fmt.Errorf("%w: gigachat: unusable answer %q", ErrExternalService, content)
	}
	return label, nil
}

// pick maps a free-form answer onto one of the known categories.
func (g *GigaChatClassifier) pick(content string) string {
	answer := strings.Trim(strings.TrimSpace(content), "\"'`.")
	if answer == "" {
		return ""
	}
	for _, c := range g.categories {
		if strings.EqualFold(answer, c) {
			return c
		}
	}
	lower := strings.ToLower(answer)
	for _, c := range g.categories {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	if strings.ContainsAny(answer, "\n") || len(answer) > 40 {
		return ""
	}
	return answer
}

func (g *GigaChatClassifier) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}
