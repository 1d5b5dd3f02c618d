package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	extractMaxTokens       = 300
	sameEventMaxTokens     = 50
	duplicateMaxTokens     = 10
	contradictionMaxTokens = 150
	deltaMaxTokens         = 150
)

// Oracle implements domain.Oracle over any Completer. Every call is a
// read, so every call goes through the retry policy.
type Oracle struct {
	client Completer
	retry  RetryPolicy
	logger *zap.Logger
}

var _ domain.Oracle = (*Oracle)(nil)

func NewOracle(client Completer, retry RetryPolicy, logger *zap.Logger) *Oracle {
	return &Oracle{client: client, retry: retry, logger: logger}
}

func (o *Oracle) ask(ctx context.Context, op, prompt string, maxTokens int) (string, error) {
	var answer string
	err := o.retry.Do(ctx, o.logger.With(zap.String("provider", o.client.Name())), op, func(ctx context.Context) error {
		out, err := o.client.Complete(ctx, prompt, maxTokens)
		if err != nil {
			return err
		}
		answer = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return answer, nil
}

func numbered(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (o *Oracle) Extract(ctx context.Context, headline string) (domain.ExtractedFact, error) {
	answer, err := o.ask(ctx, "extract", fmt.Sprintf(extractionPrompt, headline), extractMaxTokens)
	if err != nil {
		return domain.ExtractedFact{Fact: domain.SkipFact, Provenance: domain.ProvenanceDefault}, err
	}
	fact := ParseExtraction(answer)
	if fact.Provenance != domain.ProvenanceStrict {
		o.logger.Debug("extraction parsed leniently", zap.String("provenance", string(fact.Provenance)))
	}
	return fact, nil
}

func (o *Oracle) SameEvent(ctx context.Context, fact string, candidates []string) ([]int, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	answer, err := o.ask(ctx, "same_event", fmt.Sprintf(sameEventPrompt, fact, numbered(candidates)), sameEventMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseIndexList(answer, len(candidates)), nil
}

func (o *Oracle) IsSameEvent(ctx context.Context, fact string, published []string) (bool, error) {
	if len(published) == 0 {
		return false, nil
	}
	answer, err := o.ask(ctx, "is_same_event", fmt.Sprintf(duplicatePrompt, fact, numbered(published)), duplicateMaxTokens)
	if err != nil {
		return false, err
	}
	return ParseYesNo(answer), nil
}

func (o *Oracle) Contradicts(ctx context.Context, fact string, others []string) (domain.Contradiction, error) {
	if len(others) == 0 {
		return domain.Contradiction{Index: -1, Provenance: domain.ProvenanceDefault}, nil
	}
	answer, err := o.ask(ctx, "contradicts", fmt.Sprintf(contradictionPrompt, fact, numbered(others)), contradictionMaxTokens)
	if err != nil {
		return domain.Contradiction{Index: -1, Provenance: domain.ProvenanceDefault}, err
	}
	return ParseContradiction(answer, len(others)), nil
}

func (o *Oracle) ExtractDelta(ctx context.Context, newFact, existingFact string) (string, bool, error) {
	answer, err := o.ask(ctx, "extract_delta", fmt.Sprintf(deltaPrompt, existingFact, newFact), deltaMaxTokens)
	if err != nil {
		return "", false, err
	}
	delta, ok, _ := ParseDelta(answer)
	return delta, ok, nil
}
