package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// noMatchSentinel is what the model answers when nothing fits.
const noMatchSentinel = "NO_JOBS"

const defaultMaxMatches = 10

const jobMatchPrompt = `
You are an expert recruiting assistant. A job seeker describes what they are looking for, and you pick the best matching job listings from the list below.

### INSTRUCTIONS:
1. **Read** the job seeker's request carefully.
2. **Compare** it against every listing: title, company, location, salary, experience level, work arrangement, skills and employment types.
3. **Select** at most %d listings, best match first.
4. **Answer** with the listing ids only, separated by commas, nothing else. Do not wrap the output in markdown code blocks.
5. If no listing fits, answer exactly %s.

### JOB SEEKER REQUEST:
%s

### LISTINGS (JSON):
%s
`

type MatcherService struct {
	LLM *LLMService
	Log *zap.Logger
}

func NewMatcherService(llm *LLMService, log *zap.Logger) *MatcherService {
	return &MatcherService{LLM: llm, Log: log}
}

// Match asks the model which candidates fit prompt and returns their ids in
// the model's order. Only ids present in candidates are kept.
func (s *MatcherService) Match(ctx context.Context, prompt string, candidates []ListingSummary, maxResults int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "MatcherService.Match")
	defer span.End()

	if maxResults < 1 {
		maxResults = defaultMaxMatches
	}
	if len(candidates) == 0 || strings.TrimSpace(prompt) == "" {
		return []string{}, nil
	}

	listings, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("encoding candidates: %w", err)
	}

	resp, err := s.LLM.Complete(ctx, fmt.Sprintf(jobMatchPrompt, maxResults, noMatchSentinel, prompt, listings))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	ids := parseMatchedIDs(resp, candidates, maxResults)
	s.Log.Info("ai match finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(ids)))
	return ids, nil
}

func parseMatchedIDs(resp string, candidates []ListingSummary, maxResults int) []string {
	out := []string{}
	resp = strings.TrimSpace(resp)
	if resp == "" || strings.Contains(resp, noMatchSentinel) {
		return out
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	seen := map[string]bool{}
	for _, part := range strings.FieldsFunc(resp, func(r rune) bool { return r == ',' || r == '\n' }) {
		id := strings.Trim(strings.TrimSpace(part), "\"'`[] ")
		if id == "" || seen[id] || !known[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == maxResults {
			break
		}
	}
	return out
}
