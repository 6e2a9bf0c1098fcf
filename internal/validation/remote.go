package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"procurement/models"
)

const (
	itemsPrompt      = "You are an AI assistant that validates procurement bid items for quality and completeness."
	submissionPrompt = "You are an AI assistant that validates vendor responses to procurement bids for pricing and lead time plausibility."
)

var concernWords = []string{"issue", "error", "concern"}

// Remote asks a chat-completions endpoint to review content.
type Remote struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewRemote(url, apiKey, model string, timeout time.Duration) *Remote {
	return &Remote{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (r *Remote) ValidateItems(ctx context.Context, items []models.BidItem) (Result, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return Result{}, err
	}
	return r.review(ctx, itemsPrompt, "Please validate the following bid items and identify any potential issues: "+string(payload))
}

func (r *Remote) ValidateSubmission(ctx context.Context, sub *models.Submission) (Result, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return Result{}, err
	}
	return r.review(ctx, submissionPrompt, "Please validate the following vendor submission and identify any potential issues: "+string(payload))
}

func (r *Remote) review(ctx context.Context, system, user string) (Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("remote validation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("remote validation: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("remote validation: decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return Valid(), nil
	}

	reply := out.Choices[0].Message.Content
	lower := strings.ToLower(reply)
	for _, w := range concernWords {
		if strings.Contains(lower, w) {
			return Invalid(reply), nil
		}
	}
	return Valid(), nil
}
