// Package extract talks to the document-extraction service that reads
// delivery notes (text layer first, OCR as fallback) and suggests reels.
// Its output is a suggestion only; every candidate goes through the normal
// create validation.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"papermill_reel_tracker/reel"
)

// ErrDisabled is returned when no extraction service is configured.
var ErrDisabled = errors.New("document extraction is not configured")

const maxResponse = 8 << 20

// Candidate is one reel the extractor believes it found.
type Candidate struct {
	ReelNo  string `json:"reelNo"`
	Weight  string `json:"weight"`
	GSM     string `json:"gsm"`
	Size    string `json:"size"`
	Mill    string `json:"mill"`
	Quality string `json:"quality"`
}

func (c Candidate) CreateInput() reel.CreateInput {
	return reel.CreateInput{
		ReelNo:  c.ReelNo,
		Size:    c.Size,
		GSM:     c.GSM,
		Quality: c.Quality,
		Mill:    c.Mill,
		Weight:  c.Weight,
	}
}

type Result struct {
	Candidates []Candidate `json:"reels"`
	Text       string      `json:"text"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. An empty baseURL gives a client
// whose Extract always fails with ErrDisabled.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// Extract uploads one PDF as the multipart field "pdf".
func (c *Client) Extract(ctx context.Context, filename string, pdf io.Reader) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract-reels", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("extract: HTTP %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("extract: HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if res.Candidates == nil {
		res.Candidates = []Candidate{}
	}
	return &res, nil
}
