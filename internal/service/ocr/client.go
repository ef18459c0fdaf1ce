// Package ocr talks to the text recognition service over HTTP.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	URL     string        `conf:"default:http://localhost:8022/readtext"`
	Timeout time.Duration `conf:"default:15s"`
}

type response struct {
	Texts   []string `json:"texts"`
	Message string   `json:"message"`
}

type Client struct {
	url  string
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// RecognizeText posts img as PNG and returns the longest text found, or
// "" when the service finds none.
func (c *Client) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return "", errors.Wrap(err, "encoding image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling recognizer")
	}
	defer resp.Body.Close()

	resByte, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading recognizer response")
	}

	res := response{}
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(resByte, &res)
		return "", errors.Errorf("status code: %d and message: %s", resp.StatusCode, res.Message)
	}
	if err := json.Unmarshal(resByte, &res); err != nil {
		return "", errors.Wrap(err, "decoding recognizer response")
	}

	return Longest(res.Texts), nil
}

// Longest returns the longest of texts; the first wins a tie.
func Longest(texts []string) string {
	var best string
	for _, t := range texts {
		if len(t) > len(best) {
			best = t
		}
	}
	return best
}
