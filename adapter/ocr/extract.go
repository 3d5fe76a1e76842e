package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pandaqa/pandaqa"
)

type result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (a *Adapter) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]pandaqa.Chunk, error) {
	results, err := a.recognize(ctx, fileName, contents)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(results))
	for _, res := range results {
		text := strings.TrimSpace(res.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}

	extracted := strings.Join(texts, " ")
	if extracted == "" {
		a.logger.Sugar().With("file", fileName).Warn("no meaningful text extracted from image")
		return nil, nil
	}

	a.logger.Sugar().With(
		"file", fileName,
		"length", len(extracted),
	).Info("extracted text from image")

	return []pandaqa.Chunk{
		{
			Text: extracted,
			Metadata: pandaqa.Metadata{
				Type:       "image",
				ChunkID:    0,
				ChunkCount: 1,
			},
		},
	}, nil
}

func (a *Adapter) recognize(ctx context.Context, fileName string, contents io.ReadSeeker) ([]result, error) {
	buf := new(bytes.Buffer)
	writer := multipart.NewWriter(buf)
	defer writer.Close()

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, err
	}

	if err := writer.WriteField("languages", strings.Join(a.languages, ",")); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, errors.New(string(respData))
	}

	results := []result{}
	if err := json.Unmarshal(respData, &results); err != nil {
		return nil, err
	}

	return results, nil
}
