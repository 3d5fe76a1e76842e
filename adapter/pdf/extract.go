package pdf

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

type item struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageNumber int     `json:"page_number"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Text       string  `json:"text"`
	Type       string  `json:"type"`
}

//	curl -X POST \
//	  -F 'file=@statement.pdf' \
//	  -F 'fast=true' \
//	  -F 'types=all' \
//	  http://localhost:5060
func (a *Adapter) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]pandaqa.Chunk, error) {
	items, err := a.extractItems(ctx, fileName, contents)
	if err != nil {
		return nil, err
	}

	chunks := make([]pandaqa.Chunk, 0, 100)

	for _, anItem := range items {
		if anItem.Type != "Text" && anItem.Type != "Footnote" && anItem.Type != "List item" {
			continue
		}

		for _, aSentence := range a.tokenizer.Tokenize(anItem.Text) {
			text := strings.TrimSpace(aSentence.Text)
			if text == "" {
				continue
			}
			chunks = append(chunks, pandaqa.Chunk{
				Text: text,
				Metadata: pandaqa.Metadata{
					Type: "pdf",
					Page: anItem.PageNumber,
				},
			})
		}
	}

	if _, err := contents.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	tables, err := a.extractHTMLTables(ctx, fileName, contents)
	if err != nil {
		// Tables are best effort, the layout service may not support the
		// html endpoint.
		a.logger.Sugar().With("error", err).Warn("failed to extract tables")
	}
	for _, aTable := range tables {
		for _, context := range aTable.ToContexts() {
			chunks = append(chunks, pandaqa.Chunk{
				Text: context,
				Metadata: pandaqa.Metadata{
					Type: "table",
				},
			})
		}
	}

	for i := range chunks {
		chunks[i].Metadata.ChunkID = i
		chunks[i].Metadata.ChunkCount = len(chunks)
	}

	a.logger.Sugar().Infof("number of chunks: %d", len(chunks))

	return chunks, nil
}

func (a *Adapter) extractItems(ctx context.Context, fileName string, contents io.ReadSeeker) ([]item, error) {
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

	if err := writer.WriteField("fast", "true"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("types", "text,footnote,list item"); err != nil {
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

	items := []item{}
	if err := json.Unmarshal(respData, &items); err != nil {
		return nil, err
	}

	return items, nil
}

func (a *Adapter) extractHTMLTables(ctx context.Context, fileName string, contents io.ReadSeeker) ([]Table, error) {
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

	if err := writer.WriteField("fast", "true"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("types", "table"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/html", buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respData, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return nil, errors.New(string(respData))
	}

	return parseTables(a.logger, resp.Body)
}
