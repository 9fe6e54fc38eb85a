package api

import (
	"context"
	"io"

	"chat-client/internal/models"
)

// UploadFile streams a file to POST /upload and returns where the
// server stored it.
func (c *Client) UploadFile(ctx context.Context, filename string, file io.Reader) (models.UploadResult, error) {
	var result models.UploadResult
	err := c.t.PostMultipart(ctx, "/upload", nil, "file", filename, file, &result)
	if err != nil {
		return models.UploadResult{}, err
	}
	return result, nil
}
