package explorersdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// Upload is an image to attach to an app.
type Upload struct {
	AppID       string
	Filename    string
	ContentType string
	Body        io.Reader
	Caption     string
}

// UploadIcon sets or replaces an app's icon.
func (s *Session) UploadIcon(ctx context.Context, up Upload) (*UploadResult, error) {
	return s.upload(ctx, "/api/upload/icon", up)
}

// UploadScreenshot adds a screenshot to an app.
func (s *Session) UploadScreenshot(ctx context.Context, up Upload) (*UploadResult, error) {
	return s.upload(ctx, "/api/upload/screenshot", up)
}

// DeleteMedia removes an icon or screenshot.
func (s *Session) DeleteMedia(ctx context.Context, id string) error {
	return s.doJSON(ctx, http.MethodDelete, "/api/upload/"+url.PathEscape(id), nil, nil, http.StatusOK)
}

func (s *Session) upload(ctx context.Context, path string, up Upload) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("app_id", up.AppID); err != nil {
		return nil, err
	}
	if up.Caption != "" {
		if err := mw.WriteField("caption", up.Caption); err != nil {
			return nil, err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.Filename))
	h.Set("Content-Type", up.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := s.client.doRequest(ctx, http.MethodPost, path, &buf, map[string]string{
		"Content-Type":  mw.FormDataContentType(),
		"Authorization": "Bearer " + s.Token(),
	})
	if err != nil {
		return nil, err
	}

	var res UploadResult
	if err := decodeJSON(resp, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}
