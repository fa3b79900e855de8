package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

// UploadProfileImage streams the image as multipart form data and reports
// progress as the body is consumed. Progress stops at 99; the caller marks
// completion once the URL is known.
func (c *Client) UploadProfileImage(ctx context.Context, a *models.Attachment, progress func(int)) (string, error) {
	body, contentType, err := imageBody(a)
	if err != nil {
		return "", err
	}

	total := int64(body.Len())
	reader := &progressReader{r: body, total: total, report: progress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathUpload, reader)
	if err != nil {
		return "", err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	var res struct {
		URL string `json:"url"`
	}
	if err := c.do(req, &res); err != nil {
		return "", err
	}
	if res.URL == "" {
		return "", fmt.Errorf("upload: response has no url")
	}
	return res.URL, nil
}

func imageBody(a *models.Attachment) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(a.Name)))
	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(a.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type progressReader struct {
	r      io.Reader
	total  int64
	report func(int)

	mu   sync.Mutex
	read int64
	last int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.report != nil && p.total > 0 {
		p.mu.Lock()
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		changed := pct > p.last
		if changed {
			p.last = pct
		}
		p.mu.Unlock()
		if changed {
			p.report(pct)
		}
	}
	return n, err
}
