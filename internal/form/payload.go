package form

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/validation"
)

// ImageURLField carries the URL of an eagerly uploaded image instead of
// the file itself
const ImageURLField = "profile_image_url"

// PayloadField is one scalar form value
type PayloadField struct {
	Name  models.Field
	Value string
}

// Payload is the composed create/update request
type Payload struct {
	Mode   validation.Mode
	UserID int64
	Fields []PayloadField
	Image  *models.Attachment
}

// ComposePayload builds the request for the fields of sections. Values are
// trimmed except credentials; in edit mode empty credentials are left out.
func ComposePayload(d *models.UserDraft, mode validation.Mode, userID int64, sections []Section) *Payload {
	p := &Payload{Mode: mode, UserID: userID}
	for _, f := range scalarFields(sections) {
		v := d.Value(f)
		if models.WriteOnlyFields[f] {
			if mode == validation.ModeEdit && d.Password == "" && d.PasswordConfirmation == "" {
				continue
			}
		} else {
			v = strings.TrimSpace(v)
		}
		p.Fields = append(p.Fields, PayloadField{Name: f, Value: v})
	}
	if d.ProfileImage != nil {
		img := *d.ProfileImage
		p.Image = &img
	}
	return p
}

// Get returns the value sent for f
func (p *Payload) Get(f models.Field) (string, bool) {
	for _, pf := range p.Fields {
		if pf.Name == f {
			return pf.Value, true
		}
	}
	return "", false
}

// Values returns the scalar fields as a map
func (p *Payload) Values() map[string]string {
	out := make(map[string]string, len(p.Fields)+1)
	for _, pf := range p.Fields {
		out[string(pf.Name)] = pf.Value
	}
	if p.Image != nil && p.Image.URL != "" {
		out[ImageURLField] = p.Image.URL
	}
	return out
}

// WriteMultipart writes every field, then the image, to mw. The writer is
// not closed.
func (p *Payload) WriteMultipart(mw *multipart.Writer) error {
	for _, pf := range p.Fields {
		if err := mw.WriteField(string(pf.Name), pf.Value); err != nil {
			return fmt.Errorf("write field %s: %w", pf.Name, err)
		}
	}
	if p.Image == nil {
		return nil
	}
	if p.Image.URL != "" {
		return mw.WriteField(ImageURLField, p.Image.URL)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		models.FieldProfileImage, escapeQuotes(p.Image.Name)))
	ct := p.Image.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(p.Image.Data)); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Encode renders the payload as a multipart body and returns its content type
func (p *Payload) Encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := p.WriteMultipart(mw); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
