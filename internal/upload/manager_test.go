package upload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngFile(name string) *models.Attachment {
	return &models.Attachment{Name: name, ContentType: "application/octet-stream", Data: append([]byte(nil), pngHeader...)}
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   int
	block   chan struct{}
	err     error
	started chan struct{}
}

func (f *fakeUploader) UploadProfileImage(ctx context.Context, a *models.Attachment, progress func(int)) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	progress(10)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	progress(50)
	progress(100)
	return "/uploads/" + a.Name, nil
}

func TestSelectFile_ReplacingRevokesPreviousPreview(t *testing.T) {
	previews := NewMemoryPreviews()
	m := NewManager(DefaultLimits(), previews, nil, zerolog.Nop())

	require.NoError(t, m.SelectFile(pngFile("a.png")))
	u1 := m.State().PreviewURL
	assert.Equal(t, 1, previews.Live())

	require.NoError(t, m.SelectFile(pngFile("b.png")))
	u2 := m.State().PreviewURL

	assert.NotEqual(t, u1, u2)
	_, live := previews.Lookup(u1)
	assert.False(t, live, "u1 must be revoked")
	_, live = previews.Lookup(u2)
	assert.True(t, live)
	assert.Equal(t, 1, previews.Live())
	assert.Equal(t, "b.png", m.State().File.Name)
}

func TestSelectFile_RepeatedCyclesDoNotLeak(t *testing.T) {
	previews := NewMemoryPreviews()
	m := NewManager(DefaultLimits(), previews, nil, zerolog.Nop())

	for i := 0; i < 10; i++ {
		require.NoError(t, m.SelectFile(pngFile("a.png")))
		assert.LessOrEqual(t, previews.Live(), 1)
		m.RemoveFile()
		assert.Equal(t, 0, previews.Live())
	}
}

func TestSelectFile_RejectionKeepsSelection(t *testing.T) {
	tests := []struct {
		name    string
		file    *models.Attachment
		wantErr error
		message string
	}{
		{
			name:    "too large",
			file:    &models.Attachment{Name: "big.png", Data: append(append([]byte(nil), pngHeader...), make([]byte, 6<<20)...)},
			wantErr: ErrFileTooLarge,
			message: "File size must be less than 5MB",
		},
		{
			name:    "wrong type",
			file:    &models.Attachment{Name: "notes.txt", ContentType: "image/png", Data: []byte("just some text")},
			wantErr: ErrUnsupportedType,
			message: "Only JPEG, PNG, GIF and WebP images are allowed",
		},
		{
			name:    "empty",
			file:    &models.Attachment{Name: "empty.png"},
			wantErr: ErrEmptyFile,
			message: "File is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previews := NewMemoryPreviews()
			m := NewManager(DefaultLimits(), previews, nil, zerolog.Nop())
			require.NoError(t, m.SelectFile(pngFile("keep.png")))
			before := m.State().PreviewURL

			err := m.SelectFile(tt.file)
			assert.ErrorIs(t, err, tt.wantErr)

			st := m.State()
			assert.Equal(t, tt.message, st.Error)
			require.NotNil(t, st.File)
			assert.Equal(t, "keep.png", st.File.Name)
			assert.Equal(t, before, st.PreviewURL)
			assert.Equal(t, 1, previews.Live())
		})
	}
}

func TestSelectFile_SniffsContentType(t *testing.T) {
	m := NewManager(DefaultLimits(), nil, nil, zerolog.Nop())
	require.NoError(t, m.SelectFile(pngFile("a.png")))
	assert.Equal(t, "image/png", m.State().File.ContentType)
	assert.EqualValues(t, len(pngHeader), m.State().File.Size)
}

func TestUpload_ProgressAndURL(t *testing.T) {
	up := &fakeUploader{}
	m := NewManager(DefaultLimits(), nil, up, zerolog.Nop())
	require.NoError(t, m.SelectFile(pngFile("a.png")))

	res, err := m.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", res.URL)

	st := m.State()
	assert.Equal(t, 100, st.Progress)
	assert.False(t, st.Uploading)
	assert.Equal(t, "/uploads/a.png", st.File.URL)
}

func TestUpload_ServerMessageSurfaces(t *testing.T) {
	up := &fakeUploader{err: &models.APIError{Status: 413, Message: "Image too large for storage"}}
	m := NewManager(DefaultLimits(), nil, up, zerolog.Nop())
	require.NoError(t, m.SelectFile(pngFile("a.png")))

	_, err := m.Upload(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Image too large for storage", m.State().Error)

	up.err = errors.New("connection reset")
	_, err = m.Upload(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Upload failed", m.State().Error)
}

func TestRemoveFile_CancelsInFlightUpload(t *testing.T) {
	up := &fakeUploader{block: make(chan struct{}), started: make(chan struct{}, 1)}
	previews := NewMemoryPreviews()
	m := NewManager(DefaultLimits(), previews, up, zerolog.Nop())
	require.NoError(t, m.SelectFile(pngFile("a.png")))

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Upload(context.Background())
		errCh <- err
	}()
	<-up.started
	assert.True(t, m.State().Uploading)
	assert.Equal(t, 10, m.State().Progress)

	m.RemoveFile()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCanceled)
	case <-time.After(time.Second):
		t.Fatal("upload was not cancelled")
	}
	st := m.State()
	assert.Nil(t, st.File)
	assert.False(t, st.Uploading)
	assert.Equal(t, 0, previews.Live())
}

func TestSelectFile_DuringUploadSupersedesIt(t *testing.T) {
	up := &fakeUploader{block: make(chan struct{}), started: make(chan struct{}, 1)}
	previews := NewMemoryPreviews()
	m := NewManager(DefaultLimits(), previews, up, zerolog.Nop())
	require.NoError(t, m.SelectFile(pngFile("a.png")))

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Upload(context.Background())
		errCh <- err
	}()
	<-up.started

	require.NoError(t, m.SelectFile(pngFile("b.png")))
	assert.ErrorIs(t, <-errCh, ErrCanceled)

	st := m.State()
	assert.Equal(t, "b.png", st.File.Name)
	assert.Empty(t, st.URL)
	assert.Equal(t, 1, previews.Live())
}

func TestUpload_NoFile(t *testing.T) {
	m := NewManager(DefaultLimits(), nil, &fakeUploader{}, zerolog.Nop())
	_, err := m.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestTypeList(t *testing.T) {
	assert.Equal(t, "PNG", typeList([]string{"image/png"}))
	assert.Equal(t, "JPEG and PNG", typeList([]string{"image/jpeg", "image/png"}))
}
