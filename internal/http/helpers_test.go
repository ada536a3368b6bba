package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mediamanager/internal/audit"
	"github.com/mrlokans/mediamanager/internal/database"
	auditrepo "github.com/mrlokans/mediamanager/internal/database/audit"
	mediarepo "github.com/mrlokans/mediamanager/internal/database/media"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/services"
)

type apiFixture struct {
	db      *database.Database
	root    string
	service *services.MediaService
	auditor *audit.Service
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))

	auditor := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(func() {
		auditor.Wait()
		db.Close()
	})

	service := services.NewMediaService(
		mediarepo.NewRepository(db.DB),
		media.NewHelper(media.DefaultOptions()),
		services.MediaConfig{
			Root:        root,
			Directories: []string{"images", "docs"},
			Sizes:       []string{"40x30"},
			BestQuality: true,
		},
		nil,
		auditor,
	)

	return &apiFixture{db: db, root: root, service: service, auditor: auditor}
}

func (fx *apiFixture) router(cfg RouterConfig) *gin.Engine {
	cfg.MediaService = fx.service
	cfg.Database = fx.db
	cfg.Auditor = fx.auditor
	cfg.MediaRoot = fx.root
	cfg.MediaBaseURL = "/media"
	return NewRouter(cfg)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 3), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, name string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func doRequest(router http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	return doRequest(router, method, path, reader, h)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
