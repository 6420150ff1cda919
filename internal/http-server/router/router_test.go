package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"euphro-assets/internal/http-server/handler/document"
	"euphro-assets/internal/http-server/handler/image"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/zlog"
)

func TestSetupRouter(t *testing.T) {
	zlog.Init()
	h := &Handler{
		ImageHandler:    image.NewImageHandler(nil, nil, nil, nil, &zlog.Logger),
		DocumentHandler: document.NewDocumentHandler(nil, 0, &zlog.Logger),
	}
	r := SetupRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/images/markers", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
