package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/genrelay/api/internal/generator"
	"github.com/genrelay/api/internal/middleware"
	"github.com/genrelay/api/internal/models"
	"github.com/genrelay/api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const internalErrorBody = `{"error":"Internal Server Error"}`

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, p *stubProvider, logger *zap.Logger) *gin.Engine {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	gen, err := generator.New(p, logger)
	require.NoError(t, err)

	h := NewGenerationHandler(gen, logger)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.BodyLimit(1<<10))
	r.POST("/api/generateContent", h.GenerateContent)
	r.POST("/api/generateImage", h.GenerateImage)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func upper(_ context.Context, _ models.Profile, parts []models.Part) (string, error) {
	return strings.ToUpper(parts[0].Text), nil
}

func TestGenerateContent_Success(t *testing.T) {
	p := &stubProvider{generateFunc: upper}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateContent", `{"prompt":"hello"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"HELLO"}`, w.Body.String())
	assert.Equal(t, models.ProfileText, p.profile.Name)
	require.Len(t, p.parts, 1)
	assert.Equal(t, "hello", p.parts[0].Text)
}

func TestGenerateContent_EmptyProviderText(t *testing.T) {
	p := &stubProvider{
		generateFunc: func(context.Context, models.Profile, []models.Part) (string, error) {
			return "", nil
		},
	}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateContent", `{"prompt":"hello"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":""}`, w.Body.String())
}

func TestGenerateContent_IgnoresImageParts(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateContent", `{"prompt":"hello","imageParts":[{"inlineData":{}}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, p.parts, 1)
}

func TestGenerateContent_InvalidPrompt(t *testing.T) {
	want := `{"error":"Invalid or missing 'prompt' in the request body."}`
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "empty body", body: ``},
		{name: "empty prompt", body: `{"prompt":""}`},
		{name: "null prompt", body: `{"prompt":null}`},
		{name: "number prompt", body: `{"prompt":42}`},
		{name: "object prompt", body: `{"prompt":{"text":"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{}
			r := setupRouter(t, p, nil)

			w := post(r, "/api/generateContent", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, want, w.Body.String())
			assert.Zero(t, p.callCount())
		})
	}
}

func TestGenerateContent_MalformedBody(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	for _, body := range []string{`[1,2]`, `"hello"`, `{"prompt":`} {
		w := post(r, "/api/generateContent", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"`+validation.MsgInvalidBody+`"}`, w.Body.String(), body)
	}
	assert.Zero(t, p.callCount())
}

func TestGenerateContent_BodyTooLarge(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateContent", `{"prompt":"`+strings.Repeat("a", 2<<10)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, p.callCount())
}

func TestGenerateContent_ProviderError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	p := &stubProvider{
		generateFunc: func(context.Context, models.Profile, []models.Part) (string, error) {
			return "", errors.New("API key not valid: secret-detail")
		},
	}
	r := setupRouter(t, p, zap.New(core))

	w := post(r, "/api/generateContent", `{"prompt":"hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorBody, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret-detail")
	assert.Equal(t, 1, p.callCount())

	entries := logs.FilterMessage("generation failed").All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestGenerateImage_SingleObject(t *testing.T) {
	p := &stubProvider{
		generateFunc: func(context.Context, models.Profile, []models.Part) (string, error) {
			return "A cat", nil
		},
	}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateImage", `{"prompt":"describe","imageParts":{"inlineData":{"mimeType":"image/png","data":"AAA"}}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"A cat"}`, w.Body.String())
	assert.Equal(t, models.ProfileImage, p.profile.Name)
	require.Len(t, p.parts, 2)
	assert.Equal(t, "describe", p.parts[0].Text)
	assert.JSONEq(t, `{"inlineData":{"mimeType":"image/png","data":"AAA"}}`, string(p.parts[1].Attachment))
}

func TestGenerateImage_ArrayKeepsOrder(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateImage", `{"prompt":"compare","imageParts":[{"n":1},{"n":2},{"n":3}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.parts, 4)
	assert.Equal(t, "compare", p.parts[0].Text)
	for i := 1; i <= 3; i++ {
		assert.JSONEq(t, `{"n":`+string(rune('0'+i))+`}`, string(p.parts[i].Attachment))
	}
}

func TestGenerateImage_EmptyArray(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateImage", `{"prompt":"anything","imageParts":[]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.parts, 1)
	assert.Equal(t, "anything", p.parts[0].Text)
}

func TestGenerateImage_MissingImageParts(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateImage", `{"prompt":"describe"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing 'imageParts' in the request body."}`, w.Body.String())
	assert.Zero(t, p.callCount())
}

func TestGenerateImage_PromptCheckedFirst(t *testing.T) {
	p := &stubProvider{}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateImage", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or missing 'prompt' in the request body."}`, w.Body.String())
	assert.Zero(t, p.callCount())
}

func TestGenerateImage_ProviderError(t *testing.T) {
	p := &stubProvider{
		generateFunc: func(context.Context, models.Profile, []models.Part) (string, error) {
			return "", errors.New("unsupported mime type")
		},
	}
	r := setupRouter(t, p, nil)

	w := post(r, "/api/generateImage", `{"prompt":"describe","imageParts":{"bogus":true}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalErrorBody, w.Body.String())
}

func TestGenerate_ConcurrentRequestsAreIndependent(t *testing.T) {
	p := &stubProvider{generateFunc: upper}
	r := setupRouter(t, p, nil)

	prompts := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	results := make([]string, len(prompts))

	var wg sync.WaitGroup
	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			w := post(r, "/api/generateContent", `{"prompt":"`+prompt+`"}`)
			results[i] = w.Body.String()
		}(i, prompt)
	}
	wg.Wait()

	for i, prompt := range prompts {
		assert.JSONEq(t, `{"text":"`+strings.ToUpper(prompt)+`"}`, results[i])
	}
	assert.Equal(t, len(prompts), p.callCount())
}
