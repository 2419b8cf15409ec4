package facematch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/verification/providers"
	"kycdesk/internal/verification/providers/contract"
)

var (
	idImage   = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0id"))
	faceImage = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nface"))
)

func TestParseComparison(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		score       float64
		explanation string
	}{
		{"well formed", "Score: 0.87\nExplanation: Same jawline and eye spacing.", 0.87, "Same jawline and eye spacing."},
		{"multiline explanation", "Score: 0.3\nExplanation: Different nose.\nDifferent ears.\n", 0.3, "Different nose.\nDifferent ears."},
		{"missing score", "Explanation: unclear photo", 0.5, "unclear photo"},
		{"missing explanation", "Score: 0.9", 0.9, defaultExplanation},
		{"empty reply", "", 0.5, defaultExplanation},
		{"score above one clamped", "Score: 7\nExplanation: x", 1, "x"},
		{"unparsable score", "Score: ..\nExplanation: x", 0.5, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseComparison(tt.text)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.Equal(t, tt.explanation, got.Explanation)
		})
	}
}

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", BaseURL: srv.URL + "/", Model: "gemini-test", Timeout: time.Second}, srv.Client())
	require.NoError(t, err)
	return g
}

// generateBody is the part of the generateContent request the tests inspect.
type generateBody struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

func TestGeminiCompare(t *testing.T) {
	g := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))

		var req generateBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		parts := req.Contents[0].Parts
		require.Len(t, parts, 3)
		assert.Contains(t, parts[0].Text, "Score: [number between 0 and 1]")
		require.NotNil(t, parts[1].InlineData)
		require.NotNil(t, parts[2].InlineData)
		assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
		assert.Equal(t, "image/png", parts[2].InlineData.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0id")), parts[1].InlineData.Data)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Score: 0.76\nExplanation: Consistent features."}]}}]}`))
	})

	cmp, err := g.Compare(context.Background(), idImage, faceImage)
	require.NoError(t, err)
	assert.InDelta(t, 0.76, cmp.Score, 1e-9)
	assert.Equal(t, "Consistent features.", cmp.Explanation)
}

func TestGeminiContract(t *testing.T) {
	g := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Score: 0.6\nExplanation: ok"}]}}]}`))
	})
	s := contract.FaceComparerSuite{Comparer: g, IDImage: idImage, FaceImage: faceImage}
	s.Run(t)
}

func TestGeminiErrorCategories(t *testing.T) {
	tests := []struct {
		status   int
		category providers.Category
	}{
		{http.StatusUnauthorized, providers.CategoryAuth},
		{http.StatusTooManyRequests, providers.CategoryQuota},
		{http.StatusServiceUnavailable, providers.CategoryOutage},
		{http.StatusBadRequest, providers.CategoryBadInput},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			g := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := g.Compare(context.Background(), idImage, faceImage)
			require.Error(t, err)
			assert.Equal(t, tt.category, providers.CategoryOf(err))
		})
	}
}

func TestGeminiMalformedResponse(t *testing.T) {
	g := newGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := g.Compare(context.Background(), idImage, faceImage)
	assert.Equal(t, providers.CategoryBadInput, providers.CategoryOf(err))
}

func TestGeminiRejectsBadImage(t *testing.T) {
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", BaseURL: "http://unused"}, nil)
	require.NoError(t, err)
	_, err = g.Compare(context.Background(), "", faceImage)
	assert.Equal(t, providers.CategoryBadInput, providers.CategoryOf(err))
}

func TestGeminiUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/"
	srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", BaseURL: base, Model: "gemini-test", Timeout: time.Second}, nil)
	require.NoError(t, err)
	_, err = g.Compare(context.Background(), idImage, faceImage)
	assert.Equal(t, providers.CategoryOutage, providers.CategoryOf(err))
}

func TestStubContract(t *testing.T) {
	s := contract.FaceComparerSuite{Comparer: NewStub(0.82), IDImage: idImage, FaceImage: faceImage}
	s.Run(t)
}
