package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	t.Run("plain text", func(t *testing.T) {
		content, err := registry.Extract(ctx, "text/plain", "notes.txt", []byte("hello world"))
		require.NoError(t, err)
		require.Len(t, content.Segments, 1)
		assert.Equal(t, "hello world", content.Segments[0].Text)
		assert.False(t, content.Segments[0].Tabular)
		assert.Equal(t, "notes", content.Title)
	})

	t.Run("mime parameters stripped", func(t *testing.T) {
		content, err := registry.Extract(ctx, "text/plain; charset=utf-8", "notes.txt", []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", content.Segments[0].Text)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := registry.Extract(ctx, "application/zip", "archive.zip", []byte{0x50, 0x4b})
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := registry.Extract(ctx, "text/plain", "empty.txt", []byte("   \n  "))
		assert.ErrorIs(t, err, ErrEmptyContent)
	})
}

func TestRegistrySupports(t *testing.T) {
	registry := NewRegistry()

	assert.True(t, registry.Supports("text/plain"))
	assert.True(t, registry.Supports("text/html; charset=utf-8"))
	assert.True(t, registry.Supports("application/pdf"))
	assert.False(t, registry.Supports("application/zip"))
}

func TestExtractTabular(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	t.Run("csv rows flattened", func(t *testing.T) {
		data := []byte("name,role\nAda,engineer\nGrace,admiral\n")
		content, err := registry.Extract(ctx, "text/csv", "people.csv", data)
		require.NoError(t, err)
		require.Len(t, content.Segments, 1)

		segment := content.Segments[0]
		assert.True(t, segment.Tabular)
		assert.Equal(t, "name | role\nAda | engineer\nGrace | admiral", segment.Text)
	})

	t.Run("tsv", func(t *testing.T) {
		data := []byte("name\trole\nAda\tengineer\n")
		content, err := registry.Extract(ctx, "text/tab-separated-values", "people.tsv", data)
		require.NoError(t, err)
		assert.Equal(t, "name | role\nAda | engineer", content.Segments[0].Text)
	})

	t.Run("ragged rows tolerated", func(t *testing.T) {
		data := []byte("a,b,c\n1,2\n")
		content, err := registry.Extract(ctx, "text/csv", "ragged.csv", data)
		require.NoError(t, err)
		assert.Equal(t, "a | b | c\n1 | 2", content.Segments[0].Text)
	})
}

func TestExtractHTML(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	html := []byte(`<html>
<head><title>Team Handbook</title><style>body { color: red }</style></head>
<body>
<nav>Home | About</nav>
<main>
<h1>Policies</h1>
<p>All timesheets are due on Friday.</p>
</main>
<footer>Copyright</footer>
<script>alert("hi")</script>
</body>
</html>`)

	content, err := registry.Extract(ctx, "text/html; charset=utf-8", "https://example.com/handbook", html)
	require.NoError(t, err)

	assert.Equal(t, "Team Handbook", content.Title)
	require.Len(t, content.Segments, 1)

	text := content.Segments[0].Text
	assert.Contains(t, text, "Policies")
	assert.Contains(t, text, "timesheets are due on Friday")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Home | About")
}

func TestFetcherFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><head><title>Welcome</title></head><body><p>Office hours are 9 to 5.</p></body></html>"))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("just text"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(NewRegistry())
	ctx := context.Background()

	t.Run("html page", func(t *testing.T) {
		content, mimeType, err := fetcher.FromURL(ctx, server.URL+"/page")
		require.NoError(t, err)
		assert.Equal(t, "text/html", mimeType)
		assert.Equal(t, "Welcome", content.Title)
		assert.Contains(t, content.Segments[0].Text, "Office hours are 9 to 5")
	})

	t.Run("plain text response", func(t *testing.T) {
		content, mimeType, err := fetcher.FromURL(ctx, server.URL+"/plain")
		require.NoError(t, err)
		assert.Equal(t, "text/plain", mimeType)
		assert.Equal(t, "just text", content.Segments[0].Text)
	})

	t.Run("404 fails", func(t *testing.T) {
		_, _, err := fetcher.FromURL(ctx, server.URL+"/missing")
		assert.ErrorIs(t, err, ErrFetchFailed)
	})
}
