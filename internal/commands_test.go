package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/models"
	"github.com/starford/cardgrid/internal/storage"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = storage.BackendSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "annotations.db")
	return cfg
}

func TestRunOnce_JSON(t *testing.T) {
	var out bytes.Buffer
	err := RunOnce(context.Background(), &out, InputJSON, `{"pros":["cheap"],"cons":[]}`,
		WithConfig(testConfig(t)), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	var res struct {
		Cards  []models.Card `json:"cards"`
		Status string        `json:"status"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode %s: %v", out.String(), err)
	}
	if len(res.Cards) != 2 || res.Status != "Loaded" {
		t.Errorf("result = %+v", res)
	}
}

func TestRunOnce_MalformedJSON(t *testing.T) {
	var out bytes.Buffer
	err := RunOnce(context.Background(), &out, InputJSON, `[1,`,
		WithConfig(testConfig(t)), WithLogOutput(io.Discard))
	var pe *apperr.InputParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want InputParseError", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"kind": "error"`)) {
		t.Errorf("output missing error card: %s", out.String())
	}
}

func TestRunOnce_PageWithAnnotations(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Fund page</title></head><body><article>
<h1>Fund page</h1>
<p>This fund invests in a broad basket of global equities and keeps its ongoing charges very low.</p>
<h2>Costs</h2>
<p><a href="https://example.com/kiid">Key information</a></p>
</article></body></html>`))
	}))
	defer page.Close()

	var out bytes.Buffer
	err := RunOnce(context.Background(), &out, InputPage, page.URL,
		WithConfig(testConfig(t)), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	var res struct {
		Cards []models.Card `json:"cards"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Cards) < 3 {
		t.Fatalf("got %d cards, want title plus annotations", len(res.Cards))
	}
	if res.Cards[0].Kind != models.KindTitle {
		t.Errorf("first card kind = %q, want title", res.Cards[0].Kind)
	}
	if last := res.Cards[len(res.Cards)-1]; last.Kind != models.KindFeedback {
		t.Errorf("last card kind = %q, want feedback", last.Kind)
	}
}

func TestRunOnce_UnknownKind(t *testing.T) {
	err := RunOnce(context.Background(), io.Discard, "xml", "<a/>",
		WithConfig(testConfig(t)), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRunOnce_RequiresConfig(t *testing.T) {
	if err := RunOnce(context.Background(), io.Discard, InputJSON, "1"); err == nil {
		t.Fatal("expected error without config")
	}
}
