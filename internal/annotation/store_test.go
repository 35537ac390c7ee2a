package annotation

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/models"
	"github.com/starford/cardgrid/internal/storage"
)

// failingProvider rejects every operation, like a full or unreachable backend.
type failingProvider struct{}

func (failingProvider) Get(string) ([]byte, error) { return nil, errors.New("quota exceeded") }
func (failingProvider) Set(string, []byte) error   { return errors.New("quota exceeded") }
func (failingProvider) Close() error               { return nil }

func intPtr(n int) *int { return &n }

func TestLoad_DefaultWhenMissing(t *testing.T) {
	s := New(storage.NewMemory())
	rec := s.Load("https://example.com")
	if rec.Rating != nil || rec.Feedback != "" {
		t.Errorf("rec = %+v, want empty", rec)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	backend := storage.NewMemory()
	s := New(backend)
	want := models.Annotation{Rating: intPtr(4), Feedback: "useful"}
	s.Save("https://example.com", want)

	// A fresh store reads the persisted record, not the cache.
	got := New(backend).Load("https://example.com")
	if got.Rating == nil || *got.Rating != 4 || got.Feedback != "useful" {
		t.Errorf("got = %+v", got)
	}
}

func TestSave_NamespacedKey(t *testing.T) {
	backend := storage.NewMemory()
	s := New(backend, WithPrefix("test:"))
	s.Save("id-1", models.Annotation{Feedback: "x"})
	data, err := backend.Get("test:id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"rating":null,"feedback":"x"}` {
		t.Errorf("stored = %s", data)
	}
}

func TestLoad_CorruptIsDefault(t *testing.T) {
	backend := storage.NewMemory()
	_ = backend.Set(DefaultKeyPrefix+"bad", []byte("{not json"))
	_ = backend.Set(DefaultKeyPrefix+"range", []byte(`{"rating":9,"feedback":"kept"}`))
	s := New(backend)

	if rec := s.Load("bad"); rec.Rating != nil || rec.Feedback != "" {
		t.Errorf("corrupt rec = %+v", rec)
	}
	rec := s.Load("range")
	if rec.Rating != nil || rec.Feedback != "kept" {
		t.Errorf("out of range rec = %+v", rec)
	}
}

func TestPersistenceFailureSwallowed(t *testing.T) {
	s := New(failingProvider{})
	if rec := s.Load("x"); rec.Rating != nil {
		t.Errorf("rec = %+v", rec)
	}
	if _, err := s.Rate("x", 3); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	rec := s.Load("x")
	if rec.Rating == nil || *rec.Rating != 3 {
		t.Errorf("in-memory record lost: %+v", rec)
	}
}

func TestRate_Validation(t *testing.T) {
	s := New(storage.NewMemory())
	for _, n := range []int{0, 6, -1} {
		if _, err := s.Rate("x", n); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("Rate(%d) error = %v", n, err)
		}
	}
	if _, err := s.Rate("", 3); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("Rate with empty id error = %v", err)
	}
}

func TestRateAndFeedbackKeepEachOther(t *testing.T) {
	s := New(storage.NewMemory())
	_, _ = s.Rate("x", 2)
	rec, err := s.SetFeedback("x", "  needs work  ")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Rating == nil || *rec.Rating != 2 || rec.Feedback != "needs work" {
		t.Errorf("rec = %+v", rec)
	}
}

func TestSetFeedback_TooLong(t *testing.T) {
	s := New(storage.NewMemory())
	_, err := s.SetFeedback("x", strings.Repeat("a", MaxFeedbackLength+1))
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_ReturnsCopy(t *testing.T) {
	s := New(storage.NewMemory())
	_, _ = s.Rate("x", 2)
	rec := s.Load("x")
	*rec.Rating = 5
	if got := s.Load("x"); *got.Rating != 2 {
		t.Errorf("cache aliased: %d", *got.Rating)
	}
}

func TestEvict_RereadsBackend(t *testing.T) {
	backend := storage.NewMemory()
	s := New(backend)
	_, _ = s.Rate("x", 2)
	_ = backend.Set(s.Key("x"), []byte(`{"rating":5,"feedback":""}`))

	if got := s.Load("x"); *got.Rating != 2 {
		t.Fatalf("cached rating = %d, want 2", *got.Rating)
	}
	s.Evict("x")
	if got := s.Load("x"); got.Rating == nil || *got.Rating != 5 {
		t.Errorf("after evict = %+v", got)
	}
}

func TestIdentifier(t *testing.T) {
	s := New(storage.NewMemory())
	id, ok := s.Identifier(s.Key("https://a.test"))
	if !ok || id != "https://a.test" {
		t.Errorf("Identifier = %q, %v", id, ok)
	}
	if _, ok := s.Identifier("other:key"); ok {
		t.Error("foreign key should not resolve")
	}
}
