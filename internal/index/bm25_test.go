package index

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/avolkov/hopweaver/internal/model"
)

func TestSearch_TermOverlapRanksFirst(t *testing.T) {
	corpus := []model.ClaimRecord{
		{Topic: "AI safety", Target: "OpenAI"},
		{Topic: "climate policy", Target: "UN"},
	}
	idx := New(corpus)

	results := idx.Search("openai safety", 1)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Target != "OpenAI" {
		t.Errorf("Expected OpenAI record first, got %+v", results[0])
	}
}

func TestSearch_NeverExceedsKOrCorpus(t *testing.T) {
	corpus := []model.ClaimRecord{
		{Topic: "alpha", Target: "one"},
		{Topic: "beta", Target: "two"},
		{Topic: "gamma", Target: "three"},
	}
	idx := New(corpus)

	if got := idx.Search("alpha", 2); len(got) != 2 {
		t.Errorf("Expected 2 results with k=2, got %d", len(got))
	}
	if got := idx.Search("alpha", 100); len(got) != 3 {
		t.Errorf("k beyond corpus should return whole corpus, got %d", len(got))
	}
}

func TestSearch_ScoresNonIncreasing(t *testing.T) {
	corpus := []model.ClaimRecord{
		{Topic: "quantum computing", Target: "IBM"},
		{Topic: "quantum entanglement", Target: "CERN"},
		{Topic: "football transfers", Target: "FIFA"},
		{Topic: "quantum computing research", Target: "IBM"},
	}
	idx := New(corpus)

	results := idx.Search("quantum computing", 4)
	scores := idx.Scores("quantum computing")

	byText := make(map[string]float64)
	for i, rec := range corpus {
		byText[rec.SearchText()] = scores[i]
	}
	for i := 1; i < len(results); i++ {
		prev := byText[results[i-1].SearchText()]
		cur := byText[results[i].SearchText()]
		if cur > prev {
			t.Errorf("Scores not non-increasing at %d: %f > %f", i, cur, prev)
		}
	}
}

func TestSearch_TiesKeepCorpusOrder(t *testing.T) {
	// Identical documents score identically; stable sort must preserve
	// their original order.
	corpus := []model.ClaimRecord{
		{Claim: "first", Topic: "same topic", Target: "same"},
		{Claim: "second", Topic: "same topic", Target: "same"},
		{Claim: "third", Topic: "same topic", Target: "same"},
	}
	idx := New(corpus)

	results := idx.Search("same topic", 3)
	want := []string{"first", "second", "third"}
	var got []string
	for _, rec := range results {
		got = append(got, rec.Claim)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tie order broken: got %v, want %v", got, want)
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	idx := New(nil)
	if got := idx.Search("anything", 5); len(got) != 0 {
		t.Errorf("Expected empty result for empty corpus, got %d", len(got))
	}
}

func TestSearch_NoMatchingTermsStillFills(t *testing.T) {
	corpus := []model.ClaimRecord{
		{Topic: "topic a", Target: "x"},
		{Topic: "topic b", Target: "y"},
	}
	idx := New(corpus)

	// Query shares no terms; everything scores zero and corpus order wins.
	results := idx.Search("zzz", 2)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Topic != "topic a" {
		t.Errorf("Expected corpus order on all-zero scores, got %+v", results[0])
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  AI Safety\tOpenAI\n")
	want := []string{"ai", "safety", "openai"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestLoadJSONL_SkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.jsonl")
	content := `{"claim":"c1","topic":"AI safety","target":"OpenAI"}
not json at all

{"claim":"c2","topic":"climate policy","target":"UN"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	records, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("LoadJSONL failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Topic != "AI safety" || records[1].Target != "UN" {
		t.Errorf("Unexpected records: %+v", records)
	}
}

func TestLoadIndex_MissingFile(t *testing.T) {
	if _, err := LoadIndex(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Error("Expected error for missing topic file")
	}
}
