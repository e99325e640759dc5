package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/clauseguard/internal/model"
)

// mockAnalyzer implements Analyzer
type mockAnalyzer struct {
	failOn string
}

func (m *mockAnalyzer) AnalyzeSource(ctx context.Context, source string) (*model.ContractReport, error) {
	time.Sleep(10 * time.Millisecond)
	if source == m.failOn {
		return nil, errors.New("analysis error")
	}
	if strings.HasPrefix(source, "panic") {
		panic("bad input")
	}
	return &model.ContractReport{ID: source, RiskBand: model.BandLow}, nil
}

func TestBatchProcessor_ProcessSources(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	sources := []string{"lease.txt", "nda.md", "https://example.com/terms"}
	results := processor.ProcessSources(context.Background(), sources)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Source, res.Error)
		}
		if res.Source != sources[i] {
			t.Errorf("result %d: expected source %s, got %s", i, sources[i], res.Source)
		}
		if res.Report == nil || res.Report.ID != sources[i] {
			t.Errorf("result %d: report does not belong to its source", i)
		}
	}
}

func TestBatchProcessor_ProcessSources_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{failOn: "broken.txt"}, 2)

	results := processor.ProcessSources(context.Background(), []string{"ok.txt", "broken.txt", "panic.txt"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Error != nil {
		t.Errorf("expected success for ok.txt, got %v", results[0].Error)
	}
	if results[1].Error == nil || results[1].Report != nil {
		t.Error("expected error and nil report for broken.txt")
	}
	if results[2].Error == nil || results[2].Source != "panic.txt" {
		t.Errorf("expected recovered panic for panic.txt, got %+v", results[2])
	}
}

func TestBatchProcessor_ProcessSources_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	results := processor.ProcessSources(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadSourcesFromFile(t *testing.T) {
	content := `contracts/lease.txt
# comment
https://example.com/terms.html

contracts/nda.md   
contracts/lease.txt`

	path := filepath.Join(t.TempDir(), "sources.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	sources, err := ReadSourcesFromFile(path)
	if err != nil {
		t.Fatalf("ReadSourcesFromFile failed: %v", err)
	}

	expected := []string{"contracts/lease.txt", "https://example.com/terms.html", "contracts/nda.md"}
	if len(sources) != len(expected) {
		t.Fatalf("expected %d sources, got %d", len(expected), len(sources))
	}
	for i, src := range sources {
		if src != expected[i] {
			t.Errorf("expected source %s at index %d, got %s", expected[i], i, src)
		}
	}
}

func TestReadSourcesFromFile_NonExistent(t *testing.T) {
	_, err := ReadSourcesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestAnalysisResult_GetError(t *testing.T) {
	r1 := &AnalysisResult{Source: "a.txt"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &AnalysisResult{Source: "a.txt", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	if err := os.WriteFile(path, []byte("a.txt\nb.txt\n# comment\n\nc.txt\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&mockAnalyzer{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
