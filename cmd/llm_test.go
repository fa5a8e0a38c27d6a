package cmd

import (
	"reflect"
	"testing"
)

func TestParseLLMTopicsDefaultIsStart(t *testing.T) {
	got := parseLLMTopics("")
	want := []string{"start"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("default topics mismatch: got %v want %v", got, want)
	}
}

func TestParseLLMTopicsAll(t *testing.T) {
	got := parseLLMTopics("all")
	if len(got) != len(topicRegistry) {
		t.Fatalf("all topics size mismatch: got %d want %d", len(got), len(topicRegistry))
	}
	for i, tpc := range topicRegistry {
		if got[i] != tpc.Name {
			t.Fatalf("topic index %d mismatch: got %q want %q", i, got[i], tpc.Name)
		}
	}
}

func TestParseLLMTopicsCommaSeparated(t *testing.T) {
	got := parseLLMTopics("pipeline, gotchas")
	want := []string{"pipeline", "gotchas"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("topics = %v, want %v", got, want)
	}
}

func TestBuildLLMDocSelectsTopics(t *testing.T) {
	doc := buildLLMDoc([]string{"pipeline"})
	if _, ok := doc["pipeline"]; !ok {
		t.Error("requested topic missing from document")
	}
	if _, ok := doc["gotchas"]; ok {
		t.Error("unrequested topic present in document")
	}
	if doc["tool"] != "tripwise" {
		t.Errorf("tool = %v", doc["tool"])
	}
}
