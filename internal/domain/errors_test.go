package domain

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestDataLoadError_MatchesSentinelAndCause(t *testing.T) {
	err := NewDataLoadError("data/stories.jsonl", 4, fs.ErrNotExist)

	if !errors.Is(err, ErrDataLoad) {
		t.Error("expected errors.Is(err, ErrDataLoad)")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected errors.Is(err, fs.ErrNotExist)")
	}
	if !strings.Contains(err.Error(), "data/stories.jsonl:4") {
		t.Errorf("expected path:line in message, got %q", err.Error())
	}
}

func TestDataLoadError_NoLine(t *testing.T) {
	err := NewDataLoadError("index/metadata.json", 0, errors.New("boom"))
	if strings.Contains(err.Error(), ":0") {
		t.Errorf("line 0 must not be rendered, got %q", err.Error())
	}

	var dle *DataLoadError
	if !errors.As(err, &dle) || dle.Path != "index/metadata.json" {
		t.Fatalf("expected *DataLoadError with path, got %#v", err)
	}
}
