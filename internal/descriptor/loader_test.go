package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const commentTestProto = `syntax = "proto3";

package commenttest;

message Widget {
  // leading hint
  string both = 1; // trailing hint

  // only leading
  string leading_only = 2;

  string trailing_only = 3; // only trailing

  string none = 4;
}
`

func loadCommentTestFile(t *testing.T) *Loader {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.proto")
	if err := os.WriteFile(path, []byte(commentTestProto), 0o644); err != nil {
		t.Fatalf("write test proto: %v", err)
	}
	l := New(nil)
	if err := l.Load(context.Background(), path); err != nil {
		t.Fatalf("load test proto: %v", err)
	}
	return l
}

func TestCommentConcatenatesLeadingAndTrailing(t *testing.T) {
	l := loadCommentTestFile(t)
	c, ok := l.Comment("widget.proto", "Widget", "both")
	if !ok {
		t.Fatalf("expected a comment for field \"both\"")
	}
	if !strings.Contains(c, "leading hint") || !strings.Contains(c, "trailing hint") {
		t.Fatalf("comment %q missing leading and/or trailing text", c)
	}
}

func TestCommentFallsBackToWhicheverIsPresent(t *testing.T) {
	l := loadCommentTestFile(t)

	c, ok := l.Comment("widget.proto", "Widget", "leading_only")
	if !ok || !strings.Contains(c, "only leading") {
		t.Fatalf("leading_only: got (%q, %v)", c, ok)
	}
	c, ok = l.Comment("widget.proto", "Widget", "trailing_only")
	if !ok || !strings.Contains(c, "only trailing") {
		t.Fatalf("trailing_only: got (%q, %v)", c, ok)
	}
}

func TestCommentAbsentWhenNeitherPresent(t *testing.T) {
	l := loadCommentTestFile(t)
	if _, ok := l.Comment("widget.proto", "Widget", "none"); ok {
		t.Fatalf("expected no comment for field \"none\"")
	}
}
