package l10nstrings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/framekit/pkg/pipeline"
)

func TestMessage(t *testing.T) {
	s := New()

	tests := []struct {
		name   string
		err    error
		prefix string
		detail string
	}{
		{
			name:   "decode",
			err:    pipeline.NewError(pipeline.KindDecodeFailure, "decode", errors.New("bad header")),
			prefix: "The image could not be read",
			detail: "bad header",
		},
		{
			name:   "unreachable",
			err:    fmt.Errorf("filter: %w", pipeline.NewError(pipeline.KindUnreachableReference, "get x", errors.New("404"))),
			prefix: "The image source is not reachable",
			detail: "404",
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			prefix: "Unexpected error",
			detail: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Message(tt.err)
			if !strings.HasPrefix(got, tt.prefix) || !strings.Contains(got, tt.detail) {
				t.Errorf("Message() = %q, want prefix %q containing %q", got, tt.prefix, tt.detail)
			}
			if strings.Contains(got, "[") {
				t.Errorf("Message() = %q leaks the error kind tag", got)
			}
		})
	}
}

func TestMessageCancelled(t *testing.T) {
	if got := New().Message(context.Canceled); got != "The operation was cancelled" {
		t.Errorf("Message(context.Canceled) = %q", got)
	}
}

func TestMessageNil(t *testing.T) {
	if got := New().Message(nil); got != "" {
		t.Errorf("Message(nil) = %q, want empty", got)
	}
}
