// Package l10nstrings resolves user-facing error messages with go-l10n.
package l10nstrings

import (
	"errors"

	"github.com/ideamans/go-l10n"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		"The image could not be read: %s":       "画像を読み込めませんでした: %s",
		"The image could not be written: %s":    "画像を書き出せませんでした: %s",
		"Not enough resources to process: %s":   "処理に必要なリソースが不足しています: %s",
		"The image source is not reachable: %s": "画像の参照先に到達できません: %s",
		"The operation was cancelled":           "操作はキャンセルされました",
		"Invalid parameter: %s":                 "無効なパラメータ: %s",
		"Unexpected error: %s":                  "予期しないエラー: %s",
	})
}

var templates = map[pipeline.ErrorKind]string{
	pipeline.KindDecodeFailure:        "The image could not be read: %s",
	pipeline.KindEncodeFailure:        "The image could not be written: %s",
	pipeline.KindResourceExhausted:    "Not enough resources to process: %s",
	pipeline.KindUnreachableReference: "The image source is not reachable: %s",
	pipeline.KindInvalidParameter:     "Invalid parameter: %s",
	pipeline.KindUnknown:              "Unexpected error: %s",
}

// Strings implements ports.Strings.
type Strings struct{}

// New creates a Strings.
func New() *Strings {
	return &Strings{}
}

// Message returns a localized description of err. The operation name is
// dropped; the underlying cause is kept.
func (s *Strings) Message(err error) string {
	if err == nil {
		return ""
	}
	kind := pipeline.KindOf(err)
	if kind == pipeline.KindCancelled {
		return l10n.T("The operation was cancelled")
	}

	detail := err.Error()
	var pe *pipeline.Error
	if errors.As(err, &pe) && pe.Err != nil {
		detail = pe.Err.Error()
	}

	tmpl, ok := templates[kind]
	if !ok {
		tmpl = templates[pipeline.KindUnknown]
	}
	return l10n.F(tmpl, detail)
}

var _ ports.Strings = (*Strings)(nil)
