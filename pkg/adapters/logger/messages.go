package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting pipeline":               "パイプラインを開始します",
		"Pipeline completed successfully": "パイプラインが正常に完了しました",
		"Output saved to %s":              "出力を %s に保存しました",
		"Interrupted, shutting down...":   "中断されました。シャットダウン中...",
		"Summary saved to %s":             "サマリーを %s に保存しました",
		"Failed to write summary: %s":     "サマリーの書き込みに失敗しました: %s",

		// Extract stage
		"Extracting frames from %s":            "%s からフレームを抽出中",
		"Extracted %d frames":                  "%d フレームを抽出しました",
		"Failed to extract frames: %s":         "フレームの抽出に失敗しました: %s",
		"Failed to close container reader: %v": "コンテナリーダーを閉じられませんでした: %v",

		// Filter stage
		"Applying %d filters to %d frames":                       "%d 個のフィルターを %d フレームに適用中",
		"Filtering %d frames with %d filters":                    "%d フレームを %d 個のフィルターで処理中",
		"Applying chain of %d filters":                           "%d 個のフィルターチェーンを適用中",
		"Applying %s filter":                                     "%s フィルターを適用中",
		"Failed to filter frames: %s":                            "フレームのフィルター処理に失敗しました: %s",
		"Palette reference %s unavailable, image left unchanged": "パレット参照 %s を取得できないため画像を変更しません",
		"Searching quality for %s within %s":                     "%s の品質を %s 以内で探索中",
		"Ignoring rotation by %v degrees":                        "%v 度の回転は無視します",

		// Assemble stage
		"Assembling %s with %d frames":     "%s を %d フレームで組み立て中",
		"Assembling %d frames into %s":     "%d フレームを %s に組み立て中",
		"Container %s written: %d bytes":   "コンテナ %s を書き込みました: %d バイト",
		"Container %s aborted: %v":         "コンテナ %s を中止しました: %v",
		"Failed to assemble container: %s": "コンテナの組み立てに失敗しました: %s",

		// Batch
		"Batch %s: converting %d items to %s with %d workers": "バッチ %s: %d 件を %s に変換中 (ワーカー %d)",
		"Batch %s: %d of %d converted, %s":                    "バッチ %s: %d / %d 件を変換しました (%s)",
		"Item %s failed: %v":                                  "%s の変換に失敗しました: %v",
		"Converted %d of %d images":                           "%d / %d 件の画像を変換しました",
		"Failed to write %s: %s":                              "%s の書き込みに失敗しました: %s",

		// Cover art
		"Found %s cover in %s":                "%s のカバーを %s で見つけました",
		"Failed to extract cover from %s: %v": "%s からカバーを抽出できませんでした: %v",
		"Cover saved to %s (%dx%d)":           "カバーを %s に保存しました (%dx%d)",

		// Storage and references
		"Failed to remove %s: %v":         "%s を削除できませんでした: %v",
		"Fetching %s":                     "%s を取得中",
		"Page %s resolved to %s":          "ページ %s を %s として解決しました",
		"Reference %s not in storage: %v": "参照 %s はストレージにありません: %v",
	})
}
