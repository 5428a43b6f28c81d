// Package main provides localization for the framekit CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Output":        "出力",
		"Logging":       "ログ",
		"Encoding":      "エンコード",
		"Filters":       "フィルター",
		"Animation":     "アニメーション",

		// Root command
		"Apply filter chains and convert animated images": "フィルターチェーンの適用とアニメーション画像の変換",

		// Commands
		"Apply a filter chain to a still image": "静止画にフィルターチェーンを適用",
		"Write every frame of an animated image as a still": "アニメーション画像の全フレームを静止画として書き出し",
		"Assemble still images into an animated image": "静止画からアニメーション画像を作成",
		"Apply a filter chain to every frame of an animated image": "アニメーション画像の全フレームにフィルターチェーンを適用",
		"Convert many images to another container format":          "複数の画像を別のコンテナ形式に変換",
		"List the formats that can be written":                     "書き出し可能な形式を一覧表示",
		"Save the cover art embedded in audio files as PNG":        "音声ファイルに埋め込まれたカバー画像を PNG で保存",

		// Global flags
		"Configuration file (YAML or TOML)":               "設定ファイル（YAML または TOML）",
		"Directory for output files":                      "出力ファイルのディレクトリ",
		"Number of parallel workers (0 = number of CPUs)": "並列ワーカー数（0 = CPU数）",
		"Log level (debug, info, warn, error)":            "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                         "全てのログ出力を抑制",

		// Encoding flags
		"Output format (png, apng, jpeg, gif, webp, jxl, bmp, tiff)": "出力形式（png, apng, jpeg, gif, webp, jxl, bmp, tiff）",
		"Lossy quality (1-100)":                                      "非可逆品質（1-100）",
		"JPEG XL encoder effort (1-9)":                               "JPEG XL エンコーダーの労力（1-9）",
		"Encode losslessly where the format allows it":               "形式が対応していれば可逆圧縮",

		// Filter flags
		"Output file name":                                    "出力ファイル名",
		"Filter chain file (YAML)":                            "フィルターチェーンファイル（YAML）",
		"Resize to WxH, W or xH before filtering":             "フィルター前に WxH、W、xH にリサイズ",
		"Rotate clockwise by degrees":                         "時計回りに指定角度回転",
		"Flip horizontally (h) or vertically (v)":             "水平（h）または垂直（v）に反転",
		"Output preset (none, 50%, 800x600, telegram, 500KB)": "出力プリセット（none, 50%, 800x600, telegram, 500KB）",

		// Animation flags
		"Frame delay in milliseconds for frames without one": "遅延のないフレームの遅延時間（ミリ秒）",
		"Loop count (0 = forever)":                           "ループ回数（0 = 無限）",
		"Canvas size WxH (default: first frame)":             "キャンバスサイズ WxH（デフォルト: 最初のフレーム）",
		"Keep the intermediate frames":                       "中間フレームを残す",
		"Write a Markdown report to this file":               "Markdown レポートをこのファイルに書き出し",
		"Output file name (single input only)":               "出力ファイル名（入力が1つの場合のみ）",

		// Errors
		"Exactly one input is required":              "入力は1つだけ指定してください",
		"At least one input is required":             "入力を1つ以上指定してください",
		"At least one frame is required":             "フレームを1つ以上指定してください",
		"%d of %d images failed":                     "%d / %d 件の画像が失敗しました",
		"--name cannot be used with multiple inputs": "--name は複数の入力と併用できません",

		// Progress
		"Extracting": "抽出中",
		"Assembling": "組み立て中",
		"Converting": "変換中",

		// Formats command
		"still":    "静止画",
		"animated": "アニメーション",

		// Report content
		"Conversion Report": "変換レポート",
		"Generated":         "生成日時",
		"Version":           "バージョン",
		"Job":               "ジョブ",
		"Format":            "形式",
		"Quality":           "品質",
		"Batch":             "バッチ",
		"Item":              "項目",
		"Value":             "値",
		"Requested":         "要求数",
		"Converted":         "変換済み",
		"Failed":            "失敗",
		"Output size":       "出力サイズ",
		"Elapsed":           "経過時間",
		"Failures":          "失敗した項目",
		"Source":            "入力",
		"Kind":              "種別",
		"Message":           "メッセージ",
		"Animations":        "アニメーション",
		"Frames":            "フレーム数",
		"Canvas":            "キャンバス",
		"Size":              "サイズ",
	})
}
