// Package main provides localization for the poster CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":  "出力先",
		"Canvas":  "キャンバス",
		"Text":    "テキスト",
		"Avatar":  "アバター",
		"QR code": "QRコード",
		"Server":  "サーバー",
		"Debug":   "デバッグ",
		"Logging": "ログ",

		// Root command
		"Compose share posters from images, text and QR codes": "画像・テキスト・QRコードからシェア用ポスターを作成",

		// Commands
		"Render a poster from a recipe file":                "レシピファイルからポスターを生成",
		"Render several recipes in parallel":                "複数のレシピを並列に生成",
		"Create a circular or rounded avatar from an image": "画像から円形または角丸のアバターを作成",
		"Generate a QR code image":                          "QRコード画像を生成",
		"Measure text and show how it wraps":                "テキストを計測し折り返しを表示",
		"Serve poster rendering over HTTP":                  "HTTPでポスター生成を提供",
		"Show version information":                          "バージョン情報を表示",
		"poster version %s":                                 "poster バージョン %s",

		// Global flags
		"Log level (debug, info, warn, error)":                 "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                              "すべてのログ出力を抑制",
		"Prefix log lines with the time (always on for serve)": "ログ行に時刻を付与（serve では常に有効）",
		"Save the recipe and a snapshot after each layer":      "レシピと各レイヤー後のスナップショットを保存",
		"Directory for debug output":                           "デバッグ出力先ディレクトリ",
		"Timeout for downloading remote images":                "リモート画像のダウンロードタイムアウト",

		// Output flags
		"Output file path (overrides the recipe)":                   "出力ファイルパス（レシピより優先）",
		"Output file path (required)":                               "出力ファイルパス（必須）",
		"Output format (png, jpeg)":                                 "出力形式 (png, jpeg)",
		"JPEG quality (1-100)":                                      "JPEG品質 (1-100)",
		"Directory for the posters (default: each recipe's output)": "ポスターの出力先ディレクトリ（デフォルト: 各レシピの出力先）",
		"Number of parallel workers (default: CPU count)":           "並列ワーカー数（デフォルト: CPU数）",

		// Canvas and text flags
		"Canvas width for blank backgrounds":       "空の背景のキャンバス幅",
		"Canvas height for blank backgrounds":      "空の背景のキャンバス高さ",
		"Allow elements to extend past the canvas": "キャンバス外へのはみ出しを許可",
		"Font file (TTF) for text":                 "テキスト用フォントファイル (TTF)",
		"Font size in pixels":                      "フォントサイズ（ピクセル）",
		"Font weight (100-900)":                    "フォントの太さ (100-900)",
		"Wrap width in pixels":                     "折り返し幅（ピクセル）",

		// Avatar flags
		"Variant (original, circular, rounded, rounded-bordered)": "種類 (original, circular, rounded, rounded-bordered)",
		"Corner radius as a fraction of the width":                "幅に対する角丸半径の比率",
		"Border width in pixels":                                  "枠線の幅（ピクセル）",
		"Border color":                                            "枠線の色",

		// QR code flags
		"Image size in pixels":            "画像サイズ（ピクセル）",
		"Quiet zone in pixels":            "余白（ピクセル）",
		"Logo image placed at the center": "中央に配置するロゴ画像",
		"Module color":                    "モジュールの色",
		"Background color":                "背景色",

		// Server flags
		"Listen address":                                     "待ち受けアドレス",
		"Allow recipes to reference local files":             "レシピからのローカルファイル参照を許可",
		"Maximum time per request (0 = unlimited)":           "リクエストごとの最大処理時間（0 = 無制限）",
		"Allow URL sources on loopback and private networks": "ループバックおよびプライベートネットワーク上のURLソースを許可",
		"Largest raster area a request may allocate":         "リクエストが確保できるラスターの最大面積（ピクセル）",

		// Argument errors
		"A recipe file argument is required":                  "レシピファイルを指定してください",
		"At least one recipe file is required":                "レシピファイルを1つ以上指定してください",
		"A source argument is required":                       "画像ソースを指定してください",
		"A content argument is required":                      "内容を指定してください",
		"A text argument is required":                         "テキストを指定してください",
		"Output path is required (--output or recipe output)": "出力先が必要です（--output またはレシピの output）",
		"Recipes %s and %s both write to %s":                  "レシピ %s と %s の出力先 %s が重複しています",
		"Recipe %s has no output path":                        "レシピ %s に出力先がありません",

		// Measure output
		"Width: %.1f px, height: %.1f px, ascent: %.1f px": "幅: %.1f px, 高さ: %.1f px, アセント: %.1f px",
	})
}
