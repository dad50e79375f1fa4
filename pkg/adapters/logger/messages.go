package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Building poster with %d layers":      "%d レイヤーのポスターを作成中",
		"Poster saved to %s":                  "ポスターを %s に保存しました",
		"Poster rendered: %dx%d %s, %d bytes": "ポスター生成完了: %dx%d %s, %d バイト",
		"Building %d posters with %d workers": "%d 枚のポスターを %d ワーカーで作成中",
		"Batch completed: %d posters":         "バッチ完了: %d 枚のポスター",
		"Avatar saved to %s":                  "アバターを %s に保存しました",
		"QR code saved to %s":                 "QRコードを %s に保存しました",

		// Layers (debug)
		"Applied layer %d/%d (%s)": "レイヤー %d/%d (%s) を適用しました",

		// Canvas component
		"Background %s (%dx%d)":            "背景 %s (%dx%d)",
		"Empty background %dx%d":           "空の背景 %dx%d",
		"Image %s at (%d,%d) %dx%d":        "画像 %s を (%d,%d) に配置 %dx%d",
		"Text %q at (%d,%d) size %.0f":     "テキスト %q を (%d,%d) に配置 サイズ %.0f",
		"Paragraph of %d lines at (%d,%d)": "%d 行の段落を (%d,%d) に配置",
		"QR code at (%d,%d) %dx%d":         "QRコードを (%d,%d) に配置 %dx%d",
		"Canvas released":                  "キャンバスを解放しました",

		// Source component
		"Fetching %s":        "%s を取得中",
		"Decoded %s (%dx%d)": "%s をデコードしました (%dx%d)",

		// Server component
		"Listening on %s":      "%s で待ち受け中",
		"Shutting down server": "サーバーを停止しています",
		"%s %s -> %d (%s)":     "%s %s -> %d (%s)",

		// Warnings
		"Skipping debug snapshot: %s": "デバッグスナップショットをスキップしました: %s",

		// Errors
		"Render failed: %s": "生成に失敗しました: %s",
	})
}
