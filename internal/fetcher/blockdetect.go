package fetcher

import "strings"

// BlockType describes the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// DetectBlock reports whether a fetched page is an interstitial rather than
// the article. Such pages must not be mined for meeting text.
func DetectBlock(page []byte) BlockType {
	lower := strings.ToLower(string(page))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return BlockCloudflare
	}

	if strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "h-captcha") ||
		strings.Contains(lower, "captcha-container") {
		return BlockCaptcha
	}

	// JS-only shell: very small page with noscript or meta refresh.
	if len(page) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return BlockJSShell
		}
	}

	return BlockNone
}
