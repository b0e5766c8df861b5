package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone      BlockType = ""
	BlockForbidden BlockType = "forbidden"
	BlockChallenge BlockType = "challenge"
	BlockCaptcha   BlockType = "captcha"
	BlockJSShell   BlockType = "js_shell"
)

// DetectBlock checks a profile response for signs of anti-bot protection.
// It is consulted only when a page could not be parsed, so the markers can
// be broad.
func DetectBlock(status int, body []byte) (bool, BlockType) {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		return true, BlockForbidden
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockChallenge
	}

	if strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
