// Package images acquires the product image catalog and sorts it into
// per-category folders.
package images

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one product image in catalog.json.
type Entry struct {
	Filename    string `json:"filename"`
	Brand       string `json:"brand"`
	Product     string `json:"product"`
	ModelNumber string `json:"model_number,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
}

// Key is the brand and product description used to categorize the entry.
func (e Entry) Key() string {
	return strings.Join(strings.Fields(e.Brand+" "+e.Product), " ")
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName reduces a file name to a portable character set. Names without
// an extension get ".jpg".
func SafeName(name string) string {
	name = strings.Trim(unsafeNameRe.ReplaceAllString(path.Base(name), "_"), "._")
	if name == "" {
		name = "image"
	}
	if path.Ext(name) == "" {
		name += ".jpg"
	}
	return name
}

// Names hands out collision-free file names within one directory.
type Names struct {
	used map[string]bool
}

// NewNames creates an allocator with the given names already taken.
func NewNames(taken ...string) *Names {
	n := &Names{used: make(map[string]bool)}
	for _, t := range taken {
		n.used[strings.ToLower(t)] = true
	}
	return n
}

// Next returns name, or name with a numeric suffix before the extension
// when it is already taken.
func (n *Names) Next(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; n.used[strings.ToLower(candidate)]; i++ {
		candidate = stem + "_" + strconv.Itoa(i) + ext
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
