package rodwrapper

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove     []string
	AttrsToRemove    []string
	// KeepAttrPrefixes protects data-*/aria-* attributes that chat selectors
	// rely on, e.g. data-message-author-role.
	KeepAttrPrefixes []string
	MaxOutputSize    int
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "img", "picture", "video",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	KeepAttrPrefixes: []string{
		"data-message-", "data-testid", "aria-label", "aria-busy",
	},
	MaxOutputSize: 130_000,
}

const truncatedMarker = "\n<!-- snapshot truncated -->"

var errNoBody = errors.New("no <body>")

// CleanHTML strips a page down to the markup that matters for diagnosing
// chat selectors: structure, ids, classes and the protected attributes.
func CleanHTML(rawHTML string, cfg *CleanConfig) (string, error) {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	body := firstElement(doc, "body")
	if body == nil {
		return "", fmt.Errorf("parse html: %w", errNoBody)
	}

	c := cleaner{cfg: cfg, dropTags: make(map[string]bool, len(cfg.TagsToRemove))}
	for _, tag := range cfg.TagsToRemove {
		c.dropTags[tag] = true
	}
	c.prune(body)

	var sb strings.Builder
	if err := html.Render(&sb, body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return truncateHTML(sb.String(), cfg.MaxOutputSize), nil
}

func firstElement(n *html.Node, tag string) *html.Node {
	for d := range n.Descendants() {
		if d.Type == html.ElementNode && d.Data == tag {
			return d
		}
	}
	return nil
}

type cleaner struct {
	cfg      *CleanConfig
	dropTags map[string]bool
}

// prune filters n's attributes and removes unwanted children: comments,
// dropped tags and whitespace-only text outside <pre>/<textarea>.
func (c *cleaner) prune(n *html.Node) {
	n.Attr = slices.DeleteFunc(n.Attr, c.dropAttr)
	keepSpace := n.Data == "pre" || n.Data == "textarea"

	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		switch {
		case child.Type == html.CommentNode,
			child.Type == html.ElementNode && c.dropTags[child.Data],
			child.Type == html.TextNode && !keepSpace && strings.TrimSpace(child.Data) == "":
			n.RemoveChild(child)
		case child.Type == html.ElementNode:
			c.prune(child)
		}
		child = next
	}
}

func (c *cleaner) dropAttr(attr html.Attribute) bool {
	key := attr.Key
	for _, p := range c.cfg.KeepAttrPrefixes {
		if strings.HasPrefix(key, p) {
			return false
		}
	}
	return slices.Contains(c.cfg.AttrsToRemove, key) ||
		strings.HasPrefix(key, "data-") ||
		strings.HasPrefix(key, "aria-") ||
		strings.HasPrefix(key, "on")
}

// truncateHTML cuts at maxSize bytes without splitting a UTF-8 sequence.
func truncateHTML(htmlStr string, maxSize int) string {
	if maxSize <= 0 || len(htmlStr) <= maxSize {
		return htmlStr
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(htmlStr[cut]) {
		cut--
	}
	return htmlStr[:cut] + truncatedMarker
}
