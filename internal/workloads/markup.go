// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// EMBEDDED DOCUMENTS
// =============================================================================

var (
	//go:embed assets/page.html
	pageHTML []byte
	//go:embed assets/page.css
	pageCSS string
	//go:embed assets/page.js
	pageJS string
)

// =============================================================================
// PATTERNS
// =============================================================================

// The script patterns need lazy quantifiers that span newlines, and every
// pattern reads its captures by name.
var (
	cssRulePattern     = regexp2.MustCompile(`(?<selector>[^{}]+)\{(?<body>[^{}]+)\}`, regexp2.None)
	cssPropertyPattern = regexp2.MustCompile(`(?<name>[\w-]+)\s*:\s*(?<value>[^;]+);?`, regexp2.None)
	jsFunctionPattern  = regexp2.MustCompile(`function\s+(?<name>\w+)\s*\((?<args>.*?)\)\s*\{(?<body>.*?)\}`, regexp2.Singleline)
	jsListenerPattern  = regexp2.MustCompile(`document\.addEventListener\(['"](?<event>\w+)['"],\s*function\s*\(\)\s*\{(?<body>.*?)\}\);`, regexp2.Singleline)
)

// MarkupSummary is what one parse of the page yields.
type MarkupSummary struct {
	// Elements counts start tags by name.
	Elements map[string]int
	// Attributes is the total attribute count over all start tags.
	Attributes int
	// Unclosed holds tags left on the open stack at EOF.
	Unclosed int
	// Rules maps CSS selectors to their declarations.
	Rules map[string]map[string]string
	// Functions maps named script functions to their bodies.
	Functions map[string]string
	// Listeners maps document event names to handler bodies.
	Listeners map[string]string
}

// voidElements never get an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// ParseHTML tokenizes doc and tracks element nesting.
func ParseHTML(doc []byte, s *MarkupSummary) error {
	z := html.NewTokenizer(bytes.NewReader(doc))
	var stack []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				s.Unclosed += len(stack)
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			s.Elements[tag]++
			for hasAttr {
				_, _, hasAttr = z.TagAttr()
				s.Attributes++
			}
			if !voidElements[tag] {
				stack = append(stack, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := len(stack); n > 0 && stack[n-1] == string(name) {
				stack = stack[:n-1]
			}
		}
	}
}

// ParseCSS extracts selector blocks and their declarations.
func ParseCSS(css string, s *MarkupSummary) error {
	m, err := cssRulePattern.FindStringMatch(css)
	for ; m != nil && err == nil; m, err = cssRulePattern.FindNextMatch(m) {
		selector := strings.TrimSpace(m.GroupByName("selector").String())
		props := make(map[string]string)
		p, perr := cssPropertyPattern.FindStringMatch(m.GroupByName("body").String())
		for ; p != nil && perr == nil; p, perr = cssPropertyPattern.FindNextMatch(p) {
			props[p.GroupByName("name").String()] = strings.TrimSpace(p.GroupByName("value").String())
		}
		if perr != nil {
			return perr
		}
		s.Rules[selector] = props
	}
	return err
}

// ScanScript finds named functions and document-level event listeners.
func ScanScript(js string, s *MarkupSummary) error {
	m, err := jsFunctionPattern.FindStringMatch(js)
	for ; m != nil && err == nil; m, err = jsFunctionPattern.FindNextMatch(m) {
		s.Functions[m.GroupByName("name").String()] = m.GroupByName("body").String()
	}
	if err != nil {
		return err
	}
	m, err = jsListenerPattern.FindStringMatch(js)
	for ; m != nil && err == nil; m, err = jsListenerPattern.FindNextMatch(m) {
		s.Listeners[m.GroupByName("event").String()] = strings.TrimSpace(m.GroupByName("body").String())
	}
	return err
}

// ParsePage runs all three parsers over the embedded page.
func ParsePage() (*MarkupSummary, error) {
	s := &MarkupSummary{
		Elements:  make(map[string]int),
		Rules:     make(map[string]map[string]string),
		Functions: make(map[string]string),
		Listeners: make(map[string]string),
	}
	if err := ParseHTML(pageHTML, s); err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	if err := ParseCSS(pageCSS, s); err != nil {
		return nil, fmt.Errorf("css: %w", err)
	}
	if err := ScanScript(pageJS, s); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return s, nil
}

func markupWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDMarkupParsing,
		Name:        "HTML5/JS/CSS",
		Description: "tokenize a page, extract style rules and script handlers",
		Category:    benchmark.CategoryExternalPrimitive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			for i := 0; i < workSize; i++ {
				s, err := ParsePage()
				if err != nil {
					return err
				}
				if replica == 0 {
					sink.i = int64(s.Attributes)
				}
			}
			return nil
		},
	}
}
