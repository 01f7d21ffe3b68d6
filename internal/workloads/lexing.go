// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	_ "embed"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

//go:embed assets/inventory.go.txt
var inventorySource string

// TokenStats summarizes one lexing pass.
type TokenStats struct {
	Tokens      int
	Keywords    int
	Names       int
	Literals    int
	Comments    int
	ErrorTokens int
}

// LexSource tokenizes source with the named chroma lexer.
func LexSource(language, source string) (TokenStats, error) {
	var stats TokenStats
	lexer := lexers.Get(language)
	if lexer == nil {
		return stats, fmt.Errorf("no lexer for %q", language)
	}
	it, err := lexer.Tokenise(nil, source)
	if err != nil {
		return stats, err
	}
	for tok := it(); tok != chroma.EOF; tok = it() {
		stats.Tokens++
		switch {
		case tok.Type == chroma.Error:
			stats.ErrorTokens++
		case tok.Type.InCategory(chroma.Keyword):
			stats.Keywords++
		case tok.Type.InCategory(chroma.Name):
			stats.Names++
		case tok.Type.InCategory(chroma.Literal):
			stats.Literals++
		case tok.Type.InCategory(chroma.Comment):
			stats.Comments++
		}
	}
	return stats, nil
}

// codeLexingWorkload stands in for a compile step: it lexes a small Go
// program and rejects any pass that produced error tokens.
func codeLexingWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDCodeLexing,
		Name:        "Code Lexing",
		Description: "tokenize a Go program with chroma",
		Category:    benchmark.CategoryExternalPrimitive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			for i := 0; i < workSize; i++ {
				stats, err := LexSource("go", inventorySource)
				if err != nil {
					return err
				}
				if stats.ErrorTokens > 0 {
					return fmt.Errorf("lexer produced %d error tokens", stats.ErrorTokens)
				}
				if replica == 0 {
					sink.i = int64(stats.Tokens)
				}
			}
			return nil
		},
	}
}
