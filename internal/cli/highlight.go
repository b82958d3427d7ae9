// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// highlight.go - Code highlighting for message bodies in line mode.

package cli

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

const fence = "```"

// highlightBody highlights fenced code blocks in content. Text outside the
// fences is returned unchanged; an unclosed fence is highlighted to the end.
func highlightBody(content string) string {
	if !strings.Contains(content, fence) {
		return content
	}

	var (
		out      []string
		code     []string
		language string
		inCode   bool
	)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inCode && strings.HasPrefix(trimmed, fence):
			inCode = true
			language = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
			code = code[:0]
		case inCode && trimmed == fence:
			inCode = false
			out = append(out, highlightCode(strings.Join(code, "\n"), language))
		case inCode:
			code = append(code, line)
		default:
			out = append(out, line)
		}
	}
	if inCode && len(code) > 0 {
		out = append(out, highlightCode(strings.Join(code, "\n"), language))
	}
	return strings.Join(out, "\n")
}

// highlightCode applies terminal syntax highlighting to code. The language
// is guessed when not given.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
