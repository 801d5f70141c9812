package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Prompt is a task request read from a file.
type Prompt struct {
	Title string   // First heading, or frontmatter title
	Text  string   // Flattened prose handed to the planner
	Files []string // Optional target files from frontmatter
}

// promptFrontmatter is the optional YAML header of a markdown prompt.
type promptFrontmatter struct {
	Title string   `yaml:"title"`
	Files []string `yaml:"files"`
}

// ReadPromptFile loads a prompt. Markdown files (.md, .markdown) are parsed
// and flattened to text; anything else is used verbatim.
func ReadPromptFile(path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return ParsePromptMarkdown(data)
	default:
		return &Prompt{Text: strings.TrimSpace(string(data))}, nil
	}
}

// ParsePromptMarkdown flattens a markdown document into planner input.
// Headings, paragraphs, list items and code spans become lines of plain
// text; fenced code blocks are dropped.
func ParsePromptMarkdown(content []byte) (*Prompt, error) {
	prompt := &Prompt{}

	body, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		var fm promptFrontmatter
		if err := yaml.Unmarshal(frontmatter, &fm); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		prompt.Title = fm.Title
		prompt.Files = fm.Files
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	var lines []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			heading := inlineText(node, body)
			if prompt.Title == "" {
				prompt.Title = heading
			}
			lines = append(lines, heading)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if line := inlineText(node, body); line != "" {
				lines = append(lines, line)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}

	prompt.Text = strings.Join(lines, "\n")
	return prompt, nil
}

// inlineText concatenates the text segments beneath n, including those
// nested in emphasis, links and code spans.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// extractFrontmatter splits a leading "---" delimited YAML block from the
// content. It returns the body and the frontmatter bytes, or the content
// unchanged and nil when there is none.
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	return content, nil
}
