package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/docsearch/core"
)

// loadSections reads markdown and plain-text files under path (a file or a
// directory) and splits them into sections. Markdown splits on heading
// lines, with the heading stack becoming the section's heading path; plain
// text becomes a single section per file.
func loadSections(path string) ([]*core.Section, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return loadFileSections(path, filepath.Base(path))
	}

	var sections []*core.Section
	err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		rel, err := filepath.Rel(path, entry)
		if err != nil {
			return err
		}
		fileSections, err := loadFileSections(entry, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		sections = append(sections, fileSections...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func loadFileSections(path, name string) ([]*core.Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".md" {
		return splitMarkdown(name, string(data)), nil
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []*core.Section{{File: name, Text: text}}, nil
}

// splitMarkdown cuts a document at its heading lines. Text before the
// first heading becomes a section with an empty heading path. Heading
// levels maintain a stack, so "## Install" under "# Setup" yields the
// heading path [Setup, Install].
func splitMarkdown(file, content string) []*core.Section {
	var sections []*core.Section
	var stack []string
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" {
			return
		}
		headings := make([]string, len(stack))
		copy(headings, stack)
		sections = append(sections, &core.Section{
			File:        file,
			HeadingPath: headings,
			Text:        text,
		})
	}

	for _, line := range strings.Split(content, "\n") {
		level, title := headingLine(line)
		if level == 0 {
			buf = append(buf, line)
			continue
		}
		flush()
		if level <= len(stack) {
			stack = stack[:level-1]
		}
		stack = append(stack, title)
	}
	flush()

	return sections
}

// headingLine parses an ATX heading, returning its level and title, or 0
// for a non-heading line.
func headingLine(line string) (int, string) {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level == 0 || level > 6 {
		return 0, ""
	}
	title := strings.TrimSpace(trimmed)
	if title == "" {
		return 0, ""
	}
	return level, title
}
