package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DocxParser flattens Word documents into plain text. A .docx file is a
// ZIP archive; paragraph text lives in the w:t runs of word/document.xml
// and all other structure is discarded.
type DocxParser struct{}

func (p *DocxParser) Extensions() []string { return []string{".docx"} }

func (p *DocxParser) Name() string { return "docx" }

func (p *DocxParser) Parse(path string, data []byte) (string, map[string]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("docx %s: %w", path, err)
	}
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", nil, fmt.Errorf("docx %s: %w", path, err)
		}
		text, err := extractParagraphText(rc)
		rc.Close()
		if err != nil {
			return "", nil, fmt.Errorf("docx %s: %w", path, err)
		}
		return text, nil, nil
	}
	return "", nil, fmt.Errorf("docx %s: missing word/document.xml", path)
}

// extractParagraphText walks the document XML token stream, collecting
// text runs and emitting a newline at each paragraph end.
func extractParagraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	var inText bool
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
