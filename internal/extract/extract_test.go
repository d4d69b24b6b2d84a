package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestText_DocxExtractsParagraphs(t *testing.T) {
	doc := `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:t>Backend engineer</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go, Postgres</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	data := buildDocx(t, doc)

	text, err := Text(context.Background(), data, mimeDOCX, "resume.docx")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(text, "Backend engineer") || !strings.Contains(text, "Go, Postgres") {
		t.Fatalf("unexpected text: %q", text)
	}
	if !strings.Contains(text, "\n") {
		t.Fatalf("expected paragraph break, got %q", text)
	}
}

func TestText_ZipMimeDocxNormalizes(t *testing.T) {
	data := buildDocx(t, `<w:document><w:body><w:p><w:t>hello</w:t></w:p></w:body></w:document>`)

	if _, err := Text(context.Background(), data, "application/zip", "resume.docx"); err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
}

func TestText_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = Text(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestText_UnknownMimeRejected(t *testing.T) {
	_, err := Text(context.Background(), []byte("plain text"), "text/plain", "resume.txt")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestText_MimeParamsStripped(t *testing.T) {
	data := buildDocx(t, `<w:document><w:body><w:p><w:t>hi</w:t></w:p></w:body></w:document>`)

	if _, err := Text(context.Background(), data, mimeDOCX+"; charset=utf-8", "resume.docx"); err != nil {
		t.Fatalf("Text with mime params: %v", err)
	}
}

func TestText_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Text(ctx, []byte("x"), mimePDF, "resume.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
