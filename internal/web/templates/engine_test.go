package templates

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
)

func bootTestEngine(t *testing.T) *Engine {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	Register(Set{
		Name: "shared",
		FS: fstest.MapFS{
			"layout.gohtml": {Data: []byte(
				`{{ define "layout" }}<html><body>{{ template "content" . }}</body></html>{{ end }}`)},
		},
		Patterns: []string{"*.gohtml"},
	})
	Register(Set{
		Name: "pages",
		FS: fstest.MapFS{
			"home.gohtml": {Data: []byte(
				`{{ define "home" }}{{ template "layout" . }}{{ end }}` +
					`{{ define "content" }}<h1>Welcome {{ .Name }}</h1>{{ end }}`)},
			"contact.gohtml": {Data: []byte(
				`{{ define "contact" }}{{ template "layout" . }}{{ end }}` +
					`{{ define "content" }}<form>{{ .Name }}</form>{{ end }}`)},
		},
		Patterns: []string{"*.gohtml"},
	})

	e := New()
	if err := e.Boot(zap.NewNop()); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return e
}

func TestEngine_RenderPage(t *testing.T) {
	e := bootTestEngine(t)

	var buf bytes.Buffer
	if err := e.Render(&buf, "home", map[string]string{"Name": "Ada"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "<h1>Welcome Ada</h1>") {
		t.Errorf("rendered = %s", got)
	}
	if !strings.Contains(got, "<html>") {
		t.Error("page should render inside the shared layout")
	}
}

func TestEngine_PagesGetTheirOwnContent(t *testing.T) {
	e := bootTestEngine(t)

	var home, contact bytes.Buffer
	if err := e.Render(&home, "home", map[string]string{"Name": "x"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Render(&contact, "contact", map[string]string{"Name": "x"}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(home.String(), "<h1>") || strings.Contains(home.String(), "<form>") {
		t.Errorf("home rendered the wrong content block: %s", home.String())
	}
	if !strings.Contains(contact.String(), "<form>") || strings.Contains(contact.String(), "<h1>") {
		t.Errorf("contact rendered the wrong content block: %s", contact.String())
	}
}

func TestEngine_UnknownTemplate(t *testing.T) {
	e := bootTestEngine(t)

	var buf bytes.Buffer
	if err := e.Render(&buf, "nope", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written on error")
	}
}

func TestEngine_MissingSharedSet(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(Set{
		Name:     "pages",
		FS:       fstest.MapFS{"p.gohtml": {Data: []byte(`{{ define "p" }}x{{ end }}`)}},
		Patterns: []string{"*.gohtml"},
	})

	e := New()
	if err := e.Boot(zap.NewNop()); err == nil {
		t.Fatal("expected error when shared set is not registered")
	}
}
