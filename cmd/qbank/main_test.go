package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stemsi/qbank-backend/internal/model"
)

func TestReadQuestions(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	one, err := readQuestions(write("one.json", ` {"content":"x"} `))
	if err != nil || len(one) != 1 {
		t.Errorf("single object: %v, %v", one, err)
	}

	many, err := readQuestions(write("many.json", `[{"content":"a"},{"content":"b"}]`))
	if err != nil || len(many) != 2 {
		t.Errorf("array: %v, %v", many, err)
	}

	for name, body := range map[string]string{"empty.json": "  ", "bad.json": "{", "badarr.json": "[1,"} {
		if _, err := readQuestions(write(name, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRandomPath(t *testing.T) {
	if got := randomPath(model.KindOpenEnded, nil); got != "/api/questions/openEnded/random" {
		t.Errorf("path = %q", got)
	}
	got := randomPath(model.KindGrammaire, []string{"a1", "b2"})
	if got != "/api/questions/grammaire/random?exclude=a1%2Cb2" {
		t.Errorf("path = %q", got)
	}
}

func TestCreatedID(t *testing.T) {
	if id := createdID([]byte(`{"status":"success","data":{"id":"65f1"}}`)); id != "65f1" {
		t.Errorf("id = %q", id)
	}
	if id := createdID([]byte(`null`)); id != "" {
		t.Errorf("id = %q", id)
	}
}
