package handler

import (
	"strings"
	"testing"
)

func TestParseExclude(t *testing.T) {
	ids, err := parseExclude([]string{"65f1c0ffee65f1c0ffee0001, 65f1c0ffee65f1c0ffee0002", "", "65f1c0ffee65f1c0ffee0003"})
	if err != nil {
		t.Fatalf("parseExclude: %v", err)
	}
	if len(ids) != 3 || ids[2].Hex() != "65f1c0ffee65f1c0ffee0003" {
		t.Errorf("ids = %v", ids)
	}

	if _, err := parseExclude([]string{"abc"}); err == nil {
		t.Error("expected error for malformed id")
	}

	many := strings.TrimSuffix(strings.Repeat("65f1c0ffee65f1c0ffee0001,", maxExclude+1), ",")
	if _, err := parseExclude([]string{many}); err == nil {
		t.Error("expected error for too many ids")
	}
}
