package hostproto

import (
	"reflect"
	"testing"
)

func TestTokenizeBareTokens(t *testing.T) {
	req, ok := Tokenize("goto 10.5 -2.0 0\r\n")
	if !ok {
		t.Fatal("expected ok")
	}
	want := Request{Name: "GOTO", Args: []string{"10.5", "-2.0", "0"}}
	if !reflect.DeepEqual(req, want) {
		t.Errorf("Tokenize() = %+v, want %+v", req, want)
	}
}

func TestTokenizeQuotedArgument(t *testing.T) {
	req, ok := Tokenize(`save "front door"`)
	if !ok {
		t.Fatal("expected ok")
	}
	want := Request{Name: "SAVE", Args: []string{"front door"}}
	if !reflect.DeepEqual(req, want) {
		t.Errorf("Tokenize() = %+v, want %+v", req, want)
	}
}

func TestTokenizeBlankLine(t *testing.T) {
	if _, ok := Tokenize("   \r\n"); ok {
		t.Error("expected blank line to return ok=false")
	}
	if _, ok := Tokenize(""); ok {
		t.Error("expected empty line to return ok=false")
	}
}

func TestTokenizeUppercasesVerbOnly(t *testing.T) {
	req, ok := Tokenize("Status")
	if !ok {
		t.Fatal("expected ok")
	}
	if req.Name != "STATUS" {
		t.Errorf("Name = %q, want STATUS", req.Name)
	}
	if len(req.Args) != 0 {
		t.Errorf("Args = %v, want empty", req.Args)
	}
}
