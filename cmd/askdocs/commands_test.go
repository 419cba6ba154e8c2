package main

import (
	"strings"
	"testing"
)

func TestStoredName(t *testing.T) {
	got := storedName("acme", "acme-usr1", "/tmp/uploads/Report Final.pdf")

	if !strings.HasPrefix(got, "acme_usr1_") {
		t.Errorf("prefix wrong: %q", got)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("extension lost: %q", got)
	}
	if strings.ContainsAny(got, " /") {
		t.Errorf("unsafe characters kept: %q", got)
	}
}

func TestStoredNameDistinct(t *testing.T) {
	a := storedName("acme", "acme-usr1", "notes.txt")
	b := storedName("acme", "acme-usr1", "notes.txt")
	if a == b {
		t.Error("two uploads of the same file should get distinct names")
	}
}

func TestAskUserFilterIsOptIn(t *testing.T) {
	cmd := askCmd()

	flag := cmd.Flags().Lookup("filter-user")
	if flag == nil {
		t.Fatal("ask should expose a dedicated --filter-user flag")
	}
	if flag.DefValue != "" {
		t.Errorf("filter-user default = %q, want unfiltered", flag.DefValue)
	}
	// The attribution flag stays persistent on the root command; ask must
	// not shadow it with retrieval semantics.
	if cmd.Flags().Lookup("user") != nil {
		t.Error("ask should not define its own --user flag")
	}
}

func TestStoredNameNoUser(t *testing.T) {
	got := storedName("acme", "", "notes.txt")
	if !strings.HasPrefix(got, "acme_anon_") {
		t.Errorf("expected anon marker, got %q", got)
	}
}
