package util

import (
	"strings"
	"testing"
)

func TestDocKey(t *testing.T) {
	if got := DocKey("user", "42"); got != "doc:user:42" {
		t.Fatalf("DocKey = %q", got)
	}

	long := strings.Repeat("x", MaxIDLen+1)
	k := DocKey("user", long)
	if len(k) != len("doc:user:#")+64 {
		t.Fatalf("hashed key has length %d", len(k))
	}
	if k != DocKey("user", long) {
		t.Fatalf("hashed key not deterministic")
	}
	if k == DocKey("user", long+"y") {
		t.Fatalf("distinct ids share a key")
	}
}

func TestDocPrefix(t *testing.T) {
	p := DocPrefix("user")
	for _, id := range []string{"42", strings.Repeat("x", MaxIDLen+1)} {
		if !strings.HasPrefix(DocKey("user", id), p) {
			t.Fatalf("key for %q lacks prefix %q", id, p)
		}
	}
	if strings.HasPrefix(DocKey("users", "1"), p) {
		t.Fatalf("prefix %q matches another namespace", p)
	}
}
