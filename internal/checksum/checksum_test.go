package checksum

import "testing"

func TestKey(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Key("abc"); got != want {
		t.Errorf("Key = %s, want %s", got, want)
	}
	if Key("a") == Key("b") {
		t.Error("distinct keys should not collide")
	}
}
