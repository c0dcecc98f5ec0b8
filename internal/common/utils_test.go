package common

import "testing"

func TestContentHash(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "empty", data: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{name: "abc", data: "abc", want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentHash([]byte(tt.data)); got != tt.want {
				t.Errorf("ContentHash(%q) = %s, want %s", tt.data, got, tt.want)
			}
		})
	}
}

func TestHostname(t *testing.T) {
	if Hostname() == "" {
		t.Error("Hostname() returned empty string")
	}
}
