package control

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"hello", Hello([3]int{1080, 1920, 3}, "glfw"), false},
		{"presented", Presented(42), false},
		{"closed", Closed(), false},
		{"error", Error(7, errors.New("boom")), false},
		{"hello without shape", Message{Type: TypeHello}, true},
		{"unknown", Message{Type: "resize"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Decode(data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.msg {
				t.Errorf("Decode() = %+v, want %+v", got, tt.msg)
			}
		})
	}
}

func TestHelloShape(t *testing.T) {
	m := Hello([3]int{720, 1280, 3}, "sdl")
	if got := m.Shape(); got != [3]int{720, 1280, 3} {
		t.Errorf("Shape() = %v", got)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("{"))
	if err == nil || !strings.HasPrefix(err.Error(), "control:") {
		t.Errorf("Decode() error = %v", err)
	}
}
