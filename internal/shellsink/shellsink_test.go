package shellsink

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddPreservesOrder(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "src"))
	s.Add("export A=1")
	s.Add("cd /tmp")

	got := s.Commands()
	want := []string{"export A=1", "cd /tmp"}
	if len(got) != len(want) {
		t.Fatalf("Commands() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Commands()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteEmitsOneLinePerCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src")
	s := New(path)
	s.Add("export A=1")
	s.Add("cd /tmp")

	if err := s.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "export A=1\ncd /tmp\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", string(data), want)
	}
}

func TestWriteWithNoCommandsProducesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src")
	s := New(path)

	if err := s.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) != 0 {
		t.Errorf("file content = %q, want empty", string(data))
	}
}
