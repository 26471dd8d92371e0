package sources

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadPostsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.txt")
	content := "plain post\n" +
		"'quoted post with trailing comma',\n" +
		"\n" +
		"   \n" +
		"'quoted only'\n" +
		"','\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}

	posts, err := ReadPostsFile(path)
	if err != nil {
		t.Fatalf("ReadPostsFile() failed: %v", err)
	}

	want := []string{"plain post", "quoted post with trailing comma", "quoted only"}
	if !reflect.DeepEqual(posts, want) {
		t.Errorf("ReadPostsFile() = %v, want %v", posts, want)
	}
}

func TestReadPostsFileMissing(t *testing.T) {
	if _, err := ReadPostsFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWritePostsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.txt")
	posts := []string{"first post.", "second post!"}

	if err := WritePostsFile(path, posts); err != nil {
		t.Fatalf("WritePostsFile() failed: %v", err)
	}

	got, err := ReadPostsFile(path)
	if err != nil {
		t.Fatalf("ReadPostsFile() failed: %v", err)
	}
	if !reflect.DeepEqual(got, posts) {
		t.Errorf("round trip = %v, want %v", got, posts)
	}
}
