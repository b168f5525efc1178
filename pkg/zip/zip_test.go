package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchive(t *testing.T) {
	modified := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data, err := Archive([]Entry{
		{Filename: "transactions.csv", Modified: modified, Data: []byte("Date,Amount\n")},
		{Filename: "README.txt", Modified: modified, Data: []byte("2 entities")},
	})
	if err != nil {
		t.Fatalf("Archive error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "transactions.csv" {
		t.Fatalf("unexpected entries: %+v", zr.File)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "Date,Amount\n" {
		t.Fatalf("unexpected entry body %q", body)
	}
}
