package report

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/stockdb/internal/fetch"
)

const formPath = "/server-java/t57sb01"

func zipWith(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// mopsServer answers step 1 with filename and step 9 with step9.
func mopsServer(t *testing.T, filename string, step9 []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == formPath && r.Method == http.MethodPost:
			r.ParseForm()
			switch r.PostForm.Get("step") {
			case "1":
				if r.PostForm.Get("co_id") != "2330" || r.PostForm.Get("year") != "112" || r.PostForm.Get("dtype") != "F04" {
					t.Errorf("step 1 form = %v", r.PostForm)
				}
				if filename == "" {
					w.Write([]byte(`<html><body>查無資料</body></html>`))
					return
				}
				w.Write([]byte(`<html><body><table><tr><td><a href="javascript:readfile2('F','2330','` + filename + `');">` + filename + `</a></td></tr></table></body></html>`))
			case "9":
				if r.PostForm.Get("filename") != filename || r.PostForm.Get("kind") != "F" {
					t.Errorf("step 9 form = %v", r.PostForm)
				}
				w.Write(step9)
			default:
				t.Errorf("unexpected step %q", r.PostForm.Get("step"))
			}
		case r.URL.Path == "/pdf/2023_2330.pdf":
			w.Write([]byte("%PDF-direct"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestDownloader(t *testing.T, baseURL string) *Downloader {
	t.Helper()
	return NewDownloader(DownloaderConfig{
		BaseURL:  baseURL,
		FormPath: formPath,
		PDFDir:   filepath.Join(t.TempDir(), "pdf"),
	}, fetch.NewClient(fetch.WithRetries(1, time.Millisecond)), nil)
}

func TestAnnualReport_Link(t *testing.T) {
	srv := mopsServer(t, "2023_2330_AI1.pdf", []byte(`<html><body><a href="/pdf/2023_2330.pdf">download</a></body></html>`))
	d := newTestDownloader(t, srv.URL)

	path, err := d.AnnualReport(context.Background(), "2330", 112)
	if err != nil {
		t.Fatalf("AnnualReport() error = %v", err)
	}
	if filepath.Base(path) != "112_2330.pdf" {
		t.Errorf("path = %s, want 112_2330.pdf", path)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "%PDF-direct" {
		t.Errorf("content = %q", got)
	}
}

func TestAnnualReport_Zip(t *testing.T) {
	archive := zipWith(t, map[string]string{
		"readme.txt":    "ignored",
		"2023_2330.pdf": "%PDF-zipped",
	})
	srv := mopsServer(t, "2023_2330_AI1.zip", archive)
	d := newTestDownloader(t, srv.URL)

	path, err := d.AnnualReport(context.Background(), "2330", 112)
	if err != nil {
		t.Fatalf("AnnualReport() error = %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "%PDF-zipped" {
		t.Errorf("content = %q", got)
	}
}

func TestAnnualReport_ZipWithoutPDF(t *testing.T) {
	srv := mopsServer(t, "2023_2330_AI1.zip", zipWith(t, map[string]string{"a.txt": "x"}))
	d := newTestDownloader(t, srv.URL)

	_, err := d.AnnualReport(context.Background(), "2330", 112)
	if !errors.Is(err, ErrNoReport) {
		t.Errorf("err = %v, want ErrNoReport", err)
	}
}

func TestAnnualReport_NoListing(t *testing.T) {
	srv := mopsServer(t, "", nil)
	d := newTestDownloader(t, srv.URL)

	_, err := d.AnnualReport(context.Background(), "2330", 112)
	if !errors.Is(err, ErrNoReport) {
		t.Errorf("err = %v, want ErrNoReport", err)
	}
	if _, statErr := os.Stat(d.PDFPath("2330", 112)); !os.IsNotExist(statErr) {
		t.Error("no file should be written")
	}
}

func TestAnnualReport_NoDownloadLink(t *testing.T) {
	srv := mopsServer(t, "2023_2330_AI1.pdf", []byte(`<html><body>檔案不存在</body></html>`))
	d := newTestDownloader(t, srv.URL)

	_, err := d.AnnualReport(context.Background(), "2330", 112)
	if !errors.Is(err, ErrNoReport) {
		t.Errorf("err = %v, want ErrNoReport", err)
	}
}

func TestDownloader_Pause(t *testing.T) {
	d := NewDownloader(DownloaderConfig{MinWait: 10 * time.Millisecond, MaxWait: 20 * time.Millisecond}, nil, nil)

	for i := 0; i < 5; i++ {
		start := time.Now()
		if err := d.pause(context.Background()); err != nil {
			t.Fatalf("pause() error = %v", err)
		}
		if el := time.Since(start); el < 10*time.Millisecond {
			t.Errorf("pause took %v, want >= 10ms", el)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.pause(ctx); err == nil {
		t.Error("pause() should fail on a cancelled context")
	}
}

func TestAnnualReport_Requests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := newTestDownloader(t, srv.URL)
	if _, err := d.AnnualReport(context.Background(), "2330", 112); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}
