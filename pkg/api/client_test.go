package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/retry"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithRetry(retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestDetailMessage(t *testing.T) {
	tests := []struct {
		name   string
		detail string
		want   string
	}{
		{"string", `"profile not found"`, "profile not found"},
		{"list of msgs", `[{"msg":"field required"},{"msg":"too short"}]`, "field required, too short"},
		{"list of strings", `["a","b"]`, "a, b"},
		{"list item without msg", `[{"loc":["body"]}]`, `{"loc":["body"]}`},
		{"null", `null`, "fallback"},
		{"empty string", `""`, "fallback"},
		{"object with msg", `{"msg":"bad"}`, "bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := doc.ParseJSON([]byte(tt.detail))
			if err != nil {
				t.Fatal(err)
			}
			if got := DetailMessage(d, "fallback"); got != tt.want {
				t.Errorf("DetailMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetailVerbatim(t *testing.T) {
	tests := []struct {
		detail string
		want   string
	}{
		{`"unsupported format"`, "unsupported format"},
		{`[{"msg":"x"}]`, `[{"msg":"x"}]`},
		{`{"code":3}`, `{"code":3}`},
		{`null`, "default"},
	}
	for _, tt := range tests {
		d, _ := doc.ParseJSON([]byte(tt.detail))
		if got := DetailVerbatim(d, "default"); got != tt.want {
			t.Errorf("DetailVerbatim(%s) = %q, want %q", tt.detail, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	var gotBody map[string]any
	var gotID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jd/summary" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotID = r.Header.Get(RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, `{"jd_summary":"Senior Go role"}`)
	})

	got, err := c.Summarize(context.Background(), SummaryRequest{Text: "We need Go"})
	if err != nil {
		t.Fatalf("Summarize error = %v", err)
	}
	if got != "Senior Go role" {
		t.Errorf("summary = %q", got)
	}
	if gotBody["jd_text"] != "We need Go" {
		t.Errorf("request body = %v", gotBody)
	}
	if _, ok := gotBody["job_url"]; ok {
		t.Error("empty job_url should be omitted")
	}
	if gotID == "" {
		t.Error("missing request id header")
	}
}

func TestSummarizeCoercesSummary(t *testing.T) {
	for body, want := range map[string]string{
		`{"jd_summary":null}`: "",
		`{}`:                  "",
		`{"jd_summary":12}`:   "12",
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, body)
		})
		got, err := c.Summarize(context.Background(), SummaryRequest{Text: "x"})
		if err != nil || got != want {
			t.Errorf("Summarize(%s) = %q, %v; want %q", body, got, err, want)
		}
	}
}

func TestSummarizeErrorDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":[{"msg":"jd_text required"},{"msg":"too short"}]}`)
	})
	_, err := c.Summarize(context.Background(), SummaryRequest{Text: "x"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message != "jd_text required, too short" {
		t.Errorf("error = %d %q", apiErr.Status, apiErr.Message)
	}
}

func TestMalformedResponse(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, "<html>proxy error</html>")
		})
		_, err := c.Summarize(context.Background(), SummaryRequest{Text: "x"})
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("status %d: err = %v, want ErrMalformedResponse", status, err)
		}
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Summarize(ctx, SummaryRequest{Text: "x"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestTimeoutCapsOnlyProfileAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(150 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		if r.URL.Path == "/api/cv/match" {
			writeJSON(w, http.StatusOK, `{"approved":false,"score":40,"threshold":70}`)
			return
		}
		writeJSON(w, http.StatusOK, `{}`)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithTimeout(40*time.Millisecond), WithRetry(retry.None()))

	if _, err := c.Match(context.Background(), doc.NewMap(), "jd"); err != nil {
		t.Errorf("Match error = %v, want no cap on match", err)
	}
	if _, err := c.GetProfile(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Errorf("GetProfile err = %v, want ErrTimeout", err)
	}
	if _, err := c.Download(context.Background(), "cv_es.pdf", false, io.Discard); !errors.Is(err, ErrTimeout) {
		t.Errorf("Download err = %v, want ErrTimeout", err)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithRetry(retry.None()))
	_, err := c.Summarize(context.Background(), SummaryRequest{Text: "x"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Profile map[string]any `json:"profile"`
			JD      string         `json:"jd"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.JD != "the jd" || body.Profile["personal"] == nil {
			t.Errorf("match body = %+v", body)
		}
		writeJSON(w, http.StatusOK, `{"approved":true,"score":82.5,"threshold":70,"seniority_fit":"match",
			"recommendation":"go","reasons_for":["Go"],"reasons_against":[]}`)
	})
	profile, _ := doc.ParseJSON([]byte(`{"personal":{"firstName":"Ana"}}`))
	got, err := c.Match(context.Background(), profile, "the jd")
	if err != nil {
		t.Fatalf("Match error = %v", err)
	}
	if !got.Approved || got.Score != 82.5 || got.SeniorityFit != FitMatch || len(got.ReasonsFor) != 1 {
		t.Errorf("match = %+v", got)
	}
}

func TestMatchRejectsNonObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[1,2]`)
	})
	if _, err := c.Match(context.Background(), doc.NewMap(), "x"); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v", err)
	}
}

func TestAdaptPartialArtifacts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"language":"en"}` {
			t.Errorf("adapt body = %s", body)
		}
		writeJSON(w, http.StatusOK, `{"pdf_filename":"cv_en.pdf"}`)
	})
	got, err := c.Adapt(context.Background(), "en")
	if err != nil {
		t.Fatal(err)
	}
	if got.PDF != "cv_en.pdf" || got.DOCX != "" || len(got.Files()) != 1 {
		t.Errorf("adapt = %+v", got)
	}
}

func TestParseAndEnrichUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cv/parse-and-enrich" {
			t.Errorf("path = %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile error = %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "cv.txt" || string(data) != "plain résumé" {
			t.Errorf("upload = %s %q", hdr.Filename, data)
		}
		writeJSON(w, http.StatusOK, `{"personal":{"firstName":"Ana"}}`)
	})
	got, err := c.ParseAndEnrich(context.Background(), "/tmp/cv.txt", strings.NewReader("plain résumé"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.GetText(got, doc.P("personal", "firstName")) != "Ana" {
		t.Errorf("profile = %v", got.Interface())
	}
}

func TestParseAndEnrichStructuredDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"detail":[{"msg":"bad file"}]}`)
	})
	_, err := c.ParseAndEnrich(context.Background(), "cv.pdf", strings.NewReader("%PDF"))
	if err == nil || err.Error() != `[{"msg":"bad file"}]` {
		t.Errorf("err = %v", err)
	}
}

func TestUploadRejectsExtension(t *testing.T) {
	c := New("http://127.0.0.1:0")
	if _, err := c.ParseAndEnrich(context.Background(), "cv.odt", strings.NewReader("")); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("err = %v", err)
	}
}

func TestGetProfileRetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{"detail":"warming up"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"personal":{"firstName":"Ana"}}`)
	})
	got, err := c.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("GetProfile error = %v", err)
	}
	if calls.Load() != 3 || doc.GetText(got, doc.P("personal", "firstName")) != "Ana" {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestGetProfileNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, `{"detail":"profile not found"}`)
	})
	_, err := c.GetProfile(context.Background())
	if StatusOf(err) != http.StatusNotFound || calls.Load() != 1 {
		t.Errorf("err = %v after %d calls", err, calls.Load())
	}
}

func TestSaveProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"strategy":{"seniority":"Principal"}}` {
			t.Errorf("body = %s", body)
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})
	d, _ := doc.ParseJSON([]byte(`{"strategy":{"seniority":"Principal"}}`))
	if err := c.SaveProfile(context.Background(), d); err != nil {
		t.Fatal(err)
	}
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cv/download/cv_es.pdf" || r.URL.Query().Get("inline") != "true" {
			t.Errorf("url = %s", r.URL)
		}
		_, _ = io.WriteString(w, "%PDF-1.7")
	})
	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "cv_es.pdf", true, &buf)
	if err != nil || n != 8 || buf.String() != "%PDF-1.7" {
		t.Errorf("Download = %d, %v, %q", n, err, buf.String())
	}
	if _, err := c.Download(context.Background(), "../etc/passwd", false, &buf); !errors.Is(err, ErrInvalidFilename) {
		t.Errorf("traversal err = %v", err)
	}
	if got := c.DownloadURL("a b.pdf", false); !strings.HasSuffix(got, "/api/cv/download/a%20b.pdf") {
		t.Errorf("DownloadURL = %s", got)
	}
}

func TestValidLanguage(t *testing.T) {
	if !ValidLanguage("es") || !ValidLanguage("en") || ValidLanguage("fr") {
		t.Error("ValidLanguage accepts only es and en")
	}
}
