package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/retry"
)

// Languages accepted for generated résumés.
var Languages = []string{"es", "en"}

// UploadExtensions are the file types the parser accepts.
var UploadExtensions = []string{".pdf", ".docx", ".txt"}

// ValidLanguage reports whether lang is one of Languages.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// SummaryRequest asks the server to summarize a job description. Text wins
// over URL when both are set.
type SummaryRequest struct {
	Text string `json:"jd_text,omitempty"`
	URL  string `json:"job_url,omitempty"`
}

// MatchResult is the server's profile/position assessment.
type MatchResult struct {
	Approved       bool     `json:"approved"`
	Score          float64  `json:"score"`
	Threshold      float64  `json:"threshold"`
	SeniorityFit   string   `json:"seniority_fit"`
	Recommendation string   `json:"recommendation"`
	ReasonsFor     []string `json:"reasons_for"`
	ReasonsAgainst []string `json:"reasons_against"`
}

// Seniority fit values.
const (
	FitMatch          = "match"
	FitOverqualified  = "overqualified"
	FitUnderqualified = "underqualified"
)

// AdaptResult names the generated artifacts. Empty means not produced.
type AdaptResult struct {
	PDF     string `json:"pdf_filename,omitempty"`
	DOCX    string `json:"docx_filename,omitempty"`
	Summary string `json:"jd_summary,omitempty"`
}

// Files lists the produced artifact names.
func (r AdaptResult) Files() []string {
	var out []string
	for _, f := range []string{r.PDF, r.DOCX} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// GetProfile fetches the stored profile. Transient failures are retried.
func (c *Client) GetProfile(ctx context.Context) (doc.Node, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()
	return retry.Do(ctx, c.retry, func(ctx context.Context, attempt int) (doc.Node, error) {
		n, err := c.call(ctx, http.MethodGet, "/api/profile", nil, joined("failed to load profile"))
		return n, retryable(err)
	})
}

// SaveProfile stores p as the profile.
func (c *Client) SaveProfile(ctx context.Context, p doc.Node) error {
	_, err := c.call(ctx, http.MethodPut, "/api/profile", p, joined("failed to save profile"))
	return err
}

// Summarize asks for the position summary. A null or missing summary is "".
func (c *Client) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	n, err := c.call(ctx, http.MethodPost, "/api/jd/summary", req, joined("failed to get summary"))
	if err != nil {
		return "", err
	}
	s, _ := n.Field("jd_summary")
	if s.IsMap() || s.IsSeq() {
		b, _ := s.MarshalJSON()
		return string(b), nil
	}
	return s.Text(), nil
}

// Match assesses profile against the job description text.
func (c *Client) Match(ctx context.Context, profile doc.Node, jd string) (MatchResult, error) {
	body := doc.MapOf(
		doc.Field{Key: "profile", Value: profile},
		doc.Field{Key: "jd", Value: doc.String(jd)},
	)
	n, err := c.call(ctx, http.MethodPost, "/api/cv/match", body, joined("match analysis failed"))
	if err != nil {
		return MatchResult{}, err
	}
	return decodeMatch(n)
}

func decodeMatch(n doc.Node) (MatchResult, error) {
	if !n.IsMap() {
		return MatchResult{}, fmt.Errorf("%w: match result is %s", ErrMalformedResponse, n.Kind())
	}
	field := func(k string) doc.Node {
		v, _ := n.Field(k)
		return v
	}
	strs := func(k string) []string {
		var out []string
		for _, it := range field(k).Items() {
			if s := it.Text(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	num := func(k string) float64 {
		f, _ := field(k).Num()
		return f
	}
	return MatchResult{
		Approved:       field("approved").Truthy(),
		Score:          num("score"),
		Threshold:      num("threshold"),
		SeniorityFit:   field("seniority_fit").Text(),
		Recommendation: field("recommendation").Text(),
		ReasonsFor:     strs("reasons_for"),
		ReasonsAgainst: strs("reasons_against"),
	}, nil
}

// Adapt generates the résumé for the last summarized position.
func (c *Client) Adapt(ctx context.Context, language string) (AdaptResult, error) {
	body := map[string]string{"language": language}
	n, err := c.call(ctx, http.MethodPost, "/api/adapt", body, joined("failed to generate résumé"))
	if err != nil {
		return AdaptResult{}, err
	}
	text := func(k string) string {
		v, _ := n.Field(k)
		return v.Text()
	}
	return AdaptResult{PDF: text("pdf_filename"), DOCX: text("docx_filename"), Summary: text("jd_summary")}, nil
}

// ParseAndEnrich uploads a résumé file and returns the enriched profile.
func (c *Client) ParseAndEnrich(ctx context.Context, filename string, r io.Reader) (doc.Node, error) {
	return c.upload(ctx, "/api/cv/parse-and-enrich", filename, r, "failed to parse and enrich")
}

// Parse uploads a résumé file and returns the parsed profile without
// enrichment.
func (c *Client) Parse(ctx context.Context, filename string, r io.Reader) (doc.Node, error) {
	return c.upload(ctx, "/api/cv/parse", filename, r, "failed to parse")
}

// Enrich asks the server to fill in facts, capabilities and technologies.
func (c *Client) Enrich(ctx context.Context, p doc.Node) (doc.Node, error) {
	body := doc.MapOf(doc.Field{Key: "profile", Value: p})
	n, err := c.call(ctx, http.MethodPost, "/api/cv/enrich", body, verbatim("failed to enrich"))
	if err != nil {
		return doc.Node{}, err
	}
	out, ok := n.Field("profile")
	if !ok || !out.IsMap() {
		return doc.Node{}, fmt.Errorf("%w: enrich reply has no profile", ErrMalformedResponse)
	}
	return out, nil
}

func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader, fallback string) (doc.Node, error) {
	if !allowedUpload(filename) {
		return doc.Node{}, ErrUnsupportedFile
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return doc.Node{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return doc.Node{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return doc.Node{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return doc.Node{}, err
	}
	resp, err := c.send(req)
	if err != nil {
		return doc.Node{}, err
	}
	n, err := decode(resp, verbatim(fallback))
	if err != nil {
		return doc.Node{}, err
	}
	if !n.IsMap() {
		return doc.Node{}, fmt.Errorf("%w: profile is %s", ErrMalformedResponse, n.Kind())
	}
	return n, nil
}

func allowedUpload(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range UploadExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// DownloadURL is the address of a generated artifact. inline asks the
// server to serve it for preview.
func (c *Client) DownloadURL(filename string, inline bool) string {
	return c.baseURL + downloadPath(filename, inline)
}

func downloadPath(filename string, inline bool) string {
	p := "/api/cv/download/" + url.PathEscape(filename)
	if inline {
		p += "?inline=true"
	}
	return p
}

// Download streams a generated artifact into w.
func (c *Client) Download(ctx context.Context, filename string, inline bool, w io.Writer) (int64, error) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return 0, ErrInvalidFilename
	}
	ctx, cancel := c.bounded(ctx)
	defer cancel()
	return retry.Do(ctx, c.retry, func(ctx context.Context, attempt int) (int64, error) {
		req, err := c.newRequest(ctx, http.MethodGet, downloadPath(filename, inline), nil, "")
		if err != nil {
			return 0, err
		}
		req.Header.Set("Accept", "*/*")
		resp, err := c.send(req)
		if err != nil {
			return 0, retryable(err)
		}
		if resp.StatusCode >= 400 {
			_, err := decode(resp, joined("download failed"))
			return 0, retryable(err)
		}
		defer resp.Body.Close()
		n, err := io.Copy(w, resp.Body)
		if err != nil {
			return n, fmt.Errorf("writing %s: %w", filename, err)
		}
		return n, nil
	})
}
