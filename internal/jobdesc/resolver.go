package jobdesc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultLinkedInURL = "https://www.linkedin.com/jobs/search"
	DefaultIndeedURL   = "https://www.indeed.com/jobs"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	// Collection stops once more than this many characters were gathered.
	minDescriptionChars = 500
)

var errNoDescription = errors.New("no job descriptions found")

// Resolver finds a job description for a title when the user did not paste one.
type Resolver struct {
	client      *http.Client
	linkedInURL string
	indeedURL   string
	logger      *slog.Logger
}

type Option func(*Resolver)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithBaseURLs overrides the job board search endpoints.
func WithBaseURLs(linkedIn, indeed string) Option {
	return func(r *Resolver) {
		r.linkedInURL = linkedIn
		r.indeedURL = indeed
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:      &http.Client{Timeout: 10 * time.Second},
		linkedInURL: DefaultLinkedInURL,
		indeedURL:   DefaultIndeedURL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "jobdesc")
	return r
}

// Placeholder is the description used when nothing better is available.
func Placeholder(title string) string {
	return fmt.Sprintf("Job description for %s: Seeking a professional with relevant skills and experience.", title)
}

// Resolve returns the user's description when given, otherwise a scraped one,
// otherwise Placeholder. It never fails.
func (r *Resolver) Resolve(ctx context.Context, title, userDescription string) string {
	if strings.TrimSpace(userDescription) != "" {
		r.logger.Debug("using user-provided job description")
		return userDescription
	}

	desc, err := r.scrape(ctx, title)
	if err != nil {
		r.logger.Error("scraping error", "error", err)
		r.logger.Warn("using default job description due to scraping failure", "job_title", title)
		return Placeholder(title)
	}
	r.logger.Debug("scraped job description", "preview", preview(desc, 100))
	return desc
}

func (r *Resolver) scrape(ctx context.Context, title string) (string, error) {
	linkedIn := r.linkedInURL + "?" + url.Values{"keywords": {title}}.Encode()
	desc, err := r.collect(ctx, linkedIn, []string{"description", "job", "posting", "details"})
	if err != nil {
		return "", fmt.Errorf("linkedin: %w", err)
	}

	if desc == "" {
		indeed := r.indeedURL + "?" + url.Values{"q": {title}}.Encode()
		desc, err = r.collect(ctx, indeed, []string{"description", "job", "posting"})
		if err != nil {
			return "", fmt.Errorf("indeed: %w", err)
		}
	}

	if desc == "" {
		return "", errNoDescription
	}
	return desc, nil
}

// collect fetches a search page and gathers text from div/section elements whose
// class mentions one of keywords.
func (r *Resolver) collect(ctx context.Context, pageURL string, keywords []string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var b strings.Builder
	doc.Find("div, section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if !ok || !classMatches(class, keywords) {
			return true
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
		return b.Len() <= minDescriptionChars
	})
	return strings.TrimSpace(b.String()), nil
}

func classMatches(class string, keywords []string) bool {
	class = strings.ToLower(class)
	for _, k := range keywords {
		if strings.Contains(class, k) {
			return true
		}
	}
	return false
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
