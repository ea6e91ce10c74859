// internal/install/install.go
//
// Remote course-install trigger.
//
// Context
// -------
// Each school site runs the `local_orvsd_create_course` Moodle webservice.
// Installing a course means POSTing its package location plus an owner
// identity to
//
//	<site>/webservice/rest/server.php?wstoken=…&wsfunction=local_orvsd_create_course
//
// The response is opaque: whatever the plugin prints is shown back to the
// operator, one block per course.
//
// Notes
// -----
// • Requests go out sequentially; one failing course never stops the rest.
// • The HTTP client comes from go-cleanhttp (no shared global transport).
// • Response bodies are capped at maxBody bytes.

package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/config"
	"github.com/orvsd/central/internal/metrics"
)

// WSFunction is the remote webservice function name.
const WSFunction = "local_orvsd_create_course"

const maxBody = 1 << 20

// Metric labels.
const (
	resultOK        = "ok"
	resultHTTPError = "http_error"
	resultFailed    = "failed"
)

// Result is the outcome of one course install call.
type Result struct {
	Shortname string
	Status    int    // HTTP status, 0 when the request never completed
	Body      string // raw response text
	Err       error
}

// OK reports whether the remote answered 2xx.
func (r Result) OK() bool { return r.Err == nil && r.Status >= 200 && r.Status < 300 }

// Client posts install requests.  Construct with New.
type Client struct {
	http *http.Client
	cfg  config.Install
	log  *zap.SugaredLogger
}

// New returns a Client using cfg's token, identity, and timeout.
func New(cfg config.Install, log *zap.SugaredLogger) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = cfg.Timeout
	if log == nil {
		log = zap.S()
	}
	return &Client{http: hc, cfg: cfg, log: log.Named("install")}
}

// Endpoint builds the webservice URL for siteURL.
func Endpoint(siteURL, token string) string {
	q := url.Values{}
	q.Set("wstoken", token)
	q.Set("wsfunction", WSFunction)
	return strings.TrimRight(siteURL, "/") + "/webservice/rest/server.php?" + q.Encode()
}

// CourseFilePath returns base with a trailing slash followed by the
// lower-cased source directory, e.g. "/data/courses/" + "oer/".
func CourseFilePath(base, source string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.ToLower(source) + "/"
}

// form builds the POST body for one course.
func (c *Client) form(filePath string, d central.CourseDetail) url.Values {
	v := url.Values{}
	v.Set("filepath", CourseFilePath(filePath, d.Source))
	v.Set("file", d.Filename)
	v.Set("courseid", strconv.FormatInt(d.CourseID, 10))
	v.Set("coursename", d.CourseName)
	v.Set("shortname", d.CourseShortname)
	v.Set("category", c.cfg.Category)
	v.Set("firstname", c.cfg.Firstname)
	v.Set("lastname", c.cfg.Lastname)
	v.Set("city", c.cfg.City)
	v.Set("username", c.cfg.Username)
	v.Set("email", c.cfg.Email)
	v.Set("pass", c.cfg.Password)
	return v
}

// Install posts every course in details to siteURL and returns one Result
// per course in the same order.  filePath empty falls back to the
// configured default.
func (c *Client) Install(ctx context.Context, siteURL, filePath string, details []central.CourseDetail) []Result {
	if filePath == "" {
		filePath = c.cfg.DefaultFilePath
	}
	endpoint := Endpoint(siteURL, c.cfg.WSToken)

	out := make([]Result, 0, len(details))
	for _, d := range details {
		start := time.Now()
		res := c.post(ctx, endpoint, c.form(filePath, d))
		res.Shortname = d.CourseShortname

		label := resultOK
		switch {
		case res.Err != nil:
			label = resultFailed
			c.log.Warnw("course install failed", "site", siteURL, "course", d.CourseShortname, "err", res.Err)
		case !res.OK():
			label = resultHTTPError
			c.log.Warnw("course install rejected", "site", siteURL, "course", d.CourseShortname,
				"status", res.Status, "body", Summary(res.Body, 200))
		default:
			c.log.Infow("course installed", "site", siteURL, "course", d.CourseShortname,
				"elapsed", time.Since(start))
		}
		metrics.CourseInstallRequestsTotal.WithLabelValues(label).Inc()
		out = append(out, res)
	}
	return out
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Result{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	return Result{Status: resp.StatusCode, Body: string(body)}
}

// Output renders results as the plain-text transcript shown after an
// install: shortname, blank line, body, two blank lines.
func Output(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		body := r.Body
		if r.Err != nil {
			body = "error: " + r.Err.Error()
		}
		fmt.Fprintf(&b, "%s\n\n%s\n\n\n", r.Shortname, body)
	}
	return b.String()
}
