package install

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/config"
)

func testConfig() config.Install {
	return config.Install{
		WSToken:         "tok123",
		DefaultFilePath: "/data/courses",
		Timeout:         5 * time.Second,
		Category:        "1",
		Firstname:       "orvsd",
		Lastname:        "central",
		City:            "none",
		Username:        "admin",
		Email:           "admin@example.org",
		Password:        "secret",
	}
}

func TestEndpoint(t *testing.T) {
	got := Endpoint("https://lincoln.example.org/", "tok123")
	want := "https://lincoln.example.org/webservice/rest/server.php?wsfunction=local_orvsd_create_course&wstoken=tok123"
	if got != want {
		t.Errorf("Endpoint = %q, want %q", got, want)
	}
}

func TestCourseFilePath(t *testing.T) {
	cases := map[[2]string]string{
		{"/data/courses", "OER"}:  "/data/courses/oer/",
		{"/data/courses/", "oer"}: "/data/courses/oer/",
	}
	for in, want := range cases {
		if got := CourseFilePath(in[0], in[1]); got != want {
			t.Errorf("CourseFilePath(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestInstall_PostsEachCourse(t *testing.T) {
	var (
		mu    sync.Mutex
		forms []map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/webservice/rest/server.php" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("wsfunction") != WSFunction || r.URL.Query().Get("wstoken") != "tok123" {
			t.Errorf("query = %v", r.URL.Query())
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		mu.Lock()
		forms = append(forms, map[string]string{
			"filepath":  r.PostForm.Get("filepath"),
			"file":      r.PostForm.Get("file"),
			"courseid":  r.PostForm.Get("courseid"),
			"shortname": r.PostForm.Get("shortname"),
			"pass":      r.PostForm.Get("pass"),
		})
		mu.Unlock()

		if r.PostForm.Get("shortname") == "Broken" {
			http.Error(w, "no such file", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<RESPONSE>created " + r.PostForm.Get("shortname") + "</RESPONSE>"))
	}))
	defer srv.Close()

	details := []central.CourseDetail{
		{CourseID: 7, Filename: "bio.mbz", Source: "OER", CourseName: "Biology", CourseShortname: "Bio101"},
		{CourseID: 8, Filename: "bad.mbz", Source: "Vendor", CourseName: "Broken", CourseShortname: "Broken"},
	}

	c := New(testConfig(), zap.NewNop().Sugar())
	results := c.Install(context.Background(), srv.URL, "", details)

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !results[0].OK() || results[1].OK() {
		t.Errorf("OK flags = %v/%v", results[0].OK(), results[1].OK())
	}
	if results[1].Status != http.StatusInternalServerError {
		t.Errorf("status = %d", results[1].Status)
	}

	if len(forms) != 2 {
		t.Fatalf("server saw %d requests", len(forms))
	}
	if forms[0]["filepath"] != "/data/courses/oer/" || forms[1]["filepath"] != "/data/courses/vendor/" {
		t.Errorf("filepaths = %q, %q", forms[0]["filepath"], forms[1]["filepath"])
	}
	if forms[0]["file"] != "bio.mbz" || forms[0]["courseid"] != "7" || forms[0]["pass"] != "secret" {
		t.Errorf("form = %v", forms[0])
	}

	out := Output(results)
	if !strings.HasPrefix(out, "Bio101\n\n<RESPONSE>created Bio101</RESPONSE>\n\n\n") {
		t.Errorf("Output = %q", out)
	}
	if !strings.Contains(out, "Broken\n\nno such file") {
		t.Errorf("Output missing failure block: %q", out)
	}
}

func TestInstall_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(testConfig(), zap.NewNop().Sugar())
	results := c.Install(context.Background(), url, "/x", []central.CourseDetail{{CourseShortname: "Bio101", Source: "oer"}})
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want transport error", results)
	}
	if !strings.Contains(Output(results), "Bio101\n\nerror: ") {
		t.Errorf("Output = %q", Output(results))
	}
}

func TestResultHTML(t *testing.T) {
	plain := Result{Body: "<RESPONSE>ok</RESPONSE>"}
	if got := string(plain.HTML()); got != "<pre>&lt;RESPONSE&gt;ok&lt;/RESPONSE&gt;</pre>" {
		t.Errorf("plain HTML = %q", got)
	}

	page := Result{Body: `<html><body><p>Error</p><script>alert(1)</script></body></html>`}
	got := string(page.HTML())
	if strings.Contains(got, "<script>") || !strings.Contains(got, "<p>Error</p>") {
		t.Errorf("sanitized HTML = %q", got)
	}
}

func TestSummary(t *testing.T) {
	if got := Summary("<html><body><p>Invalid   token</p></body></html>", 100); got != "Invalid token" {
		t.Errorf("Summary = %q", got)
	}
	if got := Summary("abcdef", 3); got != "abc…" {
		t.Errorf("Summary truncated = %q", got)
	}
}
