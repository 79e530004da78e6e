// Package batch uploads a directory of CSV files to a running gateway's
// /process_csv endpoint and collects the processed results under new names.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// DefaultInputDir holds the CSV files to upload.
	DefaultInputDir = "Dataset/output"
	// DefaultOutputDir receives the renamed results.
	DefaultOutputDir = "Dataset/processed"
	// DefaultServerURL is the local gateway's CSV endpoint.
	DefaultServerURL = "http://127.0.0.1:5000/process_csv"
	// DefaultSearchTimeout bounds the wait for a server-written file.
	DefaultSearchTimeout = 30 * time.Second
	// DefaultUploadTimeout bounds a single upload, processing included.
	DefaultUploadTimeout = 600 * time.Second
	// DefaultPollInterval is the directory polling period.
	DefaultPollInterval = 500 * time.Millisecond

	// mtimeSlack widens the "written after upload started" window.
	mtimeSlack      = 500 * time.Millisecond
	timestampLayout = "20060102_150405"
)

// Status is the outcome of one file.
type Status string

const (
	StatusOK              Status = "ok"
	StatusUploadFailed    Status = "upload_failed"
	StatusServerError     Status = "server_error"
	StatusNoProcessedFile Status = "no_processed_file"
	StatusMoveFailed      Status = "move_failed"
)

// pathPattern matches an absolute Windows path ending in .csv, or a Unix path
// naming a processed CSV.
var pathPattern = regexp.MustCompile(`([A-Za-z]:\\(?:[^\\\s]+\\)*[^\\\s]+\.csv)|(/\S*processed\S*\.csv)`)

// searchPatterns are the names the server is known to write.
var searchPatterns = []string{"processed_*", "processed_output.csv"}

// Config configures an Uploader.
type Config struct {
	InputDir  string
	OutputDir string
	ServerURL string
	// SearchDir is polled for server-written files when the response does
	// not name one. Defaults to the working directory.
	SearchDir     string
	SearchTimeout time.Duration
	UploadTimeout time.Duration
	PollInterval  time.Duration
	// Pause is slept between files.
	Pause time.Duration
	// Now stamps destination names. Defaults to time.Now.
	Now        func() time.Time
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Entry records the outcome for one input file.
type Entry struct {
	File   string
	Status Status
	// Detail is the destination path for StatusOK, otherwise the reason.
	Detail string
}

// Summary lists the entries of a run in processing order.
type Summary struct {
	Entries []Entry
}

// Count returns how many entries have the given status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, e := range s.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Print writes one line per entry.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Batch Summary ===")
	for _, e := range s.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.File, e.Status, e.Detail)
	}
}

// Uploader runs the batch.
type Uploader struct {
	cfg    Config
	client *http.Client
	logger *logrus.Logger
}

// New creates an Uploader, filling in defaults for unset fields.
func New(cfg Config) *Uploader {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.InputDir == "" {
		cfg.InputDir = DefaultInputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.SearchDir == "" {
		cfg.SearchDir = "."
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.UploadTimeout}
	}

	return &Uploader{
		cfg:    cfg,
		client: client,
		logger: cfg.Logger,
	}
}

// Run processes every *.csv in the input directory, in name order. The
// returned error covers only setup failures; per-file failures are recorded
// in the summary.
func (u *Uploader) Run(ctx context.Context) (*Summary, error) {
	outputDir, err := filepath.Abs(u.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(u.cfg.InputDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list input dir: %w", err)
	}
	sort.Strings(files)

	summary := &Summary{}
	if len(files) == 0 {
		u.logger.WithFields(logrus.Fields{
			"input_dir": u.cfg.InputDir,
		}).Warn("No CSV files found")
		return summary, nil
	}

	for i, path := range files {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Entries = append(summary.Entries, u.ProcessFile(ctx, path, outputDir))

		if u.cfg.Pause > 0 && i < len(files)-1 {
			select {
			case <-time.After(u.cfg.Pause):
			case <-ctx.Done():
			}
		}
	}
	return summary, nil
}

// ProcessFile uploads one CSV and moves the server's result into outputDir.
func (u *Uploader) ProcessFile(ctx context.Context, path, outputDir string) Entry {
	base := filepath.Base(path)
	logger := u.logger.WithFields(logrus.Fields{
		"file": base,
	})
	logger.Info("Processing file")

	start := time.Now()
	status, body, err := u.upload(ctx, path)
	if err != nil {
		logger.WithError(err).Error("Upload failed")
		return Entry{File: base, Status: StatusUploadFailed, Detail: err.Error()}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		logger.WithFields(logrus.Fields{
			"status": status,
			"body":   truncate(string(body), 400),
		}).Error("Server rejected upload")
		return Entry{File: base, Status: StatusServerError, Detail: fmt.Sprintf("status %d", status)}
	}

	logger.WithFields(logrus.Fields{
		"status": status,
	}).Info("Upload OK, locating processed file")

	saved := LocateFromResponse(body)
	if saved == "" {
		saved = u.waitForProcessed(ctx, start)
	}
	if saved == "" || !exists(saved) {
		logger.WithFields(logrus.Fields{
			"response": truncate(string(body), 400),
		}).Error("Could not find server-side processed file")
		return Entry{File: base, Status: StatusNoProcessedFile, Detail: "not_found"}
	}

	dest := filepath.Join(outputDir, DestinationName(base, u.cfg.Now()))
	if err := MoveFile(saved, dest); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"from": saved,
			"to":   dest,
		}).Error("Failed to move processed file")
		return Entry{File: base, Status: StatusMoveFailed, Detail: err.Error()}
	}

	logger.WithFields(logrus.Fields{
		"dest": dest,
	}).Info("Saved processed file")
	return Entry{File: base, Status: StatusOK, Detail: dest}
}

// upload posts the file as multipart field "file".
func (u *Uploader) upload(ctx context.Context, path string) (int, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return 0, nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return 0, nil, fmt.Errorf("close multipart writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.ServerURL, &buf)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// LocateFromResponse extracts the server-side output path from a JSON
// response body: "output_file", then "output_path", then a path found in
// "message" or "msg" (or the whole body if neither is present). It returns
// an absolute path, or "" if nothing matched or the body is not JSON.
func LocateFromResponse(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return ""
	}

	for _, key := range []string{"output_file", "output_path"} {
		if p := res.Get(key).String(); p != "" {
			return absPath(p)
		}
	}

	msg := res.Get("message").String()
	if msg == "" {
		msg = res.Get("msg").String()
	}
	if msg == "" {
		msg = res.Raw
	}
	if m := pathPattern.FindString(msg); m != "" {
		return absPath(m)
	}
	return ""
}

// waitForProcessed polls SearchDir for the newest file matching the known
// output names with an mtime no earlier than start minus a small slack.
func (u *Uploader) waitForProcessed(ctx context.Context, start time.Time) string {
	deadline := time.Now().Add(u.cfg.SearchTimeout)
	ticker := time.NewTicker(u.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if p := u.newestProcessed(start.Add(-mtimeSlack)); p != "" {
			return p
		}
		if !time.Now().Before(deadline) {
			return ""
		}
		select {
		case <-ctx.Done():
			return ""
		case <-ticker.C:
		}
	}
}

func (u *Uploader) newestProcessed(since time.Time) string {
	var (
		newest  string
		newestT time.Time
	)
	for _, pattern := range searchPatterns {
		matches, err := filepath.Glob(filepath.Join(u.cfg.SearchDir, pattern))
		if err != nil {
			continue
		}
		for _, p := range matches {
			info, err := os.Stat(p)
			if err != nil || info.IsDir() {
				continue
			}
			mtime := info.ModTime()
			if mtime.Before(since) {
				continue
			}
			if newest == "" || mtime.After(newestT) {
				newest, newestT = p, mtime
			}
		}
	}
	if newest == "" {
		return ""
	}
	return absPath(newest)
}

// DestinationName returns processed_<stem>_<YYYYmmdd_HHMMSS>.csv for an
// input file name.
func DestinationName(inputName string, now time.Time) string {
	stem := filepath.Base(inputName)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	return fmt.Sprintf("processed_%s_%s.csv", stem, now.Format(timestampLayout))
}

// MoveFile renames src to dst, falling back to copy and remove when the
// rename crosses filesystems.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
