package protocol

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TouchFlag (re)creates the zero-byte flag file.
func (p Paths) TouchFlag() error {
	f, err := os.Create(p.FlagFile())
	if err != nil {
		return err
	}
	return f.Close()
}

// FlagPresent reports whether the flag file exists.
func (p Paths) FlagPresent() bool {
	_, err := os.Stat(p.FlagFile())
	return err == nil
}

// RemoveFlag deletes the flag file; absence is not an error.
func (p Paths) RemoveFlag() error {
	err := os.Remove(p.FlagFile())
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// WriteExpression writes the call expression text.
func (p Paths) WriteExpression(expr string) error {
	return os.WriteFile(p.ExpressionFile(), []byte(expr), 0o644)
}

// ReadExpression reads the call expression text.
func (p Paths) ReadExpression() (string, error) {
	b, err := os.ReadFile(p.ExpressionFile())
	return string(b), err
}

// WriteResult writes the encoded result text.
func (p Paths) WriteResult(encoded string) error {
	return os.WriteFile(p.ResultFile(), []byte(encoded), 0o644)
}

// ReadResult reads the encoded result text. The file is left on disk.
func (p Paths) ReadResult() (string, error) {
	b, err := os.ReadFile(p.ResultFile())
	return string(b), err
}

// ReadLoadError returns the bootstrap failure text and whether the
// artifact exists.
func (p Paths) ReadLoadError() (string, bool) {
	b, err := os.ReadFile(p.LoadErrorFile())
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Banner is the worker's registration record.
type Banner struct {
	Title string
	PID   int
}

// WriteBanner registers a worker: first line its PID, second its title.
func (p Paths) WriteBanner(workerPID int) error {
	content := fmt.Sprintf("%d\n%s\n", workerPID, p.Title())
	return os.WriteFile(p.BannerFile(), []byte(content), 0o644)
}

// ReadBanner parses the worker registration. A malformed banner is
// reported so callers can treat it like a vanished worker.
func (p Paths) ReadBanner() (Banner, error) {
	f, err := os.Open(p.BannerFile())
	if err != nil {
		return Banner{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return Banner{}, fmt.Errorf("banner %s is empty", p.BannerFile())
	}
	pid, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return Banner{}, fmt.Errorf("banner %s has malformed pid: %w", p.BannerFile(), err)
	}
	title := ""
	if sc.Scan() {
		title = strings.TrimSpace(sc.Text())
	}
	if !strings.Contains(title, TitlePhrase) {
		return Banner{}, fmt.Errorf("banner %s title %q lacks the marker phrase", p.BannerFile(), title)
	}
	return Banner{PID: pid, Title: title}, nil
}

// RemoveBanner clears a stale registration.
func (p Paths) RemoveBanner() error {
	err := os.Remove(p.BannerFile())
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
