// Package labfile contains the file plumbing shared by the instrument
// readers: line splitting, charset decoding, directory listing and the
// error kinds reported to the operator.
package labfile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"
)

// NewReader returns a reader that decodes r from the named encoding
// (e.g. "windows-1252", "iso-8859-1") to UTF-8. Instrument PCs often write
// in the local Windows code page. An empty label means UTF-8.
func NewReader(r io.Reader, encoding string) (io.Reader, error) {
	if encoding == `` || strings.EqualFold(encoding, `utf-8`) || strings.EqualFold(encoding, `utf8`) {
		return r, nil
	}
	return charset.NewReaderLabel(encoding, r)
}

type decodedFile struct {
	io.Reader
	f *os.File
}

func (d decodedFile) Close() error { return d.f.Close() }

// Open opens path for reading, decoding it from encoding. Failures are
// reported as *IOError.
func Open(path string, encoding string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	r, err := NewReader(f, encoding)
	if err != nil {
		f.Close()
		return nil, &IOError{Path: path, Err: err}
	}
	return decodedFile{Reader: r, f: f}, nil
}

// ReadLines returns all lines of r without their line terminators.
// Both "\n" and "\r\n" terminated files are accepted.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(r)
	// Data blocks can have very long lines
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		lines = append(lines, strings.TrimSuffix(s.Text(), "\r"))
	}
	return lines, s.Err()
}

// List returns the names (not paths) of the regular files in dir that
// have extension ext, in lexical order
func List(dir string, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Path: dir, Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Stem returns the file name without directory and without everything from
// the first dot on ("run.1.mpa" -> "run")
func Stem(name string) string {
	base := filepath.Base(name)
	if i := strings.Index(base, `.`); i >= 0 {
		return base[:i]
	}
	return base
}
