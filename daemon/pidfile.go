// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package daemon

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/z5labs/tinyhttpd/internal/try"
)

// DefaultPIDFile is where the detached process id is recorded.
const DefaultPIDFile = "/var/run/tinyhttpd.pid"

// PIDFile records the id of the detached process.
type PIDFile struct {
	Path string

	f *os.File
}

// CreatePIDFile opens path for writing before there is a pid to record,
// so that an unwritable location is found while nothing has started yet.
func CreatePIDFile(path string) (*PIDFile, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &PIDFile{Path: path, f: f}, nil
}

// WritePIDFile writes pid followed by a newline to path, replacing
// any previous content.
func WritePIDFile(path string, pid int) (*PIDFile, error) {
	p, err := CreatePIDFile(path)
	if err != nil {
		return nil, err
	}
	err = p.Write(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Write records pid and closes the file opened by CreatePIDFile.
func (p *PIDFile) Write(pid int) (err error) {
	if p.f == nil {
		return os.ErrClosed
	}
	f := p.f
	p.f = nil
	defer try.Close(&err, f)

	_, err = f.WriteString(strconv.Itoa(pid) + "\n")
	return err
}

// ReadPIDFile returns the pid recorded at path.
func ReadPIDFile(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n := len(b)
	for n > 0 && (b[n-1] == '\n' || b[n-1] == '\r') {
		n--
	}
	return strconv.Atoi(string(b[:n]))
}

// Remove deletes the file. A file which is already gone is not an error.
func (p *PIDFile) Remove() error {
	if p.f != nil {
		p.f.Close()
		p.f = nil
	}
	err := os.Remove(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
