package litepool

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileServer answers GET requests with the file at the request path under
// root, and everything else with the not-found page.
type FileServer struct {
	root         string
	notFoundPage string
}

func NewFileServer(root, notFoundPage string) *FileServer {
	return &FileServer{root: root, notFoundPage: notFoundPage}
}

func (f *FileServer) Serve(ctx context.Context, req *Request) (*Response, error) {
	if req.Method == MethodGet {
		if name, ok := f.resolve(req.Path); ok {
			body, err := os.ReadFile(name)
			if err == nil {
				return &Response{Status: StatusOK, Body: body, File: name}, nil
			}
			if !errors.Is(err, fs.ErrNotExist) && !isDirErr(name) {
				return nil, err
			}
		}
	}

	return f.notFound()
}

func (f *FileServer) notFound() (*Response, error) {
	name := filepath.Join(f.root, f.notFoundPage)

	body, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return &Response{Status: StatusNotFound, Body: body, File: name}, nil
}

// resolve maps a request path to a file under root. Paths that would leave
// root are rejected.
func (f *FileServer) resolve(p string) (string, bool) {
	if p == "" || !strings.HasPrefix(p, "/") {
		return "", false
	}

	cleaned := filepath.Clean(filepath.FromSlash(p))
	name := filepath.Join(f.root, cleaned)

	rel, err := filepath.Rel(f.root, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return name, true
}

func isDirErr(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}
