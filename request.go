package litepool

import (
	"bytes"
	"strings"
)

const (
	MethodGet = "GET"

	// paths ending in a slash are served this file
	indexFile = "index.html"
)

// Request is what a connection handler knows about a request: the parts of its
// request line.
type Request struct {
	Id         string
	Method     string
	Path       string
	Line       string
	RemoteAddr string
}

func isDelimiter(c byte) bool {
	return c == ' ' || c == '\r' || c == '\n'
}

// method returns the bytes of the request before the first space
func method(req []byte) string {
	i := 0
	for i < len(req) && !isDelimiter(req[i]) {
		i++
	}
	return string(bytes.ToValidUTF8(req[:i], []byte("�")))
}

// path returns the request target, the bytes between the first and the second
// space. Directory targets get index.html appended. A request line without a
// target yields an empty path.
func path(req []byte) string {
	i := 0
	for i < len(req) && req[i] != ' ' {
		i++
	}
	if i == len(req) {
		return ""
	}
	i++

	j := i
	for j < len(req) && !isDelimiter(req[j]) {
		j++
	}

	p := string(bytes.ToValidUTF8(req[i:j], []byte("�")))
	if strings.HasSuffix(p, "/") {
		p += indexFile
	}

	return p
}

// requestLine returns the first line of the request without its terminator
func requestLine(req []byte) string {
	if i := bytes.IndexByte(req, '\n'); i >= 0 {
		req = req[:i]
	}
	return string(bytes.ToValidUTF8(bytes.TrimRight(req, "\r\x00"), []byte("�")))
}

func parseRequest(req []byte) *Request {
	return &Request{
		Method: method(req),
		Path:   path(req),
		Line:   requestLine(req),
	}
}
