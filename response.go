package litepool

import (
	"bufio"
	"fmt"
	"io"
)

const (
	StatusOK                  = "200 OK"
	StatusNotFound            = "404 NOT FOUND"
	StatusInternalServerError = "500 INTERNAL SERVER ERROR"
)

type Response struct {
	Status string
	Body   []byte

	// file the body was read from, if any
	File string
}

// respond writes the status line, an empty header section and the body, and
// returns the number of bytes written.
func respond(w io.Writer, resp *Response) (int64, error) {
	bw := bufio.NewWriter(w)

	n, err := fmt.Fprintf(bw, "HTTP/1.1 %s\r\n\r\n", resp.Status)
	if err != nil {
		return int64(n), err
	}

	m, err := bw.Write(resp.Body)
	if err != nil {
		return int64(n + m), err
	}

	return int64(n + m), bw.Flush()
}
