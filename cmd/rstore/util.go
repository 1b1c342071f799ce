package main

import "io"

// copyAll is a thin io.Copy wrapper; get.go uses it to stream a variant's
// content to stdout.
func copyAll(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
