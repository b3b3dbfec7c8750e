package link

import (
	"bufio"
	"io"
)

// countingWriter counts the bytes accepted by the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the preamble, body, and declarations to w in that order,
// one newline-terminated line at a time. The count is of bytes w accepted.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	for _, block := range [][]string{r.Preamble, r.Body, r.Declarations} {
		for _, line := range block {
			if _, err := bw.WriteString(line); err != nil {
				return cw.n, err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return cw.n, err
			}
		}
	}
	err := bw.Flush()
	return cw.n, err
}
