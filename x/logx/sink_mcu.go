//go:build rp2040 || rp2350

package logx

import "io"

// Until the platform bootstrap installs a UART writer, lines go to the
// runtime console (USB CDC on Pico).
type printSink struct{}

func (printSink) Write(p []byte) (int, error) {
	if n := len(p); n > 0 && p[n-1] == '\n' {
		print(string(p[:n-1]))
		println()
		return n, nil
	}
	print(string(p))
	return len(p), nil
}

func defaultOutput() io.Writer { return printSink{} }
