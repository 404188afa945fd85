package trace

import (
	"io"
	"os"
)

func isStdStream(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return f == os.Stdout || f == os.Stderr
}
