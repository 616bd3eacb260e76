package pipeline

import (
	"io"
	"os"

	"go.uber.org/multierr"
)

// fdSet collects descriptors opened by the parent so that every return path
// can close them with one call.
type fdSet []io.Closer

func (s *fdSet) add(c io.Closer) {
	*s = append(*s, c)
}

// Close closes every member and empties the set. Calling it twice is safe.
func (s *fdSet) Close() error {
	var err error
	for _, c := range *s {
		err = multierr.Append(err, c.Close())
	}
	*s = nil
	return err
}

// pipePair is one pipe between stage i and stage i+1.
type pipePair struct {
	r *os.File
	w *os.File
}

// openPipes allocates n pipes, all registered in fds.
func openPipes(n int, fds *fdSet) ([]pipePair, error) {
	pipes := make([]pipePair, 0, n)
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		fds.add(r)
		fds.add(w)
		pipes = append(pipes, pipePair{r: r, w: w})
	}
	return pipes, nil
}
