package pipeline

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrInputMustBeSet    = errors.New("input must be set")
	ErrStepFnMustBeSet   = errors.New("step function must be set")
)

// StepError is what Run returns when a step fails.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// stepErrors holds the error channel of every step. A step sends at most one
// error and closes its channel when it returns.
type stepErrors struct {
	mu    sync.Mutex
	names []string
	chans []<-chan error
}

func (s *stepErrors) track(name string, c <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = append(s.names, name)
	s.chans = append(s.chans, c)
}

func (s *stepErrors) snapshot() ([]string, []<-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.names...), append([]<-chan error(nil), s.chans...)
}

// first blocks until a step fails or every step has closed its channel. It
// returns the failure as a *StepError, or nil.
func (s *stepErrors) first() error {
	names, chans := s.snapshot()

	// one slot per step keeps the forwarders from blocking once first returns
	failed := make(chan error, len(chans))

	var wg sync.WaitGroup

	for i, c := range chans {
		if c == nil {
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			for err := range c {
				failed <- &StepError{Step: names[i], Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(failed)
	}()

	return <-failed
}
