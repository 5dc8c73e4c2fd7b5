package screen

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestPollSeesStopKey(t *testing.T) {
	p := NewKeyPoller(strings.NewReader("ab\x03"))
	stop, err := p.Poll(time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stop {
		t.Fatalf("expected stop")
	}
}

func TestPollIgnoresOtherKeys(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewKeyPoller(pr)
	go func() { _, _ = pw.Write([]byte("q ")) }()

	stop, err := p.Poll(50 * time.Millisecond)
	if err != nil || stop {
		t.Fatalf("got stop=%v err=%v, want false, nil", stop, err)
	}
}

func TestPollAfterEOFWaitsOutTimeout(t *testing.T) {
	p := NewKeyPoller(strings.NewReader(""))
	start := time.Now()
	stop, err := p.Poll(20 * time.Millisecond)
	if err != nil || stop {
		t.Fatalf("got stop=%v err=%v, want false, nil", stop, err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("poll returned before timeout")
	}
}

func TestPollReportsReadErrorOnce(t *testing.T) {
	boom := errors.New("tty closed")
	p := NewKeyPoller(failingReader{err: boom})

	_, err := p.Poll(time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	stop, err := p.Poll(10 * time.Millisecond)
	if err != nil || stop {
		t.Fatalf("second poll: stop=%v err=%v", stop, err)
	}
}
