package screen

import (
	"errors"
	"io"
	"time"
)

// KeyCtrlC is the byte a raw-mode terminal delivers for Ctrl+C.
const KeyCtrlC byte = 0x03

// KeyPoller reads input bytes in the background and reports, per polling
// window, whether the stop key was pressed.
type KeyPoller struct {
	keys chan byte
	stop byte
	err  error
}

func NewKeyPoller(r io.Reader) *KeyPoller {
	p := &KeyPoller{keys: make(chan byte, 64), stop: KeyCtrlC}
	go p.read(r)
	return p
}

func (p *KeyPoller) read(r io.Reader) {
	defer close(p.keys)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			p.keys <- b
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.err = err
			}
			return
		}
	}
}

// Poll waits up to timeout. It returns true as soon as the stop key is seen.
// Once input is exhausted it only waits out the timeout; a read failure is
// returned once.
func (p *KeyPoller) Poll(timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	for {
		select {
		case b, ok := <-p.keys:
			if !ok {
				p.keys = nil
				if err := p.err; err != nil {
					p.err = nil
					return false, err
				}
				continue
			}
			if b == p.stop {
				return true, nil
			}
		case <-t.C:
			return false, nil
		}
	}
}
