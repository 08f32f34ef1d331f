package main

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/raymyers/stepc/pkg/console"
	"golang.org/x/term"
)

// inputPump copies stdin into the console of the program currently
// running. It starts reading on the first attach, so a run that never
// needs stdin never touches it.
type inputPump struct {
	in      io.Reader
	once    sync.Once
	mu      sync.Mutex
	con     *console.Console
	drained bool
}

// isTerminal reports whether stdin is an interactive terminal, which
// echoes typed input itself
func (p *inputPump) isTerminal() bool {
	f, ok := p.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *inputPump) attach(con *console.Console) {
	p.mu.Lock()
	p.con = con
	if p.drained {
		con.CloseInput()
	}
	p.mu.Unlock()
	p.once.Do(func() { go p.copy() })
}

func (p *inputPump) copy() {
	r := bufio.NewReader(p.in)
	for {
		b, err := r.ReadByte()
		p.mu.Lock()
		if err != nil {
			p.drained = true
			p.con.CloseInput()
			p.mu.Unlock()
			return
		}
		p.con.FeedInput(b)
		p.mu.Unlock()
	}
}
