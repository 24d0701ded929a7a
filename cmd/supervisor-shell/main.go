// Command supervisor-shell is a readline-based console that attaches
// to a running supervisor process over its unix command socket and
// lets an operator inspect state or force an operating mode for bench
// testing (spec §7).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

func main() {
	var socketPath string
	flag.StringVar(&socketPath, "socket", "./supervisor.sock", "unix socket path of the running supervisor")
	flag.Parse()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "supervisor-shell: connect %s: %v\n", socketPath, err)
		os.Exit(1)
	}
	defer conn.Close()

	rl, err := readline.New("supervisor> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "supervisor-shell: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	reader := bufio.NewReader(conn)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on ^D, readline.ErrInterrupt on ^C
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		if _, err := fmt.Fprintln(conn, line); err != nil {
			fmt.Fprintf(os.Stderr, "supervisor-shell: %v\n", err)
			return
		}
		reply, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(os.Stderr, "supervisor-shell: %v\n", err)
			return
		}
		fmt.Fprint(rl.Stdout(), reply)
	}
}
