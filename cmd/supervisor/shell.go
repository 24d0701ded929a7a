package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/chegejames/ttnode-supervisor/pkg/comm"
	mashlog "github.com/chegejames/ttnode-supervisor/pkg/log"
	"github.com/chegejames/ttnode-supervisor/pkg/sensor"
)

// serveShell listens on a unix socket for supervisor-shell connections
// and answers a small line-oriented command protocol: one command per
// line in, one response line out. This stands in for the firmware's
// bench-test UART console (spec §7's TestSensor/TestBurn/TestDead
// commands), reachable here over a local socket instead of a physical
// serial port.
func serveShell(ctx context.Context, socketPath string, opMode *sensor.OpModeController, sup *comm.Supervisor, logger mashlog.Logger) func() {
	if socketPath == "" {
		return func() {}
	}
	_ = os.Remove(socketPath)

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		logger.Log(mashlog.Event{Component: mashlog.ComponentSupervisor, Category: mashlog.CategoryError, Message: "shell socket: " + err.Error()})
		return func() {}
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go handleShellConn(conn, opMode, sup)
		}
	}()

	return func() { _ = ln.Close(); _ = os.Remove(socketPath) }
}

func handleShellConn(conn net.Conn, opMode *sensor.OpModeController, sup *comm.Supervisor) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fmt.Fprintln(conn, runShellCommand(line, opMode, sup))
	}
}

func runShellCommand(line string, opMode *sensor.OpModeController, sup *comm.Supervisor) string {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "status":
		return fmt.Sprintf("mode=%s op=%s deselected=%v initialized=%v",
			sup.Mode(), opMode.Mode(), sup.IsDeselected(), sup.IsInitialized())

	case "mode":
		if len(fields) != 2 {
			return "usage: mode <normal|test-burn|test-fast|test-sensor|test-dead|mobile>"
		}
		target, ok := parseOpMode(fields[1])
		if !ok {
			return "unknown mode: " + fields[1]
		}
		if !opMode.SetMode(target) {
			return "refused: mobile mode is disabled while static GPS is configured"
		}
		return "ok"

	case "help", "?":
		return "commands: status, mode <name>, help"

	default:
		return "unknown command: " + cmd
	}
}

func parseOpMode(name string) (sensor.OpMode, bool) {
	switch name {
	case "normal":
		return sensor.OpModeNormal, true
	case "test-burn":
		return sensor.OpModeTestBurn, true
	case "test-fast":
		return sensor.OpModeTestFast, true
	case "test-sensor":
		return sensor.OpModeTestSensor, true
	case "test-dead":
		return sensor.OpModeTestDead, true
	case "mobile":
		return sensor.OpModeMobile, true
	default:
		return 0, false
	}
}
