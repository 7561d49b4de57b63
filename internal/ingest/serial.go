// Package ingest contains boundary code that turns external telemetry
// sources into slam.Input messages. None of it reaches into estimator
// internals except through the Estimator's public Add methods.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/reflector-slam/internal/monitoring"
	"github.com/banshee-data/reflector-slam/internal/slam"
)

// OdometryPort reads a line-oriented odometry protocol ("uptime,v,omega")
// from a serial device and turns each line into a slam.Input carrying an
// Odometry tick, for bench testing without a full message-bus deployment
// (spec.md §4.7 of the expanded design).
type OdometryPort struct {
	port serial.Port
}

// OpenOdometryPort opens portName at the given baud rate, 8N1.
func OpenOdometryPort(portName string, baudRate int) (*OdometryPort, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening odometry port %q: %w", portName, err)
	}
	return &OdometryPort{port: port}, nil
}

// Close closes the underlying serial port.
func (p *OdometryPort) Close() error {
	return p.port.Close()
}

// Monitor reads lines from the port until ctx is cancelled or the port
// errors, parsing each as "uptime,v,omega" and sending the resulting
// slam.Input to out. Malformed lines are logged and skipped (recovered
// locally), matching the teacher's Monitor loop structure in serial.go.
func (p *OdometryPort) Monitor(ctx context.Context, out chan<- slam.Input) error {
	scan := bufio.NewScanner(p.port)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scan.Scan() {
			return scan.Err()
		}

		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		odom, err := parseOdometryLine(line)
		if err != nil {
			monitoring.Logf("ingest: skipping malformed odometry line %q: %v", line, err)
			continue
		}

		select {
		case out <- slam.Input{Odometry: &odom}:
		case <-ctx.Done():
			return nil
		}
	}
}

// parseOdometryLine parses "uptime_seconds,linear_mps,angular_radps" into a
// slam.Odometry tick. uptime is interpreted as seconds since the Unix
// epoch for timestamp comparison purposes; a real deployment would
// translate device uptime to wall-clock time via a handshake, which is out
// of scope here (boundary code, not core estimator behavior).
func parseOdometryLine(line string) (slam.Odometry, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return slam.Odometry{}, fmt.Errorf("expected 3 comma-separated fields, got %d", len(fields))
	}

	uptime, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return slam.Odometry{}, fmt.Errorf("uptime field: %w", err)
	}
	linear, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return slam.Odometry{}, fmt.Errorf("linear velocity field: %w", err)
	}
	angular, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return slam.Odometry{}, fmt.Errorf("angular velocity field: %w", err)
	}

	seconds := int64(uptime)
	nanos := int64((uptime - float64(seconds)) * 1e9)
	return slam.Odometry{
		Time:    time.Unix(seconds, nanos).UTC(),
		Linear:  linear,
		Angular: angular,
	}, nil
}
