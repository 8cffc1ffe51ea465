package device

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// consoleOp tags a console operation. Commands dispatch through a single
// handler with the Server as explicit receiver instead of long-lived
// closures capturing it.
type consoleOp int

const (
	opHelp consoleOp = iota
	opExit
	opPower
	opMode
	opLower
	opHigher
)

// consoleCommands maps operator input to operations.
var consoleCommands = map[string]consoleOp{
	"help":   opHelp,
	"exit":   opExit,
	"power":  opPower,
	"mode":   opMode,
	"lower":  opLower,
	"higher": opHigher,
}

// StartConsole launches the console dispatcher reading operator commands
// line by line from input (normally os.Stdin).
//
// The reader goroutine is permanently parked on input and exits with the
// process; the dispatcher itself participates in Close.
func (s *Server) StartConsole(input io.Reader) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-s.stop:
				return
			}
		}
	}()

	s.wg.Add(1)
	go s.consoleLoop(lines)
}

func (s *Server) consoleLoop(lines <-chan string) {
	defer s.wg.Done()
	s.logger.Info("console started, type help for commands")

	for {
		select {
		case <-s.stop:
			return
		case line := <-lines:
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			s.runConsoleLine(line)
		}
	}
}

// runConsoleLine dispatches one line of operator input.
func (s *Server) runConsoleLine(line string) {
	op, ok := consoleCommands[line]
	if !ok {
		s.logger.Info("unrecognized command, try help", "command", line)
		return
	}
	s.runConsoleCommand(op)
}

func (s *Server) runConsoleCommand(op consoleOp) {
	switch op {
	case opHelp:
		names := make([]string, 0, len(consoleCommands))
		for name := range consoleCommands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s.logger.Info(name)
		}

	case opExit:
		s.logger.Info("shutting down gracefully")
		s.SetIsOn(false)
		s.requestShutdown()

	case opPower:
		s.logger.Info("requesting change of power status")
		s.SetIsOn(!s.IsOn())

	case opMode:
		if !s.IsOn() {
			s.logger.Info("this command only works if the machine is on")
			return
		}
		s.logger.Info("requesting change of mode")
		// TODO: take the mode name as an argument once more modes exist.
		s.SetMode(ModeDefault)

	case opLower:
		speed := s.TargetSpeed()
		if !s.IsOn() || speed == MinSpeed {
			s.logger.Info("this command only works if the machine is on and the speed is > 0")
			return
		}
		s.logger.Info("requesting change of speed")
		s.SetSpeed(speed - 1)

	case opHigher:
		speed := s.TargetSpeed()
		if !s.IsOn() || speed == MaxSpeed {
			s.logger.Info("this command only works if the machine is on and the speed is < max")
			return
		}
		s.logger.Info("requesting change of speed")
		s.SetSpeed(speed + 1)
	}
}
