// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package drive

import "log"

// LogSink only logs commands. Useful for dry runs on a bench.
type LogSink struct {
	last    Command
	started bool
}

// Send logs c when it differs from the previous command.
func (s *LogSink) Send(c Command) error {
	if s.started && c == s.last {
		return nil
	}
	s.started = true
	s.last = c
	log.Printf("drive: %s", c)
	return nil
}
