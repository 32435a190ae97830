// Package teamctl implements the commands of the teamctl tool: registering
// ranks with the service and producing team splits the way the chat bot does.
package teamctl

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/rankteam/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends logs to stderr and, when logFile is set, appends them
// to that file as well. The returned func closes the file.
func SetupLogging(logFile, format string) (func() error, error) {
	if logFile == "" {
		if err := logger.InitWriter(os.Stderr, format); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := logger.InitWriter(io.MultiWriter(os.Stderr, file), format); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for teamctl.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `teamctl
=======

Registers ranks with the rank service and splits a group into two teams.

Usage:
  teamctl [global options] <command> [options]

Global options:
  -url string       Rank service base URL (default from rank_api_url)
  -key string       API key for registration (default from rank_api_key)
  -timeout duration Request timeout (default from rank_api_timeout_ms)
  -log string       Also append logs to this file
  -verbose          Enable debug logging

Commands:
  register -id ID -tier TIER [-division DIV]
        Store or replace the rank of ID. Prints the previous rank if any.
  team -members id:name,id:name,... [-exclude TEXT] [-token TOKEN]
        Fetch ranks and split the members into two teams locally.
        -exclude accepts mentions like "<@123> <@!456>" or bare ids.
  help
        Show this help message

Configuration is read from RANKTEAM_* environment variables and the YAML
file named by RANKTEAM_CONFIG.

Examples:
  teamctl register -id 123 -tier GOLD -division II
  teamctl team -members 1:Ann,2:Bo,3:Cy,4:Di -exclude "<@4>"
`)
}
