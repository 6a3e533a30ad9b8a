package review

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal. Useful for
// telling an interactive run apart from CI or piped input.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsInteractive checks if stdin is a TTY. Returns false in CI, when input
// is piped, or when running as a background process.
func IsInteractive() bool {
	return IsTTY(os.Stdin.Fd())
}

// IsOutputTerminal checks if stdout is a TTY. Used to decide whether
// dry-run output gets human formatting or plain machine-readable lines.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
