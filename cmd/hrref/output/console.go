package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Verbosity controls which diagnostics reach stderr. Command results on
// stdout are never filtered.
type Verbosity int

const (
	// VerbosityQuiet shows errors only.
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal adds warnings and notices.
	VerbosityNormal
	// VerbosityDetailed adds config and timing details.
	VerbosityDetailed
	// VerbosityDiagnostic adds reference cache events.
	VerbosityDiagnostic
)

var verbosityNames = map[string]Verbosity{
	"q": VerbosityQuiet, "quiet": VerbosityQuiet,
	"": VerbosityNormal, "n": VerbosityNormal, "normal": VerbosityNormal,
	"d": VerbosityDetailed, "detailed": VerbosityDetailed,
	"diag": VerbosityDiagnostic, "diagnostic": VerbosityDiagnostic,
}

// ParseVerbosity reads the --verbosity flag.
func ParseVerbosity(s string) (Verbosity, error) {
	v, ok := verbosityNames[strings.ToLower(s)]
	if !ok {
		return VerbosityNormal, fmt.Errorf("unknown verbosity %q", s)
	}
	return v, nil
}

// message describes one kind of console line.
type message struct {
	min    Verbosity
	stdout bool
	color  *color.Color
	prefix string
}

var (
	msgSuccess = message{min: VerbosityNormal, stdout: true, color: ColorSuccess}
	msgError   = message{min: VerbosityQuiet, color: ColorError, prefix: "Error: "}
	msgWarning = message{min: VerbosityNormal, color: ColorWarning, prefix: "Warning: "}
	msgInfo    = message{min: VerbosityNormal, color: ColorInfo}
	msgDetail  = message{min: VerbosityDetailed}
	msgDebug   = message{min: VerbosityDiagnostic, color: ColorDebug, prefix: "[DEBUG] "}
)

// Console writes command results to out and diagnostics to err. It is safe
// for concurrent use; the serve command logs cache events from request
// goroutines.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	err       io.Writer
	verbosity Verbosity
	colors    bool
}

// NewConsole creates a console. Colors follow IsColorEnabled.
func NewConsole(out, err io.Writer, verbosity Verbosity) *Console {
	c := &Console{out: out, err: err, verbosity: verbosity}
	c.SetColors(IsColorEnabled())
	return c
}

// DefaultConsole writes to stdout and stderr at normal verbosity.
func DefaultConsole() *Console {
	return NewConsole(os.Stdout, os.Stderr, VerbosityNormal)
}

// Out is where command results go.
func (c *Console) Out() io.Writer { return c.out }

// Err is where diagnostics and logs go.
func (c *Console) Err() io.Writer { return c.err }

func (c *Console) SetVerbosity(v Verbosity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbosity = v
}

func (c *Console) GetVerbosity() Verbosity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verbosity
}

// SetColors toggles color for this console and for fatih/color globally.
func (c *Console) SetColors(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colors = enabled
	color.NoColor = !enabled
}

// Println writes a plain result line to out.
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, a...)
}

func (c *Console) Success(format string, a ...any) { c.write(msgSuccess, format, a...) }
func (c *Console) Error(format string, a ...any)   { c.write(msgError, format, a...) }
func (c *Console) Warning(format string, a ...any) { c.write(msgWarning, format, a...) }
func (c *Console) Info(format string, a ...any)    { c.write(msgInfo, format, a...) }
func (c *Console) Detail(format string, a ...any)  { c.write(msgDetail, format, a...) }
func (c *Console) Debug(format string, a ...any)   { c.write(msgDebug, format, a...) }

func (c *Console) write(m message, format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verbosity < m.min {
		return
	}
	w := c.err
	if m.stdout {
		w = c.out
	}
	line := m.prefix + fmt.Sprintf(format, a...) + "\n"
	if c.colors && m.color != nil {
		_, _ = m.color.Fprint(w, line)
		return
	}
	_, _ = io.WriteString(w, line)
}
