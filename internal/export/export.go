package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/saker-ai/armscript/internal/command"
)

// Default artifact filenames used when no destination is configured.
const (
	DefaultStructuredPath = "generated_json_commands.json"
	DefaultExecutablePath = "generated_python_commands.py"
)

// Format selects the structured rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes a configured format name. Empty means JSON.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported structured format %q", raw)
	}
}

// Preamble identifies the manipulator the executable script drives.
type Preamble struct {
	RobotModel  string
	GroupName   string
	GripperName string
}

// DefaultPreamble returns the ViperX 300 identification.
func DefaultPreamble() Preamble {
	return Preamble{RobotModel: "vx300", GroupName: "arm", GripperName: "gripper"}
}

// String renders the script header that constructs the manipulator handle.
func (p Preamble) String() string {
	var b strings.Builder
	b.WriteString("from interbotix_xs_modules.arm import InterbotixManipulatorXS\n\n")
	fmt.Fprintf(&b, "%s = InterbotixManipulatorXS(\n", command.Handle)
	fmt.Fprintf(&b, "    robot_model='%s',\n", p.RobotModel)
	fmt.Fprintf(&b, "    group_name='%s',\n", p.GroupName)
	fmt.Fprintf(&b, "    gripper_name='%s'\n", p.GripperName)
	b.WriteString(")\n\n")
	return b.String()
}

// Source is the accumulated command log. *command.Recorder satisfies it.
type Source interface {
	Structured() []command.Structured
	Executable() []string
}

// Exporter serializes a command log into its two artifacts.
type Exporter struct {
	preamble Preamble
	format   Format
}

// New creates an exporter. Zero-valued preamble fields fall back to defaults.
func New(preamble Preamble, format Format) *Exporter {
	def := DefaultPreamble()
	if preamble.RobotModel == "" {
		preamble.RobotModel = def.RobotModel
	}
	if preamble.GroupName == "" {
		preamble.GroupName = def.GroupName
	}
	if preamble.GripperName == "" {
		preamble.GripperName = def.GripperName
	}
	if format == "" {
		format = FormatJSON
	}
	return &Exporter{preamble: preamble, format: format}
}

// Format returns the structured rendering in use.
func (e *Exporter) Format() Format {
	return e.format
}

// WriteStructured renders the structured sequence in call order.
func (e *Exporter) WriteStructured(w io.Writer, cmds []command.Structured) error {
	if cmds == nil {
		cmds = []command.Structured{}
	}
	switch e.format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cmds); err != nil {
			return fmt.Errorf("encode structured yaml: %w", err)
		}
		return enc.Close()
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cmds); err != nil {
			return fmt.Errorf("encode structured json: %w", err)
		}
		_, err := w.Write(escapeNonASCII(buf.Bytes()))
		return err
	}
}

// escapeNonASCII rewrites every non-ASCII rune as a lower-case \uXXXX escape,
// using a UTF-16 surrogate pair above the BMP. JSON syntax is pure ASCII, so
// such runes only occur inside string literals.
func escapeNonASCII(data []byte) []byte {
	if !slices.ContainsFunc(data, func(b byte) bool { return b >= utf8.RuneSelf }) {
		return data
	}
	out := make([]byte, 0, len(data)+16)
	for _, r := range string(data) {
		switch {
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, "\\u%04x\\u%04x", hi, lo)
		default:
			out = fmt.Appendf(out, "\\u%04x", r)
		}
	}
	return out
}

// WriteExecutable renders the preamble followed by one line per command.
func (e *Exporter) WriteExecutable(w io.Writer, lines []string) error {
	var b strings.Builder
	b.WriteString(e.preamble.String())
	for _, line := range lines {
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ExportStructured writes the structured artifact to path, replacing any
// existing file.
func (e *Exporter) ExportStructured(path string, src Source) error {
	var buf bytes.Buffer
	if err := e.WriteStructured(&buf, src.Structured()); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write structured commands %s: %w", path, err)
	}
	return nil
}

// ExportExecutable writes the executable script to path, replacing any
// existing file.
func (e *Exporter) ExportExecutable(path string, src Source) error {
	var buf bytes.Buffer
	if err := e.WriteExecutable(&buf, src.Executable()); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write executable commands %s: %w", path, err)
	}
	return nil
}

// ExecutableLines rebuilds executable lines from structured records, for
// regenerating a script from a stored structured file.
func ExecutableLines(cmds []command.Structured) ([]string, error) {
	lines := make([]string, 0, len(cmds))
	for i, cmd := range cmds {
		line, err := command.ExecutableFor(cmd)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
