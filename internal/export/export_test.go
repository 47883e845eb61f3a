package export

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saker-ai/armscript/internal/command"
)

const wantPreamble = `from interbotix_xs_modules.arm import InterbotixManipulatorXS

bot = InterbotixManipulatorXS(
    robot_model='vx300',
    group_name='arm',
    gripper_name='gripper'
)

`

func scenario() *command.Recorder {
	r := command.NewRecorder()
	r.RecordMove(0, 0, 5)
	r.RecordMove(0, 10, 0)
	r.RecordMove(0, 0, -5)
	r.RecordGripper("close")
	r.RecordMove(0, 0, 5)
	r.RecordRotate("waist", 180)
	r.RecordGripper("Open")
	return r
}

func TestExportScenario(t *testing.T) {
	dir := t.TempDir()
	structuredPath := filepath.Join(dir, DefaultStructuredPath)
	executablePath := filepath.Join(dir, DefaultExecutablePath)
	exp := New(DefaultPreamble(), FormatJSON)
	rec := scenario()

	if err := exp.ExportStructured(structuredPath, rec); err != nil {
		t.Fatalf("ExportStructured error: %v", err)
	}
	if err := exp.ExportExecutable(executablePath, rec); err != nil {
		t.Fatalf("ExportExecutable error: %v", err)
	}

	wantStructured := `[
  {
    "type": "cartesian_move",
    "x": 0.0,
    "y": 0.0,
    "z": 5.0
  },
  {
    "type": "cartesian_move",
    "x": 0.0,
    "y": 10.0,
    "z": 5.0
  },
  {
    "type": "cartesian_move",
    "x": 0.0,
    "y": 10.0,
    "z": 0.0
  },
  {
    "type": "gripper",
    "action": "close"
  },
  {
    "type": "cartesian_move",
    "x": 0.0,
    "y": 10.0,
    "z": 5.0
  },
  {
    "type": "rotate_joint",
    "joint_name": "waist",
    "degrees": 180.0
  },
  {
    "type": "gripper",
    "action": "open"
  }
]
`
	wantExecutable := wantPreamble +
		"bot.arm.set_ee_cartesian_trajectory(x=0.0, y=0.0, z=5.0)\n" +
		"bot.arm.set_ee_cartesian_trajectory(x=0.0, y=10.0, z=5.0)\n" +
		"bot.arm.set_ee_cartesian_trajectory(x=0.0, y=10.0, z=0.0)\n" +
		"bot.gripper.close()\n" +
		"bot.arm.set_ee_cartesian_trajectory(x=0.0, y=10.0, z=5.0)\n" +
		"bot.arm.set_single_joint_position(joint_name='waist', position=3.141592653589793)\n" +
		"bot.gripper.Open()\n"

	gotStructured, err := os.ReadFile(structuredPath)
	if err != nil {
		t.Fatalf("read structured: %v", err)
	}
	if string(gotStructured) != wantStructured {
		t.Fatalf("structured=\n%s\nwant\n%s", gotStructured, wantStructured)
	}
	gotExecutable, err := os.ReadFile(executablePath)
	if err != nil {
		t.Fatalf("read executable: %v", err)
	}
	if string(gotExecutable) != wantExecutable {
		t.Fatalf("executable=\n%s\nwant\n%s", gotExecutable, wantExecutable)
	}

	decoded, err := command.DecodeStructured(gotStructured)
	if err != nil {
		t.Fatalf("DecodeStructured error: %v", err)
	}
	if len(decoded) != rec.Len() {
		t.Fatalf("decoded len=%d, want %d", len(decoded), rec.Len())
	}
}

func TestExportIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	rec := scenario()
	for _, format := range []Format{FormatJSON, FormatYAML} {
		exp := New(DefaultPreamble(), format)
		structuredPath := filepath.Join(dir, "structured."+string(format))
		executablePath := filepath.Join(dir, "script.py")

		var first [2][]byte
		for i := 0; i < 2; i++ {
			if err := exp.ExportStructured(structuredPath, rec); err != nil {
				t.Fatalf("ExportStructured error: %v", err)
			}
			if err := exp.ExportExecutable(executablePath, rec); err != nil {
				t.Fatalf("ExportExecutable error: %v", err)
			}
			s, _ := os.ReadFile(structuredPath)
			e, _ := os.ReadFile(executablePath)
			if i == 0 {
				first = [2][]byte{s, e}
				continue
			}
			if !bytes.Equal(first[0], s) || !bytes.Equal(first[1], e) {
				t.Fatalf("%s: second export differs from the first", format)
			}
		}
	}
}

func TestExportEmptySession(t *testing.T) {
	exp := New(Preamble{}, "")
	rec := command.NewRecorder()

	var structured, executable bytes.Buffer
	if err := exp.WriteStructured(&structured, rec.Structured()); err != nil {
		t.Fatalf("WriteStructured error: %v", err)
	}
	if err := exp.WriteExecutable(&executable, rec.Executable()); err != nil {
		t.Fatalf("WriteExecutable error: %v", err)
	}
	if structured.String() != "[]\n" {
		t.Fatalf("structured=%q, want %q", structured.String(), "[]\n")
	}
	if executable.String() != wantPreamble {
		t.Fatalf("executable=%q, want preamble only", executable.String())
	}
}

func TestWriteStructuredYAML(t *testing.T) {
	exp := New(DefaultPreamble(), FormatYAML)
	r := command.NewRecorder()
	r.RecordMove(0, 0, 5)
	r.RecordGripper("Close")

	var buf bytes.Buffer
	if err := exp.WriteStructured(&buf, r.Structured()); err != nil {
		t.Fatalf("WriteStructured error: %v", err)
	}
	want := "- type: cartesian_move\n  x: 0.0\n  \"y\": 0.0\n  z: 5.0\n- type: gripper\n  action: close\n"
	if buf.String() != want {
		t.Fatalf("yaml=%q, want %q", buf.String(), want)
	}

	decoded, err := command.DecodeStructured(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeStructured error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded=%d records, want 2", len(decoded))
	}
	if got, want := decoded[0], command.NewCartesianMove(0, 0, 5); got != want {
		t.Fatalf("decoded[0]=%+v, want %+v", got, want)
	}
	if got, want := decoded[1], command.NewGripperAction("close"); got != want {
		t.Fatalf("decoded[1]=%+v, want %+v", got, want)
	}
}

func TestCustomPreamble(t *testing.T) {
	exp := New(Preamble{RobotModel: "wx250s"}, FormatJSON)
	var buf bytes.Buffer
	if err := exp.WriteExecutable(&buf, nil); err != nil {
		t.Fatalf("WriteExecutable error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("robot_model='wx250s',")) {
		t.Fatalf("preamble=%q, want wx250s model", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("gripper_name='gripper'")) {
		t.Fatalf("preamble=%q, want default gripper", buf.String())
	}
}

func TestExportWriteFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "out.json")
	exp := New(DefaultPreamble(), FormatJSON)
	err := exp.ExportStructured(missing, command.NewRecorder())
	if err == nil {
		t.Fatal("ExportStructured error=nil, want non-nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error=%v, want fs.ErrNotExist", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: " JSON ", want: FormatJSON},
		{in: "yml", want: FormatYAML},
		{in: "toml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error=%v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseFormat(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecutableLinesFromStoredRecords(t *testing.T) {
	rec := command.NewRecorder()
	rec.RecordMove(0, 0, 5)
	rec.RecordRotate("waist", 90)
	rec.RecordGripper("Open")

	var buf bytes.Buffer
	if err := New(DefaultPreamble(), FormatJSON).WriteStructured(&buf, rec.Structured()); err != nil {
		t.Fatalf("WriteStructured error: %v", err)
	}
	cmds, err := command.DecodeStructured(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeStructured error: %v", err)
	}
	lines, err := ExecutableLines(cmds)
	if err != nil {
		t.Fatalf("ExecutableLines error: %v", err)
	}
	want := []string{
		"bot.arm.set_ee_cartesian_trajectory(x=0.0, y=0.0, z=5.0)",
		"bot.arm.set_single_joint_position(joint_name='waist', position=1.5707963267948966)",
		"bot.gripper.open()",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines=%d, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines[%d]=%q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteStructuredEscapesNonASCII(t *testing.T) {
	rec := command.NewRecorder()
	rec.RecordRotate("épaule", 0)
	rec.RecordRotate("bras🤖", 0)

	var buf bytes.Buffer
	if err := New(DefaultPreamble(), FormatJSON).WriteStructured(&buf, rec.Structured()); err != nil {
		t.Fatalf("WriteStructured error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"joint_name": "\u00e9paule"`) {
		t.Fatalf("json=%s, want escaped é", out)
	}
	if !strings.Contains(out, `"joint_name": "bras\ud83e\udd16"`) {
		t.Fatalf("json=%s, want surrogate pair escape", out)
	}
	for i := 0; i < len(out); i++ {
		if out[i] >= 0x80 {
			t.Fatalf("json has non-ASCII byte at %d: %s", i, out)
		}
	}

	decoded, err := command.DecodeStructured(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeStructured error: %v", err)
	}
	if got := decoded[0].(command.RotateJoint).JointName; got != "épaule" {
		t.Fatalf("joint_name=%q, want épaule", got)
	}
	if got := decoded[1].(command.RotateJoint).JointName; got != "bras🤖" {
		t.Fatalf("joint_name=%q, want bras🤖", got)
	}
}
