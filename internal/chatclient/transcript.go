package chatclient

import "sync"

// Role of a transcript line.
type Role string

const (
	RoleUser      Role = "You"
	RoleAssistant Role = "Assistant"
	RoleSystem    Role = "System"
)

// Line is one rendered entry.
type Line struct {
	Role Role
	Text string
}

func (l Line) String() string {
	return string(l.Role) + ": " + l.Text
}

// Transcript is the ordered conversation as the user sees it.
type Transcript struct {
	mu    sync.Mutex
	lines []Line
	// open is set while the last line is the assistant reply of the
	// current turn and may still grow.
	open bool
}

// AddUser starts a new turn.
func (t *Transcript) AddUser(text string) {
	t.append(Line{Role: RoleUser, Text: text})
}

// SetAssistant replaces the reply of the current turn, or starts it.
func (t *Transcript) SetAssistant(text string) Line {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := Line{Role: RoleAssistant, Text: text}
	if t.open && len(t.lines) > 0 {
		t.lines[len(t.lines)-1] = line
		return line
	}
	t.lines = append(t.lines, line)
	t.open = true
	return line
}

// AddSystem appends a notice and closes the current reply.
func (t *Transcript) AddSystem(text string) Line {
	line := Line{Role: RoleSystem, Text: text}
	t.append(line)
	return line
}

// FailTurn ends the current turn with a notice. A reply that was still
// streaming is replaced by the notice so no partial text stays visible.
func (t *Transcript) FailTurn(text string) Line {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := Line{Role: RoleSystem, Text: text}
	if t.open && len(t.lines) > 0 {
		t.lines[len(t.lines)-1] = line
	} else {
		t.lines = append(t.lines, line)
	}
	t.open = false
	return line
}

func (t *Transcript) append(line Line) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	t.open = false
}

// Lines returns a copy of the transcript.
func (t *Transcript) Lines() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Line(nil), t.lines...)
}

// Strings renders every line.
func (t *Transcript) Strings() []string {
	lines := t.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}
