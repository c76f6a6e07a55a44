package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"
)

var (
	assOverrideRegex = regexp.MustCompile(`^(\{[^}]*\})+`)
	assLineBreaks    = strings.NewReplacer(`\N`, "\n", `\n`, "\n")
)

// ASSScript keeps an ASS/SSA script line for line so that rewriting it only
// touches the Name and Text columns of its Dialogue events.
type ASSScript struct {
	head     []string // script info, styles and the [Events] header
	format   string
	columns  []string // lower cased Format column names
	events   []assEvent
	comments []string // non dialogue lines of the [Events] section
	tail     []string // sections that follow [Events]
}

type assEvent struct {
	fields   []string
	override string // leading {\...} blocks of the Text column
}

func (e assEvent) field(i int) string {
	if i < 0 || i >= len(e.fields) {
		return ""
	}
	return e.fields[i]
}

func parseASS(r io.Reader) (*ASSScript, error) {
	script := &ASSScript{}
	section := ""
	pastEvents := false

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		name, isHeader := assSectionName(trimmed)
		if isHeader {
			pastEvents = pastEvents || section == "events"
			section = name
		}
		switch {
		case pastEvents:
			script.tail = append(script.tail, line)
			continue
		case isHeader || section != "events":
			script.head = append(script.head, line)
			continue
		}

		key, value, _ := strings.Cut(trimmed, ":")
		switch key {
		case "Format":
			if err := script.setFormat(line, value); err != nil {
				return nil, err
			}
		case "Dialogue":
			event, err := script.parseEvent(value)
			if err != nil {
				return nil, fmt.Errorf("failed to parse Dialogue at line %d: %w", n, err)
			}
			script.events = append(script.events, event)
		default:
			script.comments = append(script.comments, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}
	if script.format == "" {
		return nil, errors.New("ASS file missing Format line in [Events] section")
	}
	return script, nil
}

// "[Events]" -> "events"
func assSectionName(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", false
	}
	return strings.ToLower(strings.Trim(line, "[]")), true
}

func (s *ASSScript) setFormat(line, value string) error {
	columns := lo.Map(strings.Split(value, ","), func(c string, _ int) string {
		return strings.ToLower(strings.TrimSpace(c))
	})
	if !lo.Contains(columns, "text") {
		return errors.New("ASS file missing Text column in Format line")
	}
	s.format = line
	s.columns = columns
	return nil
}

func (s *ASSScript) column(name string) int {
	return lo.IndexOf(s.columns, name)
}

// the last column keeps any commas of the dialogue text
func (s *ASSScript) parseEvent(value string) (assEvent, error) {
	if len(s.columns) == 0 {
		return assEvent{}, errors.New("Dialogue before Format line")
	}
	fields := strings.SplitN(strings.TrimSpace(value), ",", len(s.columns))
	if len(fields) < len(s.columns) {
		return assEvent{}, fmt.Errorf("expected %d fields, got %d", len(s.columns), len(fields))
	}

	text := s.column("text")
	override := assOverrideRegex.FindString(fields[text])
	fields[text] = fields[text][len(override):]
	return assEvent{fields: fields, override: override}, nil
}

func (s *ASSScript) Format() Format {
	return FormatASS
}

// an inline "[Speaker]:" label wins over the Name column
func (s *ASSScript) Subtitle() *Subtitle {
	start, end := s.column("start"), s.column("end")
	name, text := s.column("name"), s.column("text")

	entries := lo.Map(s.events, func(e assEvent, i int) Entry {
		plain := assLineBreaks.Replace(e.field(text))
		speaker, rest := SplitSpeaker(plain)
		if speaker == "" {
			speaker = strings.TrimSpace(e.field(name))
		}
		return Entry{
			Index:     i + 1,
			StartTime: parseASSTimestamp(e.field(start)),
			EndTime:   parseASSTimestamp(e.field(end)),
			Speaker:   speaker,
			Text:      rest,
		}
	})

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatASS),
	}
}

// h:mm:ss.cc, zero when malformed
func parseASSTimestamp(ts string) time.Duration {
	var h, m, sec, cs int
	if n, err := fmt.Sscanf(strings.TrimSpace(ts), "%d:%d:%d.%d", &h, &m, &sec, &cs); err != nil || n != 4 {
		return 0
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(cs)*10*time.Millisecond
}

// SetSpeaker moves the event's speaker into the Name column, dropping any
// inline label from its text.
func (s *ASSScript) SetSpeaker(index int, speaker string) error {
	if index < 0 || index >= len(s.events) {
		return fmt.Errorf("index %d out of range (0-%d)", index, len(s.events)-1)
	}
	name := s.column("name")
	if name < 0 {
		return errors.New("ASS file has no Name column")
	}

	event := &s.events[index]
	event.fields[name] = strings.ReplaceAll(strings.TrimSpace(speaker), ",", " ")
	text := s.column("text")
	if label, rest := SplitSpeaker(event.fields[text]); label != "" {
		event.fields[text] = rest
	}
	return nil
}

func (s *ASSScript) Write(path string) error {
	var sb strings.Builder
	writeLines := func(lines ...string) {
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	writeLines(s.head...)
	writeLines(s.format)
	writeLines(lo.Map(s.events, func(e assEvent, _ int) string {
		return s.dialogueLine(e)
	})...)
	writeLines(s.comments...)
	writeLines(s.tail...)

	return writeFile(path, sb.String())
}

func (s *ASSScript) dialogueLine(e assEvent) string {
	fields := make([]string, len(s.columns))
	copy(fields, e.fields)
	text := s.column("text")
	fields[text] = e.override + fields[text]
	return "Dialogue: " + strings.Join(fields, ",")
}
