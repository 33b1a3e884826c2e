package dialogue

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// characterPattern splits "Name: text" into its speaker and text. Names are
// a single alphanumeric word, matching how yarn scripts mark speakers.
var characterPattern = regexp.MustCompile(`(?s)^(?:([a-zA-Z0-9]+):)?\s*(.*)$`)

// MissingString is the placeholder used for ids absent from a string table.
func MissingString(id string) string {
	return "<missing_string: " + id + ">"
}

// ExtractCharacter pulls a leading "Name:" speaker off text.
func ExtractCharacter(text string) (character, rest string) {
	m := characterPattern.FindStringSubmatch(text)
	if m == nil {
		return "", text
	}
	return m[1], m[2]
}

// Substitute replaces {0}, {1}, ... with the matching substitution.
func Substitute(text string, subs []string) string {
	for i, sub := range subs {
		text = strings.ReplaceAll(text, "{"+strconv.Itoa(i)+"}", sub)
	}
	return text
}

// Formatter turns VM lines into display text.
type Formatter struct {
	Strings  *StringTable
	Metadata *MetadataTable
	Locale   language.Tag
	Log      *slog.Logger
}

// Text returns the speaker (if any) and the final text for line: table
// lookup, speaker extraction, substitution, then format functions.
func (f Formatter) Text(line Line) (character, text string) {
	raw, ok := f.Strings.Lookup(line.ID)
	if !ok {
		if f.Log != nil {
			f.Log.Warn("dialogue: line id missing from string table", "id", line.ID)
		}
		raw = MissingString(line.ID)
	}
	character, raw = ExtractCharacter(raw)
	return character, ExpandFormatFunctions(Substitute(raw, line.Substitutions), f.Locale)
}

// Line builds the full FormattedLine for a VM line.
func (f Formatter) Line(line Line) FormattedLine {
	character, text := f.Text(line)
	return FormattedLine{
		Line:      line,
		Text:      text,
		Character: character,
		Tags:      f.Metadata.Tags(line.ID),
	}
}

// Choices formats an option set.
func (f Formatter) Choices(options []Option) []Choice {
	out := make([]Choice, 0, len(options))
	for _, opt := range options {
		out = append(out, Choice{
			LineID:          opt.Line.ID,
			DestinationNode: opt.DestinationNode,
			Line:            f.Line(opt.Line),
		})
	}
	return out
}
