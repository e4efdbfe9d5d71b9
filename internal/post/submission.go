// Package post holds the submission record of the posting workflow and the pure
// functions that parse operator input and render channel messages.
package post

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrLinkFormat is returned when the link message does not carry two lines
// or both parsed links are empty.
var ErrLinkFormat = errors.New("post: link message needs two lines")

// ImageRef is an opaque reference to an uploaded image (a Telegram file ID).
type ImageRef string

// Destination identifies a chat the bot can post to: a numeric chat ID or an @handle.
type Destination string

// Recipient implements tele.Recipient.
func (d Destination) Recipient() string { return string(d) }

// UserDestination addresses the private chat of a user.
func UserDestination(userID int64) Destination {
	return Destination(strconv.FormatInt(userID, 10))
}

// Stage is the position of a submission in the posting flow.
type Stage int

const (
	StageEmpty Stage = iota
	StageHasTitle
	StageHasLinks
	StageHasImage
)

func (s Stage) String() string {
	switch s {
	case StageHasTitle:
		return "has_title"
	case StageHasLinks:
		return "has_links"
	case StageHasImage:
		return "has_image"
	default:
		return "empty"
	}
}

// Submission is one user's in-progress post. Empty fields are absent.
type Submission struct {
	Title         string
	Link          string
	PermanentLink string
	Image         ImageRef
}

// HasTitle reports whether the title step is done.
func (s Submission) HasTitle() bool { return s.Title != "" }

// HasLinks reports whether the link pair was stored.
func (s Submission) HasLinks() bool { return s.Link != "" || s.PermanentLink != "" }

// HasImage reports whether a poster was stored.
func (s Submission) HasImage() bool { return s.Image != "" }

// Stage returns the furthest step reached.
func (s Submission) Stage() Stage {
	switch {
	case s.HasImage():
		return StageHasImage
	case s.HasLinks():
		return StageHasLinks
	case s.HasTitle():
		return StageHasTitle
	default:
		return StageEmpty
	}
}

// ExtractTitle keeps the leading non-blank lines of a caption, trimmed and newline-joined.
// It returns "" when the caption is empty or starts with a blank line.
func ExtractTitle(caption string) string {
	var lines []string
	for _, line := range strings.Split(caption, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ParseLinks reads the download link from the first line and the permanent link from the second.
// The "Link: " and "Permanent: " labels are optional.
//
// A pair where both lines are empty after the labels is rejected with ErrLinkFormat.
// Older builds stored such a pair as two empty strings, which left the submission
// without links forever since HasLinks only counts non-empty values.
func ParseLinks(text string) (link, permanent string, err error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return "", "", ErrLinkFormat
	}
	link = stripLabel(lines[0], "Link: ")
	permanent = stripLabel(lines[1], "Permanent: ")
	if link == "" && permanent == "" {
		return "", "", ErrLinkFormat
	}
	return link, permanent, nil
}

func stripLabel(line, label string) string {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	return strings.TrimSpace(strings.TrimPrefix(line, label))
}
