package document

import "time"

// Expected-completion references carried in completionexpectedcmid.
const (
	ExpectedNone   = 0
	ExpectedCustom = -1
)

// NoExpectedDate is shown for steps without an expected completion.
const NoExpectedDate = "No expected completion date set."

// DateTimeLayout is the short date and time format used for readable dates.
const DateTimeLayout = "02/01/06, 15:04"

// Readable formats an epoch in loc. Zero yields "".
func Readable(epoch int64, loc *time.Location) string {
	if epoch == 0 {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).In(loc).Format(DateTimeLayout)
}

// ExpectedReadable describes a step's expected completion for the editor.
func ExpectedReadable(ref, epoch int64, loc *time.Location) string {
	if ref == ExpectedNone {
		return NoExpectedDate
	}
	return Readable(epoch, loc)
}
