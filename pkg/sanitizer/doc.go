// Package sanitizer normalizes free-form identity strings before they are
// used as lookup keys.
//
// Recognizers report display names with inconsistent casing and spacing
// ("Ming ", "ming", "MING  LI"). Directory lookups go through NameKey so all
// of these resolve to the same user. Tags and e-mail addresses have their
// own strategies.
package sanitizer
