package core

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NewCollator returns a Croatian collator ignoring case and diacritics.
// A Collator is not safe for concurrent use: create one per query.
func NewCollator() *collate.Collator {
	return collate.New(language.Croatian, collate.Loose)
}
