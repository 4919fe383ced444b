package ingest

import "regexp"

// chapterOne matches a first chapter heading. The roman numeral must be
// upper case.
var chapterOne = regexp.MustCompile(`\b(?i:chapter)\s+(?:1|(?i:one)|I)\b`)

// chapterOneInText only accepts a heading that opens the text, a line or a
// sentence, so "in this chapter I explain" is not a heading. Submatch 1 is
// the heading itself.
var chapterOneInText = regexp.MustCompile(`(?:^|\n\s*|[.!?]\s+)(` + chapterOne.String() + `)`)

// SkipFrontMatter drops everything before the first chapter. A section titled
// as the first chapter wins over a mention in running text. The document is
// returned unchanged when no first chapter is found.
func SkipFrontMatter(doc Document) Document {
	for i, sec := range doc.Sections {
		if chapterOne.MatchString(sec.Title) {
			return withSections(doc, doc.Sections[i:])
		}
	}
	for i, sec := range doc.Sections {
		loc := chapterOneInText.FindStringSubmatchIndex(sec.Text)
		if loc == nil {
			continue
		}
		rest := make([]Section, len(doc.Sections)-i)
		copy(rest, doc.Sections[i:])
		rest[0].Text = sec.Text[loc[2]:]
		return withSections(doc, rest)
	}
	return doc
}

func withSections(doc Document, sections []Section) Document {
	return Document{Title: doc.Title, Sections: sections}
}
