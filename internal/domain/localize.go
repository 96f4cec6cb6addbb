package domain

import "golang.org/x/text/language"

// supportedLocales lists the copy variants carried by GiftTemplate, in
// matcher priority order. English is the fallback.
var supportedLocales = []language.Tag{
	language.English,
	language.Russian,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Localize resolves the template's title and description for the requested
// locale, falling back to English when the Russian variant is empty or the
// locale is unsupported. Scoring never depends on this; it is invoked only
// when copy is denormalized into results or rendered by the host.
func (t GiftTemplate) Localize(locale string) (title, description string) {
	tag, _ := language.MatchStrings(localeMatcher, locale)
	base, _ := tag.Base()
	if base.String() == "ru" && t.TitleRU != "" {
		desc := t.DescriptionRU
		if desc == "" {
			desc = t.DescriptionEN
		}
		return t.TitleRU, desc
	}
	return t.TitleEN, t.DescriptionEN
}
