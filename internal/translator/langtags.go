package translator

import "strings"

// languageTagAliases maps an ISO 639-1 code to the additional tags that may
// show up in filenames or embedded stream metadata (ISO 639-2 variants).
// Matching any alias counts as a match for that language.
var languageTagAliases = map[string][]string{
	"en": {"en", "eng"},
	"ja": {"ja", "jpn", "jp"},
	"de": {"de", "ger", "deu"},
	"fr": {"fr", "fre", "fra"},
	"es": {"es", "spa"},
	"it": {"it", "ita"},
	"pt": {"pt", "por"},
	"ru": {"ru", "rus"},
	"zh": {"zh", "chi", "zho"},
	"ko": {"ko", "kor"},
	"nl": {"nl", "dut", "nld"},
	"sv": {"sv", "swe"},
	"pl": {"pl", "pol"},
	"ar": {"ar", "ara"},
}

// languageTags returns every tag that should count as a match for lang —
// its own code plus any known ISO 639-2 aliases.
func languageTags(lang string) []string {
	lang = strings.ToLower(lang)
	if tags, ok := languageTagAliases[lang]; ok {
		return tags
	}
	return []string{lang}
}

func languageTagSet(lang string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range languageTags(lang) {
		set[t] = true
	}
	return set
}
