package handler

import (
	"golang.org/x/text/language"
)

// Messages holds the user-facing strings returned in {"error": ...} bodies.
// They are shown verbatim by the form client.
type Messages struct {
	Validation    string // Missing or blank fields, malformed body
	Configuration string // Mail transport not configured
	Dispatch      string // Mail transport failed, cause stays in the logs
	TooLarge      string
	RateLimited   string
}

var supportedLanguages = []language.Tag{
	language.French, // first entry is the fallback
	language.English,
}

var catalog = map[language.Tag]Messages{
	language.French: {
		Validation:    "Champs manquants. Merci de remplir le formulaire.",
		Configuration: "SMTP non configuré. Ajoute les variables dans .env (SMTP_*).",
		Dispatch:      "Erreur serveur. Vérifie la configuration SMTP.",
		TooLarge:      "Demande trop volumineuse.",
		RateLimited:   "Trop de demandes. Réessaie plus tard.",
	},
	language.English: {
		Validation:    "Missing fields. Please fill in the form.",
		Configuration: "SMTP is not configured. Add the SMTP_* variables to .env.",
		Dispatch:      "Server error. Check the SMTP configuration.",
		TooLarge:      "Request too large.",
		RateLimited:   "Too many requests. Please try again later.",
	},
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// MessagesFor returns the catalog closest to lang, falling back to French.
func MessagesFor(lang string) Messages {
	_, index := language.MatchStrings(languageMatcher, lang)
	return catalog[supportedLanguages[index]]
}
