package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagesFor(t *testing.T) {
	fr := catalog[supportedLanguages[0]]

	assert.Equal(t, "Champs manquants. Merci de remplir le formulaire.", fr.Validation)
	assert.Equal(t, fr, MessagesFor("fr"))
	assert.Equal(t, fr, MessagesFor("fr-CA"))
	assert.Equal(t, fr, MessagesFor(""))
	assert.Equal(t, fr, MessagesFor("de"))

	en := MessagesFor("en-GB")
	assert.Equal(t, "Missing fields. Please fill in the form.", en.Validation)
	assert.Equal(t, en, MessagesFor("en"))
}

func TestMessagesFor_CatalogsAreComplete(t *testing.T) {
	for tag, msgs := range catalog {
		for name, s := range map[string]string{
			"Validation":    msgs.Validation,
			"Configuration": msgs.Configuration,
			"Dispatch":      msgs.Dispatch,
			"TooLarge":      msgs.TooLarge,
			"RateLimited":   msgs.RateLimited,
		} {
			assert.NotEmpty(t, s, "%s: %s is empty", tag, name)
		}
	}
}
