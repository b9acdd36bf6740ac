package i18n

import (
	"embed"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translations embed.FS

var Bundle *i18n.Bundle

func init() {
	Bundle = RegisterLanguages()
}

// RegisterLanguages loads all embedded translation files. English is mandatory.
func RegisterLanguages() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	files, err := translations.ReadDir("translations")
	if err != nil {
		panic(err)
	}
	for _, f := range files {
		name := path.Join("translations", f.Name())
		buf, err := translations.ReadFile(name)
		if err != nil {
			panic(err)
		}
		_, err = bundle.ParseMessageFileBytes(buf, name)
		if err != nil {
			if f.Name() == "en.toml" {
				panic(err)
			}
			log.Errorf("[i18n] could not load %s: %v", name, err)
		}
	}
	return bundle
}

// Localizer returns a localizer preferring lang and falling back to english.
func Localizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(Bundle, lang, "en")
}
