// Package i18n holds the user-facing strings the data layer produces on its
// own, chiefly the generic error messages shown when the API gives none.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message IDs.
const (
	GenericError   = "error.generic"
	NetworkError   = "error.network"
	Unauthorized   = "error.unauthorized"
	InvalidInput   = "error.invalid_input"
	ResetEmailSent = "identity.reset_email_sent"
)

var supported = []language.Tag{
	language.AmericanEnglish,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

var catalog = map[language.Tag]map[string]string{
	language.AmericanEnglish: {
		GenericError:   "Something went wrong. Please try again.",
		NetworkError:   "Unable to reach the server. Check your connection and try again.",
		Unauthorized:   "Please sign in to continue.",
		InvalidInput:   "Some of the information you entered is not valid.",
		ResetEmailSent: "If an account exists for that email, a reset link has been sent.",
	},
	language.Spanish: {
		GenericError:   "Algo salió mal. Inténtalo de nuevo.",
		NetworkError:   "No se pudo conectar con el servidor. Revisa tu conexión e inténtalo de nuevo.",
		Unauthorized:   "Inicia sesión para continuar.",
		InvalidInput:   "Parte de la información introducida no es válida.",
		ResetEmailSent: "Si existe una cuenta con ese correo, se ha enviado un enlace de restablecimiento.",
	},
}

func init() {
	for tag, msgs := range catalog {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Default is the locale used when nothing better matches.
func Default() language.Tag {
	return supported[0]
}

// Resolve picks the best supported locale for pref, which may be a single
// tag ("es-MX") or an Accept-Language list ("es;q=0.9, en").
func Resolve(pref string) language.Tag {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Text renders message id in tag's language.
func Text(tag language.Tag, id string) string {
	return Printer(tag).Sprintf(id)
}
