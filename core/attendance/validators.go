package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/volonteri/evidencija/core"
)

var (
	sessionDateTag  = "sessiondate"
	sessionDateText = "enter a valid date as dd/mm/yyyy or yyyy-mm-dd"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(sessionDateTag, sessionDateValidation)
	core.RegisterCustomTranslation(validate, translator, sessionDateTag, sessionDateText)
}

func sessionDateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
