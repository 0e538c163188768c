package validator

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// trans is the English translator bound to Gin's binding engine.
	trans ut.Translator

	// documents validates persisted models through their `validate` tags.
	// Translations are registered per validator, so it has its own translator.
	documents *govalidator.Validate
	docTrans  ut.Translator

	setupOnce sync.Once
)

// ErrInvalidDocument is wrapped by Document when a model fails its own rules.
var ErrInvalidDocument = errors.New("invalid document")

// Setup registers the validator with English translations on Gin's binding
// engine and prepares the document validator. Safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
			trans = configure(v)
		}

		documents = govalidator.New(govalidator.WithRequiredStructEnabled())
		docTrans = configure(documents)
	})
}

func configure(v *govalidator.Validate) ut.Translator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	t, _ := uni.GetTranslator("en")

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)

	_ = en_translations.RegisterDefaultTranslations(v, t)
	_ = v.RegisterTranslation("notblank", t,
		func(ut ut.Translator) error {
			return ut.Add("notblank", "{0} must not be blank", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			msg, _ := ut.T("notblank", fe.Field())
			return msg
		},
	)
	return t
}

// TranslateErrors takes a binding/validation error and returns a map of
// field path → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	return translate(err, trans)
}

func translate(err error, t ut.Translator) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fieldPath(fe)] = fe.Translate(t)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindBody is Bind for handlers that also need the raw request body, e.g. to
// attach it to an error log entry. The body is returned even when binding fails.
func BindBody(c *gin.Context, dst interface{}) (map[string]string, []byte) {
	err := c.ShouldBindBodyWith(dst, binding.JSON)

	var body []byte
	if v, ok := c.Get(gin.BodyBytesKey); ok {
		body, _ = v.([]byte)
	}
	if err != nil {
		return TranslateErrors(err), body
	}
	return nil, body
}

// Struct validates an already decoded request value against its binding tags.
func Struct(obj interface{}) map[string]string {
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Document checks a model against its `validate` tags before it is persisted.
func Document(doc interface{}) error {
	Setup()
	if err := documents.Struct(doc); err != nil {
		fields := translate(err, docTrans)
		msgs := make([]string, 0, len(fields))
		for k, m := range fields {
			msgs = append(msgs, k+": "+m)
		}
		sort.Strings(msgs)
		return errors.Join(ErrInvalidDocument, errors.New(strings.Join(msgs, "; ")))
	}
	return nil
}

// fieldPath drops the root struct name from the namespace so nested fields
// keep their position, e.g. "relatedQuestions[0].rightAnswer".
func fieldPath(fe govalidator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
