package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// Validation rule patterns
var (
	// DatePattern is a calendar date, YYYY-MM-DD.
	DatePattern = `^\d{4}-\d{2}-\d{2}$`

	// ClockPattern is a 24h wall-clock time, HH:MM.
	ClockPattern = `^([01]\d|2[0-3]):[0-5]\d$`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Date  *regexp.Regexp
	Clock *regexp.Regexp
}{
	Date:  regexp.MustCompile(DatePattern),
	Clock: regexp.MustCompile(ClockPattern),
}

// New returns a validator with the custom booking tags registered and field names
// reported by their json tag.
//
//	kstdate   string is a real calendar date formatted YYYY-MM-DD
//	kstclock  string is a time of day formatted HH:MM
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("kstdate", isDate)
	_ = v.RegisterValidation("kstclock", isClock)
	return v
}

func isDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !CompiledPatterns.Date.MatchString(s) {
		return false
	}
	_, err := kst.ParseDate(s)
	return err == nil
}

func isClock(fl validator.FieldLevel) bool {
	return CompiledPatterns.Clock.MatchString(fl.Field().String())
}
