// Package sections declares the settings panels the console knows about:
// their keys, value kinds, options, validators and cross-field rules, plus
// the factory defaults used to seed the demo backend.
package sections

import (
	"slices"

	"github.com/five82/dials/internal/panel"
	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/validate"
)

const (
	PasswordPolicies setting.SectionPath = "Application.Security.PasswordPolicies"
	Logging          setting.SectionPath = "Application.Logging"
	Validation       setting.SectionPath = "Application.Validation"
	Localization     setting.SectionPath = "Application.Localization"
	Regions          setting.SectionPath = "Application.Regions"
)

// Password policy keys.
const (
	PasswordMinLength        setting.Key = "password.min.length"
	PasswordMaxLength        setting.Key = "password.max.length"
	PasswordRequireUppercase setting.Key = "password.require.uppercase"
	PasswordRequireLowercase setting.Key = "password.require.lowercase"
	PasswordRequireDigits    setting.Key = "password.require.digits"
	PasswordRequireSpecial   setting.Key = "password.require.special"
	PasswordExpiryDays       setting.Key = "password.expiry.days"
	PasswordHistoryCount     setting.Key = "password.history.count"
)

// Logging keys.
const (
	LoggingConsoleEnabled setting.Key = "logging.console.enabled"
	LoggingConsoleDebug   setting.Key = "logging.console.debug"
	LoggingConsoleInfo    setting.Key = "logging.console.info"
	LoggingConsoleError   setting.Key = "logging.console.error"
	LoggingFileEnabled    setting.Key = "logging.file.enabled"
	LoggingRetentionDays  setting.Key = "logging.retention.days"
)

// Validation keys.
const (
	ValidationEmailRegex        setting.Key = "validation.email.regex"
	ValidationPhoneMask         setting.Key = "validation.phone.mask"
	ValidationUsernameMinLength setting.Key = "validation.username.min.length"
	ValidationUsernameMaxLength setting.Key = "validation.username.max.length"
	ValidationDefaultCountry    setting.Key = "validation.default.country"
)

// Localization keys.
const (
	LocalizationDefaultLanguage  setting.Key = "localization.default.language"
	LocalizationAllowedLanguages setting.Key = "localization.allowed.languages"
)

// Region keys.
const (
	RegionsEnabled setting.Key = "regions.enabled"
)

const (
	passwordLengthFloor = 4
	passwordLengthCeil  = 128
)

var languages = []string{"de", "en", "es", "fr", "it", "ja", "pt"}

// Registry is the ordered set of panel definitions.
type Registry struct {
	defs []panel.Definition
}

// NewRegistry builds the standard registry. countries feeds the default
// country dropdown; nil uses the built-in list.
func NewRegistry(countries CountryProvider) *Registry {
	if countries == nil {
		countries = StaticCountries{}
	}
	return &Registry{defs: []panel.Definition{
		passwordPolicies(),
		logging(),
		validation(countries),
		localization(),
		regions(),
	}}
}

// All returns the definitions in display order.
func (r *Registry) All() []panel.Definition {
	return slices.Clone(r.defs)
}

// Sections returns the section paths in display order.
func (r *Registry) Sections() []setting.SectionPath {
	out := make([]setting.SectionPath, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Section)
	}
	return out
}

// Lookup finds the definition of section.
func (r *Registry) Lookup(section setting.SectionPath) (panel.Definition, bool) {
	for _, d := range r.defs {
		if d.Section == section {
			return d, true
		}
	}
	return panel.Definition{}, false
}

// Index returns the display position of section, or -1.
func (r *Registry) Index(section setting.SectionPath) int {
	for i, d := range r.defs {
		if d.Section == section {
			return i
		}
	}
	return -1
}

func passwordPolicies() panel.Definition {
	lengths := intOptions(passwordLengthFloor, passwordLengthCeil)
	return panel.Definition{
		Section:  PasswordPolicies,
		Title:    "Password policies",
		Strategy: panel.Batched,
		Fields: []panel.FieldSpec{
			{Key: PasswordMinLength, Kind: setting.KindNumber, Label: "Minimum length", Options: lengths, Step: 1},
			{Key: PasswordMaxLength, Kind: setting.KindNumber, Label: "Maximum length", Options: lengths, Step: 1},
			{Key: PasswordRequireUppercase, Kind: setting.KindBool, Label: "Require uppercase"},
			{Key: PasswordRequireLowercase, Kind: setting.KindBool, Label: "Require lowercase"},
			{Key: PasswordRequireDigits, Kind: setting.KindBool, Label: "Require digits"},
			{Key: PasswordRequireSpecial, Kind: setting.KindBool, Label: "Require special characters"},
			{
				Key:     PasswordExpiryDays,
				Kind:    setting.KindNumber,
				Label:   "Expires after (days)",
				Help:    "0 disables expiry",
				Options: []setting.Value{setting.Int(0), setting.Int(30), setting.Int(60), setting.Int(90), setting.Int(180), setting.Int(365)},
			},
			{Key: PasswordHistoryCount, Kind: setting.KindNumber, Label: "Remembered passwords", Min: 0, Max: 24, Step: 1},
		},
		Rules: []panel.Rule{
			panel.MinMaxRule{Min: PasswordMinLength, Max: PasswordMaxLength},
		},
	}
}

func logging() panel.Definition {
	return panel.Definition{
		Section:  Logging,
		Title:    "Logging",
		Strategy: panel.PerKey,
		Fields: []panel.FieldSpec{
			{Key: LoggingConsoleEnabled, Kind: setting.KindBool, Label: "Console logging"},
			{Key: LoggingConsoleDebug, Kind: setting.KindBool, Label: "  Debug"},
			{Key: LoggingConsoleInfo, Kind: setting.KindBool, Label: "  Info"},
			{Key: LoggingConsoleError, Kind: setting.KindBool, Label: "  Error"},
			{Key: LoggingFileEnabled, Kind: setting.KindBool, Label: "File logging"},
			{
				Key:     LoggingRetentionDays,
				Kind:    setting.KindNumber,
				Label:   "Keep logs (days)",
				Options: []setting.Value{setting.Int(7), setting.Int(14), setting.Int(30), setting.Int(90)},
			},
		},
		Rules: []panel.Rule{
			panel.DependsOnRule{
				Parent:   LoggingConsoleEnabled,
				Children: []setting.Key{LoggingConsoleDebug, LoggingConsoleInfo, LoggingConsoleError},
			},
		},
	}
}

func validation(countries CountryProvider) panel.Definition {
	codes := make([]setting.Value, 0)
	for _, c := range countries.Countries() {
		codes = append(codes, setting.String(c.Code))
	}
	return panel.Definition{
		Section:  Validation,
		Title:    "Input validation",
		Strategy: panel.PerKey,
		Fields: []panel.FieldSpec{
			{Key: ValidationEmailRegex, Kind: setting.KindString, Label: "Email pattern", Help: "Go RE2 syntax, no lookahead or backreferences", Validators: []panel.Validator{RegexValidator}},
			{Key: ValidationPhoneMask, Kind: setting.KindString, Label: "Phone mask", Help: "# marks a digit", Validators: []panel.Validator{PhoneMaskValidator}},
			{Key: ValidationUsernameMinLength, Kind: setting.KindNumber, Label: "Username min length", Min: 1, Max: 64, Step: 1},
			{Key: ValidationUsernameMaxLength, Kind: setting.KindNumber, Label: "Username max length", Min: 1, Max: 64, Step: 1},
			{Key: ValidationDefaultCountry, Kind: setting.KindString, Label: "Default country", Options: codes},
		},
		Rules: []panel.Rule{
			panel.MinMaxRule{Min: ValidationUsernameMinLength, Max: ValidationUsernameMaxLength},
		},
	}
}

func localization() panel.Definition {
	opts := make([]setting.Value, 0, len(languages))
	for _, l := range languages {
		opts = append(opts, setting.String(l))
	}
	return panel.Definition{
		Section:  Localization,
		Title:    "Localization",
		Strategy: panel.Batched,
		Fields: []panel.FieldSpec{
			{Key: LocalizationDefaultLanguage, Kind: setting.KindString, Label: "Default language", Options: opts},
			{Key: LocalizationAllowedLanguages, Kind: setting.KindStringList, Label: "Allowed languages", Options: opts},
		},
	}
}

func regions() panel.Definition {
	return panel.Definition{
		Section:  Regions,
		Title:    "Regions",
		Strategy: panel.Batched,
		Fields: []panel.FieldSpec{
			{Key: RegionsEnabled, Kind: setting.KindBool, Label: "Region restrictions"},
		},
		RegionTable: true,
	}
}

// RegexValidator rejects patterns that do not compile.
func RegexValidator(v setting.Value) error {
	s, _ := v.AsString()
	return validate.Regex(s)
}

// PhoneMaskValidator rejects malformed phone masks.
func PhoneMaskValidator(v setting.Value) error {
	s, _ := v.AsString()
	return validate.PhoneMask(s)
}

func intOptions(lo, hi int) []setting.Value {
	out := make([]setting.Value, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, setting.Int(n))
	}
	return out
}
